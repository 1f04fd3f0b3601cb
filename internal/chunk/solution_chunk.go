package chunk

import (
	"fmt"
	"regexp"
	"strings"
)

// falsePositiveFileNames are bare words that look like file paths
// (they end in a code extension) but name a runtime or framework, not
// a file in the repo.
var falsePositiveFileNames = map[string]bool{
	"node.js": true, "next.js": true, "vue.js": true, "nuxt.js": true,
	"react.js": true, "express.js": true, "nest.js": true, "three.js": true,
}

var filePathPattern = regexp.MustCompile(`[\w./-]+\.(go|ts|tsx|js|jsx|py|rs|java|rb|c|cpp|h|hpp|md|json|yaml|yml|sql)\b`)

var diffMarkerPattern = regexp.MustCompile(`(?m)^(diff --git|@@ |\+\+\+ |--- )`)

var declarationLinePattern = regexp.MustCompile(`(?m)^\+\s*(func |def |class |interface |type |const |fn |struct )`)

var systemTagPattern = regexp.MustCompile(`(?s)<system[^>]*>.*?</system[^>]*>`)

var fileTreeLinePattern = regexp.MustCompile(`(?m)^\s*(├──|└──|│\s+├──|│\s+└──).*$\n?`)

// knownCodeChangeIndicators mark a tool entry as carrying a code diff
// even without explicit unified-diff markers (e.g. an edit-tool summary).
var knownCodeChangeIndicators = []string{"old_string", "new_string", "applied patch", "edited file", "wrote file"}

// ParseSolutionChunks runs the seven-step pipeline over one parsed
// checkpoint, producing one SolutionChunk per user/assistant pair. A
// pair whose prompt and response are both empty is dropped.
func ParseSolutionChunks(cp *ParsedCheckpoint, sessionIndex int) []*SolutionChunk {
	if cp == nil {
		return []*SolutionChunk{}
	}

	entries := stripAnnotations(cp.Entries)
	pairs := pairTurns(entries)

	chunks := make([]*SolutionChunk, 0, len(pairs))
	for i, pair := range pairs {
		prompt := truncate(pair.prompt, MaxPromptBytes)
		response := truncate(pair.response, MaxResponseBytes)
		if prompt == "" && response == "" {
			continue
		}

		transcript := pair.prompt + "\n" + pair.response + "\n" + pair.toolText
		filesChanged := extractFilesChanged(transcript)
		diffSummary := truncate(extractDiffSummary(pair.toolText, pair.response), MaxDiffSummaryBytes)
		symbols := extractSymbolNames(transcript)
		language := modalLanguage(filesChanged)

		sc := &SolutionChunk{
			ID:           fmt.Sprintf("%s:%d:%d", cp.ID, sessionIndex, i),
			CheckpointID: cp.ID,
			SessionIndex: sessionIndex,
			PairIndex:    i,
			Prompt:       prompt,
			Response:     response,
			DiffSummary:  diffSummary,
			Agent:        cp.Agent,
			Timestamp:    cp.Timestamp,
			FilesChanged: filesChanged,
			Symbols:      symbols,
			Language:     language,
			Source:       "transcript",
		}
		sc.Summary = deriveSolutionSummary(sc)
		sc.EmbeddingText = buildSolutionEmbeddingText(sc)
		chunks = append(chunks, sc)
	}
	return chunks
}

// stripAnnotations removes system-annotation tags and consecutive
// file-tree lines from user prompts. Assistant/tool entries pass
// through unchanged.
func stripAnnotations(entries []TranscriptEntry) []TranscriptEntry {
	out := make([]TranscriptEntry, len(entries))
	for i, e := range entries {
		if e.Role == "user" {
			e.Content = systemTagPattern.ReplaceAllString(e.Content, "")
			e.Content = fileTreeLinePattern.ReplaceAllString(e.Content, "")
			e.Content = strings.TrimSpace(e.Content)
		}
		out[i] = e
	}
	return out
}

type turnPair struct {
	prompt   string
	response string
	toolText string
}

// pairTurns scans entries top-down, pairing each pending user message
// with the next assistant message; tool entries in between attach to
// the pair they fall inside.
func pairTurns(entries []TranscriptEntry) []turnPair {
	var pairs []turnPair
	var pending *turnPair

	for _, e := range entries {
		switch e.Role {
		case "user":
			if pending != nil {
				pairs = append(pairs, *pending)
			}
			pending = &turnPair{prompt: e.Content}
		case "assistant":
			if pending == nil {
				pending = &turnPair{}
			}
			if pending.response == "" {
				pending.response = e.Content
			} else {
				pending.response += "\n" + e.Content
			}
		case "tool":
			if pending == nil {
				pending = &turnPair{}
			}
			pending.toolText += e.Content + "\n"
		}
	}
	if pending != nil {
		pairs = append(pairs, *pending)
	}
	return pairs
}

func extractFilesChanged(text string) []string {
	matches := filePathPattern.FindAllString(text, -1)
	set := newCappedSet(maxSymbolsPerChunk)
	for _, m := range matches {
		lower := strings.ToLower(m)
		if falsePositiveFileNames[lower] {
			continue
		}
		set.add(m)
	}
	return set.values()
}

func extractDiffSummary(toolText, response string) string {
	var lines []string
	if diffMarkerPattern.MatchString(toolText) {
		for _, line := range strings.Split(toolText, "\n") {
			if diffMarkerPattern.MatchString(line) || strings.HasPrefix(strings.TrimSpace(line), "+") || strings.HasPrefix(strings.TrimSpace(line), "-") {
				lines = append(lines, line)
			}
		}
	}
	for _, indicator := range knownCodeChangeIndicators {
		if strings.Contains(strings.ToLower(toolText), indicator) {
			lines = append(lines, toolText)
			break
		}
	}
	for _, m := range declarationLinePattern.FindAllString(response, -1) {
		lines = append(lines, m)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

var symbolDeclPattern = regexp.MustCompile(`\b(?:func|def|class|interface|type|fn|struct)\s+([A-Za-z_][A-Za-z0-9_]*)`)

func extractSymbolNames(text string) []string {
	set := newCappedSet(maxSymbolsPerChunk)
	for _, m := range symbolDeclPattern.FindAllStringSubmatch(text, -1) {
		set.add(m[1])
	}
	return set.values()
}

// modalLanguage returns the language inferred from the extension that
// appears most often among filesChanged.
func modalLanguage(filesChanged []string) string {
	counts := make(map[string]int)
	for _, f := range filesChanged {
		if lang, ok := LanguageForPath(f); ok {
			counts[lang]++
		}
	}
	best, bestCount := "", 0
	for lang, count := range counts {
		if count > bestCount || (count == bestCount && lang < best) {
			best, bestCount = lang, count
		}
	}
	return best
}

func deriveSolutionSummary(sc *SolutionChunk) string {
	prompt := strings.TrimSpace(sc.Prompt)
	if idx := strings.IndexByte(prompt, '\n'); idx >= 0 {
		prompt = prompt[:idx]
	}
	return truncate(prompt, 200)
}

// buildSolutionEmbeddingText assembles "Symbols: ...\nQuestion:
// ...\nAnswer: ...\nChanges: ...", capped at ~5000 bytes.
func buildSolutionEmbeddingText(sc *SolutionChunk) string {
	text := fmt.Sprintf(
		"Symbols: %s\nQuestion: %s\nAnswer: %s\nChanges: %s",
		strings.Join(sc.Symbols, ", "), sc.Prompt, sc.Response, sc.DiffSummary,
	)
	return truncate(text, MaxEmbeddingTextBytes)
}

// cappedSet is an insertion-ordered, deduplicated, capped set, mirroring
// internal/parse's identSet but kept local since the two packages have
// no shared dependency edge.
type cappedSet struct {
	max   int
	seen  map[string]bool
	order []string
}

func newCappedSet(max int) *cappedSet {
	return &cappedSet{max: max, seen: make(map[string]bool)}
}

func (s *cappedSet) add(v string) {
	if v == "" || s.seen[v] || len(s.order) >= s.max {
		return
	}
	s.seen[v] = true
	s.order = append(s.order, v)
}

func (s *cappedSet) values() []string {
	if s.order == nil {
		return []string{}
	}
	return s.order
}
