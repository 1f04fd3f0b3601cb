package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yepmem/core/internal/parse"
)

// GitProvenance carries the optional per-symbol churn fields sourced
// from the indexer's git walk.
type GitProvenance struct {
	ChangeCount   int
	AuthorCount   int
	LastChangeDate time.Time
}

// BuildCodeChunk converts one parsed Symbol into a storage-ready
// CodeChunk. id is a deterministic hash of path+symbol+symbolType+
// startLine, so re-indexing an unchanged file reproduces the same ids.
func BuildCodeChunk(sym *parse.Symbol, language, commit string, lastModified time.Time, prov GitProvenance) *CodeChunk {
	summary := deriveSummary(sym)
	body := truncate(sym.Body, MaxBodyBytes)

	c := &CodeChunk{
		ID:           codeChunkID(sym.Path, sym.Name, string(sym.SymbolType), sym.StartLine),
		Path:         sym.Path,
		Symbol:       sym.Name,
		SymbolType:   string(sym.SymbolType),
		Language:     language,
		Body:         body,
		Summary:      summary,
		Commit:       commit,
		LastModified: lastModified,
		Calls:        sym.Calls,
		Imports:      sym.Imports,

		GitChangeCount:    prov.ChangeCount,
		GitAuthorCount:    prov.AuthorCount,
		GitLastChangeDate: prov.LastChangeDate,
	}
	c.EmbeddingText = buildEmbeddingText(c)
	return c
}

func codeChunkID(path, symbol, symbolType string, startLine int) string {
	input := strings.Join([]string{path, symbol, symbolType, strconv.Itoa(startLine)}, "|")
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:16]
}

// deriveSummary takes the first non-empty line of the doc comment, or
// failing that the declaration signature up to the opening brace.
func deriveSummary(sym *parse.Symbol) string {
	for _, line := range strings.Split(sym.JSDoc, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return signatureHead(sym.Body)
}

// signatureHead returns the declaration up to (not including) its
// opening brace, or the first line if none is found.
func signatureHead(body string) string {
	if idx := strings.IndexByte(body, '{'); idx >= 0 {
		return strings.TrimSpace(body[:idx])
	}
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		return strings.TrimSpace(body[:idx])
	}
	return strings.TrimSpace(body)
}

// buildEmbeddingText assembles "{symbolType} {name} [{language}]
// {summary}\n{signature}\n{bodyHead}", capped at ≈5000 bytes.
func buildEmbeddingText(c *CodeChunk) string {
	header := fmt.Sprintf("%s %s [%s] %s", c.SymbolType, c.Symbol, c.Language, c.Summary)
	signature := signatureHead(c.Body)
	text := header + "\n" + signature + "\n" + c.Body
	return truncate(text, MaxEmbeddingTextBytes)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// LanguageForPath infers the language name for a path from its
// extension, using the parse package's registry so the mapping stays
// in sync with the parser.
func LanguageForPath(path string) (string, bool) {
	return parse.DefaultRegistry().LanguageForExtension(filepath.Ext(path))
}
