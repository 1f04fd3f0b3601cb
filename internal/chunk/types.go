// Package chunk turns parsed symbols and conversation transcripts into
// storage-ready, retrieval-friendly records: CodeChunk and
// SolutionChunk.
package chunk

import "time"

// Size limits applied when assembling chunk text.
const (
	MaxBodyBytes          = 3000
	MaxEmbeddingTextBytes = 5000
	MaxPromptBytes        = 4000
	MaxResponseBytes      = 4000
	MaxDiffSummaryBytes   = 3000
	maxSymbolsPerChunk    = 30
)

// CodeChunk is the storage-ready variant of a parsed Symbol.
type CodeChunk struct {
	ID            string
	Path          string
	Symbol        string
	SymbolType    string
	Language      string
	Body          string
	Summary       string
	EmbeddingText string
	Commit        string
	LastModified  time.Time
	Calls         []string
	Imports       []string

	GitChangeCount    int
	GitAuthorCount    int
	GitLastChangeDate time.Time
}

// TranscriptEntry is one (role, content) turn from a session
// transcript, the external transcript-parser contract's output unit.
type TranscriptEntry struct {
	Role    string // "user", "assistant", "tool"
	Content string
}

// ParsedCheckpoint is a parsed session transcript ready for chunking.
type ParsedCheckpoint struct {
	ID        string
	SessionID string
	Agent     string
	Timestamp time.Time
	Entries   []TranscriptEntry
}

// SolutionChunk is a conversation-memory unit extracted from one
// user/assistant turn pair inside a session.
type SolutionChunk struct {
	ID            string // "{checkpoint}:{sessionIndex}:{pairIndex}"
	CheckpointID  string
	SessionIndex  int
	PairIndex     int
	Prompt        string
	Response      string
	DiffSummary   string
	EmbeddingText string
	Summary       string

	Agent        string
	Timestamp    time.Time
	FilesChanged []string
	TokensUsed   int
	Symbols      []string
	Language     string
	Confidence   float64
	Source       string
}
