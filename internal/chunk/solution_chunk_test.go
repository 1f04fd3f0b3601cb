package chunk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkpointFixture() *ParsedCheckpoint {
	return &ParsedCheckpoint{
		ID:        "ckpt1",
		SessionID: "sess1",
		Agent:     "claude",
		Timestamp: time.Unix(1700000000, 0),
		Entries: []TranscriptEntry{
			{Role: "user", Content: "<system-reminder>ignore this</system-reminder>\nFix the retrieval bug in internal/retrieve/rrf.go"},
			{Role: "assistant", Content: "I'll update func Fuse to handle empty legs."},
			{Role: "tool", Content: "old_string: func Fuse() {}\nnew_string: func Fuse(legs ...[]Result) []Result {}"},
			{Role: "user", Content: "Looks good, also check node.js compatibility docs"},
			{Role: "assistant", Content: "No changes needed there."},
		},
	}
}

func TestParseSolutionChunksPairsTurns(t *testing.T) {
	chunks := ParseSolutionChunks(checkpointFixture(), 0)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].PairIndex)
	assert.Equal(t, 1, chunks[1].PairIndex)
	assert.Equal(t, "ckpt1:0:0", chunks[0].ID)
}

func TestParseSolutionChunksStripsSystemTags(t *testing.T) {
	chunks := ParseSolutionChunks(checkpointFixture(), 0)
	assert.NotContains(t, chunks[0].Prompt, "system-reminder")
	assert.Contains(t, chunks[0].Prompt, "Fix the retrieval bug")
}

func TestParseSolutionChunksExtractsFilesChanged(t *testing.T) {
	chunks := ParseSolutionChunks(checkpointFixture(), 0)
	assert.Contains(t, chunks[0].FilesChanged, "internal/retrieve/rrf.go")
}

func TestParseSolutionChunksExcludesFalsePositives(t *testing.T) {
	chunks := ParseSolutionChunks(checkpointFixture(), 0)
	for _, f := range chunks[1].FilesChanged {
		assert.NotEqual(t, "node.js", f)
	}
}

func TestParseSolutionChunksExtractsDiffSummary(t *testing.T) {
	chunks := ParseSolutionChunks(checkpointFixture(), 0)
	assert.Contains(t, chunks[0].DiffSummary, "new_string")
}

func TestParseSolutionChunksExtractsSymbols(t *testing.T) {
	chunks := ParseSolutionChunks(checkpointFixture(), 0)
	assert.Contains(t, chunks[0].Symbols, "Fuse")
}

func TestParseSolutionChunksDropsEmptyPair(t *testing.T) {
	cp := &ParsedCheckpoint{
		ID: "ckpt2",
		Entries: []TranscriptEntry{
			{Role: "user", Content: "   "},
			{Role: "assistant", Content: ""},
		},
	}
	chunks := ParseSolutionChunks(cp, 0)
	assert.Empty(t, chunks)
}

func TestParseSolutionChunksEmbeddingTextShape(t *testing.T) {
	chunks := ParseSolutionChunks(checkpointFixture(), 0)
	assert.Contains(t, chunks[0].EmbeddingText, "Symbols:")
	assert.Contains(t, chunks[0].EmbeddingText, "Question:")
	assert.Contains(t, chunks[0].EmbeddingText, "Answer:")
	assert.Contains(t, chunks[0].EmbeddingText, "Changes:")
	assert.LessOrEqual(t, len(chunks[0].EmbeddingText), MaxEmbeddingTextBytes)
}

func TestParseSolutionChunksNilCheckpoint(t *testing.T) {
	chunks := ParseSolutionChunks(nil, 0)
	assert.Empty(t, chunks)
}
