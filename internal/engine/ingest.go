package engine

import (
	"context"
	"fmt"

	"github.com/yepmem/core/internal/chunk"
	"github.com/yepmem/core/internal/store"
)

// IngestCheckpoint chunks a parsed session transcript into solutions,
// embeds each chunk's embedding text in one batch, and upserts the
// resulting rows. It returns the number of solutions written.
func (e *Engine) IngestCheckpoint(ctx context.Context, cp *chunk.ParsedCheckpoint, sessionIndex int) (int, error) {
	chunks := chunk.ParseSolutionChunks(cp, sessionIndex)
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.EmbeddingText
	}
	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed solution chunks: %w", err)
	}

	rows := make([]*store.SolutionRow, len(chunks))
	for i, c := range chunks {
		rows[i] = &store.SolutionRow{
			ID:            c.ID,
			CheckpointID:  c.CheckpointID,
			SessionIndex:  c.SessionIndex,
			Prompt:        c.Prompt,
			Response:      c.Response,
			DiffSummary:   c.DiffSummary,
			EmbeddingText: c.EmbeddingText,
			Summary:       c.Summary,
			Agent:         c.Agent,
			Timestamp:     c.Timestamp,
			FilesChanged:  c.FilesChanged,
			TokensUsed:    c.TokensUsed,
			Symbols:       c.Symbols,
			Language:      c.Language,
			Confidence:    c.Confidence,
			Source:        c.Source,
			Vector:        vectors[i],
		}
	}

	if err := e.st.AddSolutions(ctx, rows); err != nil {
		return 0, fmt.Errorf("store solution chunks: %w", err)
	}
	return len(rows), nil
}
