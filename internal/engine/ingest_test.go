package engine

import (
	"context"
	"testing"
	"time"

	"github.com/yepmem/core/internal/chunk"
)

func TestIngestCheckpointWritesSolutions(t *testing.T) {
	e := newTestEngine(t)

	cp := &chunk.ParsedCheckpoint{
		ID:        "chk-1",
		SessionID: "sess-1",
		Agent:     "claude",
		Timestamp: time.Now(),
		Entries: []chunk.TranscriptEntry{
			{Role: "user", Content: "fix the bug in a.go"},
			{Role: "assistant", Content: "updated a.go to fix the Hello function"},
		},
	}

	n, err := e.IngestCheckpoint(context.Background(), cp, 0)
	if err != nil {
		t.Fatalf("ingest checkpoint: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected at least one solution chunk written")
	}

	stats, err := e.GetStats(context.Background())
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if !stats.HasTable || stats.TotalChunks != n {
		t.Fatalf("expected GetStats to report %d chunks, got %+v", n, stats)
	}
}

func TestIngestCheckpointEmptyTranscriptWritesNothing(t *testing.T) {
	e := newTestEngine(t)

	cp := &chunk.ParsedCheckpoint{ID: "chk-2", Agent: "claude", Timestamp: time.Now()}
	n, err := e.IngestCheckpoint(context.Background(), cp, 0)
	if err != nil {
		t.Fatalf("ingest checkpoint: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected zero solutions for an empty transcript, got %d", n)
	}
}
