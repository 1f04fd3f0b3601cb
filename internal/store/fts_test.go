package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFTSIndex(t *testing.T) *BleveFTSIndex {
	t.Helper()
	idx, err := NewBleveFTSIndex("", DefaultFTSConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestBleveFTSIndexAndSearch(t *testing.T) {
	idx := newTestFTSIndex(t)
	ctx := context.Background()

	err := idx.Index(ctx, []*Document{
		{ID: "a", Content: "function getUserByID fetches a user record"},
		{ID: "b", Content: "function listWidgets returns all widgets"},
	})
	require.NoError(t, err)

	results, err := idx.Search(ctx, "user", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].DocID)
}

func TestBleveFTSIndexCamelCaseTokenization(t *testing.T) {
	idx := newTestFTSIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, []*Document{
		{ID: "a", Content: "getUserByID"},
	}))

	results, err := idx.Search(ctx, "user", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestBleveFTSIndexDelete(t *testing.T) {
	idx := newTestFTSIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, []*Document{{ID: "a", Content: "widget factory"}}))
	require.NoError(t, idx.Delete(ctx, []string{"a"}))

	results, err := idx.Search(ctx, "widget", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBleveFTSIndexEmptyQuery(t *testing.T) {
	idx := newTestFTSIndex(t)
	results, err := idx.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBleveFTSIndexAllIDs(t *testing.T) {
	idx := newTestFTSIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, []*Document{
		{ID: "a", Content: "one"},
		{ID: "b", Content: "two"},
	}))

	ids, err := idx.AllIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestBleveFTSIndexStats(t *testing.T) {
	idx := newTestFTSIndex(t)
	require.NoError(t, idx.Index(context.Background(), []*Document{{ID: "a", Content: "one"}}))
	assert.Equal(t, 1, idx.Stats().DocumentCount)
}

func TestBleveFTSIndexStopWordsFiltered(t *testing.T) {
	idx := newTestFTSIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Index(ctx, []*Document{{ID: "a", Content: "const result = getValue()"}}))

	results, err := idx.Search(ctx, "const", 10)
	require.NoError(t, err)
	assert.Empty(t, results, "stop words should not be indexed as searchable terms")
}
