package engine

import (
	"context"
	"fmt"

	"github.com/yepmem/core/internal/graph"
	"github.com/yepmem/core/internal/store"
)

// buildGraph rebuilds the call/import graph from the current
// code_symbols table. Point queries rebuild per call rather than
// reusing a cached *graph.Graph: only the PageRank scores it feeds are
// TTL-cached, via e.pageRank.
func (e *Engine) buildGraph(ctx context.Context) (*graph.Graph, error) {
	g, err := graph.Build(ctx, e.st)
	if err != nil {
		return nil, fmt.Errorf("build call graph: %w", err)
	}
	return g, nil
}

// FindCallers returns symbols that call name.
func (e *Engine) FindCallers(ctx context.Context, name string) ([]*store.CodeSymbolRow, error) {
	g, err := e.buildGraph(ctx)
	if err != nil {
		return nil, err
	}
	return g.FindCallers(ctx, name)
}

// FindCallees returns symbols that name calls.
func (e *Engine) FindCallees(ctx context.Context, name string) ([]*store.CodeSymbolRow, error) {
	g, err := e.buildGraph(ctx)
	if err != nil {
		return nil, err
	}
	return g.FindCallees(ctx, name)
}

// FindImporters returns symbols whose imports list contains name.
func (e *Engine) FindImporters(ctx context.Context, name string) ([]*store.CodeSymbolRow, error) {
	g, err := e.buildGraph(ctx)
	if err != nil {
		return nil, err
	}
	return g.FindImporters(ctx, name)
}

// FindSymbolByName returns the exact-match symbol row, or nil if none.
func (e *Engine) FindSymbolByName(ctx context.Context, name string) (*store.CodeSymbolRow, error) {
	g, err := e.buildGraph(ctx)
	if err != nil {
		return nil, err
	}
	return g.FindSymbolByName(ctx, name)
}

// FindSymbolsByPrefix returns symbols whose name starts with prefix.
func (e *Engine) FindSymbolsByPrefix(ctx context.Context, prefix string) ([]*store.CodeSymbolRow, error) {
	g, err := e.buildGraph(ctx)
	if err != nil {
		return nil, err
	}
	return g.FindSymbolsByPrefix(ctx, prefix)
}

// FindSymbolsByPath returns every symbol indexed from path.
func (e *Engine) FindSymbolsByPath(ctx context.Context, path string) ([]*store.CodeSymbolRow, error) {
	g, err := e.buildGraph(ctx)
	if err != nil {
		return nil, err
	}
	return g.FindSymbolsByPath(ctx, path)
}
