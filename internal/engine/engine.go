// Package engine wires every collaborator in this module — storage,
// retrieval, ranking, graph analytics, insights, recommendations,
// snapshots, risk, and co-change mining — behind the single Engine type
// that a CLI or UI collaborator drives. Engine owns no presentation
// logic: it returns typed data and internal/errors.CoreError values,
// leaving formatting to its caller.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yepmem/core/internal/cochange"
	"github.com/yepmem/core/internal/config"
	coreerrors "github.com/yepmem/core/internal/errors"
	"github.com/yepmem/core/internal/embed"
	"github.com/yepmem/core/internal/graph"
	"github.com/yepmem/core/internal/index"
	"github.com/yepmem/core/internal/insight"
	"github.com/yepmem/core/internal/logging"
	"github.com/yepmem/core/internal/rank"
	"github.com/yepmem/core/internal/recommend"
	"github.com/yepmem/core/internal/retrieve"
	"github.com/yepmem/core/internal/snapshot"
	"github.com/yepmem/core/internal/store"
)

// Engine is the core's single public entry point. A zero value is not
// usable; build one with Open.
type Engine struct {
	cfg      *config.Config
	repoRoot string
	log      *slog.Logger

	st       *store.Store
	embedder embed.Embedder

	retrieval *retrieve.Engine
	ranker    *rank.Ranker
	pageRank  *graph.PageRankCache
	insights  *insight.Engine
	recommend *recommend.RuleBasedRecommender
	snapshots *snapshot.Store
	indexer   *index.Indexer

	now func() time.Time
}

// Open creates-if-absent the .yep-mem store rooted at repoRoot and
// wires every collaborator over it. cfg may be nil, in which case
// config.Load(repoRoot) supplies defaults plus any .yepmem.yaml found
// in repoRoot.
func Open(repoRoot string, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		loaded, err := config.Load(repoRoot)
		if err != nil {
			return nil, coreerrors.New(coreerrors.CodeNotInitialized, "load configuration", err)
		}
		cfg = loaded
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel})

	ctx := context.Background()
	embedder, err := embed.NewEmbedder(ctx, embed.ParseProvider(cfg.Embeddings.Provider), cfg.Embeddings.Model)
	if err != nil {
		return nil, coreerrors.ProviderError("create embedder", err)
	}

	dims := cfg.Embeddings.Dimensions
	if dims <= 0 {
		dims = embedder.Dimensions()
	}
	st, err := store.Open(repoRoot, dims)
	if err != nil {
		return nil, coreerrors.StoreError("open store", err)
	}

	retrieval := retrieve.NewEngine(st, log)
	insights := insight.NewEngine(st, nil)
	recommender := recommend.NewRuleBasedRecommender(insights)
	pageRank := graph.NewPageRankCache(func() map[string]float64 {
		g, buildErr := graph.Build(context.Background(), st)
		if buildErr != nil {
			log.Warn("engine: rebuild graph for pagerank failed", "error", buildErr)
			return nil
		}
		return graph.ComputePageRank(g.Edges())
	})
	ranker := rank.NewRanker(pageRank)
	snapshots := snapshot.NewStore(st)

	indexer, err := index.New(st, repoRoot, embedder, insights, pageRank, recommender)
	if err != nil {
		_ = st.Close()
		return nil, coreerrors.InternalError("build indexer", err)
	}

	return &Engine{
		cfg:       cfg,
		repoRoot:  repoRoot,
		log:       log,
		st:        st,
		embedder:  embedder,
		retrieval: retrieval,
		ranker:    ranker,
		pageRank:  pageRank,
		insights:  insights,
		recommend: recommender,
		snapshots: snapshots,
		indexer:   indexer,
		now:       time.Now,
	}, nil
}

// Close releases every collaborator holding a file handle (sqlite,
// hnsw, bleve, the sync lock).
func (e *Engine) Close() error {
	if e.embedder != nil {
		if err := e.embedder.Close(); err != nil {
			e.log.Warn("engine: close embedder failed", "error", err)
		}
	}
	if err := e.st.Close(); err != nil {
		return coreerrors.StoreError("close store", err)
	}
	return nil
}

// RunCodeIndex walks the repository, parses and chunks every supported
// source file, embeds and upserts the result, and captures a metrics
// snapshot, all through internal/index.Indexer.
func (e *Engine) RunCodeIndex(ctx context.Context) (*index.Result, error) {
	result, err := e.indexer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run code index: %w", err)
	}
	return result, nil
}

// Recommendations returns the current rule-based recommendation list.
func (e *Engine) Recommendations(ctx context.Context) ([]recommend.Recommendation, error) {
	recs, err := e.recommend.Recommend(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute recommendations: %w", err)
	}
	return recs, nil
}

// AnalyzeCoChange mines the repository's commit history (back to
// daysBack days ago) for file pairs that tend to change together.
// minSupport and minConfidence of 0 fall back to
// internal/cochange's own defaults.
func (e *Engine) AnalyzeCoChange(ctx context.Context, daysBack int, minSupport, minConfidence float64) ([]cochange.Pair, error) {
	if daysBack <= 0 {
		daysBack = 180
	}
	miner, err := cochange.Open(e.repoRoot)
	if err != nil {
		return nil, fmt.Errorf("open repository for co-change mining: %w", err)
	}
	since := e.now().AddDate(0, 0, -daysBack)
	pairs, err := miner.Mine(ctx, since, minSupport, minConfidence)
	if err != nil {
		return nil, fmt.Errorf("mine co-change pairs: %w", err)
	}
	return pairs, nil
}
