// Package retrieval is the public entry point of the retrieval engine.
//
// Each call checks corpus staleness, rebuilds and persists the index
// when needed, scores the query, and formats results. The retriever
// is an explicitly owned handle: callers construct their own instance
// instead of sharing package-level state.
package retrieval

import (
	"context"
	"errors"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/corpus"
	derrors "github.com/docdex/docdex/internal/errors"
	"github.com/docdex/docdex/internal/index"
	"github.com/docdex/docdex/internal/normalize"
	"github.com/docdex/docdex/internal/search"
	"github.com/docdex/docdex/internal/store"
)

// ResultItem is one ranked retrieval result.
type ResultItem struct {
	FragmentID string  `json:"fragment_id"`
	Title      string  `json:"title"`
	Excerpt    string  `json:"text_excerpt"`
	Score      float64 `json:"score"`
}

// Response carries the ranked results and their formatted rendering.
type Response struct {
	Query     string
	Checksum  string
	Results   []ResultItem
	Formatted string
}

// IndexInfo summarizes the served index for status reporting.
type IndexInfo struct {
	Checksum      string  `json:"checksum"`
	FragmentCount int     `json:"fragment_count"`
	TermCount     int     `json:"term_count"`
	AvgDocLen     float64 `json:"avg_doc_len"`
	BuiltAt       string  `json:"built_at"`
}

// Retriever combines staleness detection, rebuild-on-demand, query
// execution, and output formatting. Safe for concurrent use.
type Retriever struct {
	cfg     *config.Config
	loader  *corpus.Loader
	builder *index.Builder
	store   *store.Store
	engine  *search.Engine
	lock    *store.RebuildLock
	logger  *slog.Logger

	// snapshots caches loaded indexes keyed by corpus checksum so
	// repeat queries against an unchanged corpus skip disk reads.
	snapshots *lru.Cache[string, *index.Index]

	// rebuilds collapses concurrent stale detections into one rebuild.
	rebuilds singleflight.Group
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) { r.logger = logger }
}

// New creates a retriever from configuration.
func New(cfg *config.Config, opts ...Option) (*Retriever, error) {
	if cfg == nil {
		return nil, derrors.ValidationError("config is required", nil)
	}

	snapshots, err := lru.New[string, *index.Index](cfg.Search.SnapshotCacheSize)
	if err != nil {
		return nil, derrors.InternalError("cannot create snapshot cache", err)
	}

	r := &Retriever{
		cfg: cfg,
		loader: corpus.NewLoader(
			corpus.WithSeparator(cfg.Corpus.Separator),
			corpus.WithExtensions(cfg.Corpus.Extensions),
		),
		builder:   index.NewBuilder(),
		store:     store.NewStore(cfg.Index.Path),
		engine:    search.NewEngine(search.WithK1(cfg.Search.K1), search.WithB(cfg.Search.B)),
		lock:      store.NewRebuildLock(cfg.Index.LockPath),
		logger:    slog.Default(),
		snapshots: snapshots,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Retrieve answers a top-k relevance query. topK values below 1 fall
// back to the configured default; values above the configured maximum
// are clamped. When structured is set, the formatted output is the
// tag-delimited machine-parseable form, re-parsed defensively before
// being returned.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, structured bool) (*Response, error) {
	if topK < 1 {
		topK = r.cfg.Search.DefaultTopK
	}
	if topK > r.cfg.Search.MaxTopK {
		topK = r.cfg.Search.MaxTopK
	}

	idx, err := r.currentIndex(ctx)
	if err != nil {
		r.logger.Warn("retrieve_failed",
			slog.String("category", string(derrors.GetCategory(err))),
			slog.String("code", derrors.GetCode(err)),
			slog.String("error", err.Error()))
		return nil, err
	}

	terms := normalize.Normalize(query)
	scored := r.engine.Score(idx, terms, topK)

	items := make([]ResultItem, 0, len(scored))
	for _, res := range scored {
		frag, ok := idx.Fragment(res.FragmentID)
		if !ok {
			// Validate() on load rules this out.
			return nil, derrors.InternalError("scored fragment missing from index: "+res.FragmentID, nil)
		}
		items = append(items, ResultItem{
			FragmentID: frag.ID,
			Title:      frag.Title,
			Excerpt:    excerpt(frag.Text, r.cfg.Search.ExcerptLength),
			Score:      res.Score,
		})
	}

	resp := &Response{
		Query:    query,
		Checksum: idx.Checksum,
		Results:  items,
	}

	if structured {
		formatted := FormatStructured(items)
		parsed, err := ParseStructured(formatted)
		if err != nil {
			return nil, derrors.MalformedOutputError("structured output failed to parse back", err)
		}
		if len(parsed) != len(items) {
			return nil, derrors.MalformedOutputError("structured output lost results in round-trip", nil)
		}
		resp.Formatted = formatted
	} else {
		resp.Formatted = FormatPlain(items)
	}

	return resp, nil
}

// Info reports statistics about the currently served index, loading
// or rebuilding it first if necessary.
func (r *Retriever) Info(ctx context.Context) (*IndexInfo, error) {
	idx, err := r.currentIndex(ctx)
	if err != nil {
		return nil, err
	}
	return &IndexInfo{
		Checksum:      idx.Checksum,
		FragmentCount: idx.N,
		TermCount:     len(idx.Postings),
		AvgDocLen:     idx.AvgDocLen,
		BuiltAt:       idx.BuiltAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

// Rebuild forces a rebuild regardless of staleness and persists the
// result. Used by the index command and the corpus watcher.
func (r *Retriever) Rebuild(ctx context.Context) (*IndexInfo, error) {
	checksum, err := r.loader.Checksum(ctx, r.cfg.Corpus.Root)
	if err != nil {
		return nil, derrors.IndexUnavailableError("corpus checksum failed", err)
	}
	idx, err := r.rebuild(ctx, checksum)
	if err != nil {
		return nil, err
	}
	return &IndexInfo{
		Checksum:      idx.Checksum,
		FragmentCount: idx.N,
		TermCount:     len(idx.Postings),
		AvgDocLen:     idx.AvgDocLen,
		BuiltAt:       idx.BuiltAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

// currentIndex returns an index matching the current corpus checksum,
// loading it from disk or rebuilding as needed. Concurrent callers
// detecting the same stale checksum share a single rebuild.
func (r *Retriever) currentIndex(ctx context.Context) (*index.Index, error) {
	checksum, err := r.loader.Checksum(ctx, r.cfg.Corpus.Root)
	if err != nil {
		if de, ok := err.(*derrors.DocdexError); ok && de.Category == derrors.CategoryCorpus {
			return nil, derrors.IndexUnavailableError("corpus unavailable", err)
		}
		return nil, derrors.IndexUnavailableError("corpus checksum failed", err)
	}

	if idx, ok := r.snapshots.Get(checksum); ok {
		return idx, nil
	}

	v, err, _ := r.rebuilds.Do(checksum, func() (interface{}, error) {
		// Another goroutine may have populated the cache while this
		// one waited on the flight group.
		if idx, ok := r.snapshots.Get(checksum); ok {
			return idx, nil
		}

		idx, err := r.store.Load()
		if err == nil && !r.store.IsStale(idx, checksum) {
			r.snapshots.Add(checksum, idx)
			return idx, nil
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, derrors.IndexUnavailableError("index load failed", err)
		}

		if err == nil {
			r.logger.Info("corpus_checksum_mismatch",
				slog.String("stored", idx.Checksum),
				slog.String("current", checksum))
		}

		return r.rebuild(ctx, checksum)
	})
	if err != nil {
		return nil, err
	}
	return v.(*index.Index), nil
}

// rebuild loads the corpus, builds a fresh index, persists it, and
// caches the snapshot. The rebuild lock is best effort: when another
// process holds it, this process checks whether that rebuild already
// landed before doing its own.
func (r *Retriever) rebuild(ctx context.Context, checksum string) (*index.Index, error) {
	acquired, lockErr := r.lock.TryLock()
	if lockErr == nil && acquired {
		defer func() { _ = r.lock.Unlock() }()
	} else if lockErr == nil && !acquired {
		// A concurrent writer is rebuilding. Its atomic rename may
		// already have landed a fresh index.
		if idx, err := r.store.Load(); err == nil && !r.store.IsStale(idx, checksum) {
			r.snapshots.Add(checksum, idx)
			return idx, nil
		}
	}

	fragments, err := r.loader.Load(ctx, r.cfg.Corpus.Root)
	if err != nil {
		return nil, derrors.IndexUnavailableError("corpus load failed", err)
	}

	idx, err := r.builder.Build(ctx, fragments, checksum)
	if err != nil {
		return nil, derrors.IndexUnavailableError("index build failed", err)
	}

	if err := r.store.Save(idx); err != nil {
		// The in-memory index is still correct; persistence will be
		// retried on the next rebuild.
		r.logger.Warn("index_persist_failed", slog.String("error", err.Error()))
	}

	r.snapshots.Add(checksum, idx)
	r.logger.Info("index_rebuilt",
		slog.String("checksum", checksum),
		slog.Int("fragments", idx.N))

	return idx, nil
}

// excerpt truncates text to at most maxRunes runes.
func excerpt(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}
