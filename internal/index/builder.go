package index

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/docdex/docdex/internal/corpus"
	"github.com/docdex/docdex/internal/normalize"
)

// Builder consumes fragments and produces an inverted index with
// per-fragment statistics. Given the same fragment sequence the
// resulting index is reproducible modulo the build timestamp.
type Builder struct {
	logger *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates an index builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build normalizes every fragment, accumulates term frequencies into
// posting lists, and records fragment lengths and global statistics.
// The checksum stamps the corpus version the index was built from.
//
// An empty fragment slice produces a valid index with N=0.
// Cancellation is checked between fragments.
func (b *Builder) Build(ctx context.Context, fragments []corpus.Fragment, checksum string) (*Index, error) {
	start := time.Now()

	idx := &Index{
		FormatVersion: FormatVersion,
		Checksum:      checksum,
		BuiltAt:       start.UTC(),
		N:             len(fragments),
		Fragments:     make(map[string]FragmentInfo, len(fragments)),
		Postings:      make(map[string][]Posting, len(fragments)*8),
	}

	totalTokens := 0
	for _, f := range fragments {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		terms := normalize.Normalize(f.Text)
		totalTokens += len(terms)
		idx.Fragments[f.ID] = newFragmentInfo(f, len(terms))

		for term, freq := range normalize.TermFrequencies(terms) {
			idx.Postings[term] = append(idx.Postings[term], Posting{
				FragmentID: f.ID,
				TermFreq:   freq,
			})
		}
	}

	if idx.N > 0 {
		idx.AvgDocLen = float64(totalTokens) / float64(idx.N)
	}

	// Sorted posting lists keep serialization byte-stable and make
	// tie-breaking by fragment id cheap at query time.
	for term := range idx.Postings {
		postings := idx.Postings[term]
		sort.Slice(postings, func(i, j int) bool {
			return postings[i].FragmentID < postings[j].FragmentID
		})
	}

	b.logger.Info("index_built",
		slog.Int("fragments", idx.N),
		slog.Int("terms", len(idx.Postings)),
		slog.Float64("avg_doc_len", idx.AvgDocLen),
		slog.String("checksum", checksum),
		slog.Duration("duration", time.Since(start)))

	return idx, nil
}
