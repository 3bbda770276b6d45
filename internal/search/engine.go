// Package search scores query terms against the inverted index with
// BM25 and returns ranked top-k results.
package search

import (
	"math"
	"sort"

	"github.com/docdex/docdex/internal/index"
)

// Default BM25 parameters.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// Result is one scored fragment.
type Result struct {
	FragmentID string
	Score      float64
}

// Engine computes BM25 relevance scores. Scoring is read-only on the
// index, so one engine may serve concurrent queries against a shared
// loaded index.
type Engine struct {
	k1 float64
	b  float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithK1 sets the term-frequency saturation parameter.
func WithK1(k1 float64) Option {
	return func(e *Engine) { e.k1 = k1 }
}

// WithB sets the length-normalization parameter.
func WithB(b float64) Option {
	return func(e *Engine) { e.b = b }
}

// NewEngine creates a scoring engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{k1: DefaultK1, b: DefaultB}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score ranks fragments against the query terms and returns at most
// topK results. Evaluation is sparse: only fragments sharing at least
// one query term are scored; non-matching fragments are excluded, not
// ranked at zero. Ties break by fragment id ascending. An empty term
// list yields an empty result.
func (e *Engine) Score(idx *index.Index, queryTerms []string, topK int) []Result {
	if idx == nil || idx.N == 0 || len(queryTerms) == 0 || topK < 1 {
		return []Result{}
	}

	scores := make(map[string]float64)
	for _, term := range queryTerms {
		postings := idx.Postings[term]
		if len(postings) == 0 {
			continue
		}
		idf := idfFor(idx.N, len(postings))
		for _, p := range postings {
			frag, ok := idx.Fragment(p.FragmentID)
			if !ok {
				continue
			}
			tf := float64(p.TermFreq)
			norm := 1 - e.b + e.b*float64(frag.TokenCount)/idx.AvgDocLen
			scores[p.FragmentID] += idf * (tf * (e.k1 + 1)) / (tf + e.k1*norm)
		}
	}

	if len(scores) == 0 {
		return []Result{}
	}

	results := make([]Result, 0, len(scores))
	for id, score := range scores {
		results = append(results, Result{FragmentID: id, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].FragmentID < results[j].FragmentID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// idfFor computes ln((N - df + 0.5) / (df + 0.5) + 1), which stays
// positive even for terms present in most fragments.
func idfFor(n, df int) float64 {
	return math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)
}
