// Package index builds and models the persistent inverted index.
package index

import (
	"fmt"
	"time"

	"github.com/docdex/docdex/internal/corpus"
)

// FormatVersion is the persisted index layout version. Readers reject
// any other version instead of misreading it.
const FormatVersion = 1

// Posting relates a term to one fragment: the fragment id and the
// term's frequency within that fragment. Fragment ids are unique
// within a posting list.
type Posting struct {
	FragmentID string `json:"fragment_id"`
	TermFreq   int    `json:"term_freq"`
}

// FragmentInfo is the per-fragment record stored in the index: the
// provenance metadata and text needed to serve results, plus the
// token count used for length normalization.
type FragmentInfo struct {
	ID         string `json:"id"`
	SourcePath string `json:"source_path"`
	Title      string `json:"title"`
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
}

// Index is the aggregate of term posting lists plus global statistics.
// It is built once per corpus version, persisted, and loaded read-only
// for scoring; it is discarded and rebuilt wholesale when the corpus
// checksum changes.
type Index struct {
	FormatVersion int       `json:"format_version"`
	Checksum      string    `json:"checksum"`
	BuiltAt       time.Time `json:"built_at"`

	// N is the total fragment count at build time.
	N int `json:"n"`

	// AvgDocLen is the mean fragment token count.
	AvgDocLen float64 `json:"avg_doc_len"`

	// Fragments maps fragment id to its stored record. Doubles as the
	// per-fragment length table.
	Fragments map[string]FragmentInfo `json:"fragments"`

	// Postings maps each stemmed term to its posting list, sorted by
	// fragment id for reproducible serialization. Document frequency
	// for a term is the posting list length.
	Postings map[string][]Posting `json:"postings"`
}

// DocFreq returns the number of fragments containing the term.
func (idx *Index) DocFreq(term string) int {
	return len(idx.Postings[term])
}

// Fragment returns the stored record for a fragment id.
func (idx *Index) Fragment(id string) (FragmentInfo, bool) {
	f, ok := idx.Fragments[id]
	return f, ok
}

// Validate checks index invariants: the declared format version, that
// every fragment id in any posting list exists in the fragment table,
// and that N matches the fragment count used at build time.
func (idx *Index) Validate() error {
	if idx.FormatVersion != FormatVersion {
		return fmt.Errorf("unsupported index format version %d (want %d)",
			idx.FormatVersion, FormatVersion)
	}
	if idx.N != len(idx.Fragments) {
		return fmt.Errorf("fragment count mismatch: N=%d, table has %d",
			idx.N, len(idx.Fragments))
	}
	for term, postings := range idx.Postings {
		seen := make(map[string]struct{}, len(postings))
		for _, p := range postings {
			if _, ok := idx.Fragments[p.FragmentID]; !ok {
				return fmt.Errorf("term %q posting references unknown fragment %q",
					term, p.FragmentID)
			}
			if _, dup := seen[p.FragmentID]; dup {
				return fmt.Errorf("term %q posting list repeats fragment %q",
					term, p.FragmentID)
			}
			seen[p.FragmentID] = struct{}{}
		}
	}
	return nil
}

// newFragmentInfo copies a corpus fragment into its stored form.
func newFragmentInfo(f corpus.Fragment, tokenCount int) FragmentInfo {
	return FragmentInfo{
		ID:         f.ID,
		SourcePath: f.SourcePath,
		Title:      f.Title,
		Text:       f.Text,
		TokenCount: tokenCount,
	}
}
