// Package normalize turns raw documentation text into index terms.
//
// The pipeline is: lowercase alphanumeric tokenization, short-token
// filtering, English stopword removal, Porter stemming. Queries and
// documents go through the same pipeline so their terms agree.
package normalize

import (
	"regexp"
	"strings"

	"github.com/bbalet/stopwords"
	"github.com/blevesearch/go-porterstemmer"
)

// tokenRegex matches alphanumeric runs. Punctuation and other
// non-alphanumeric characters act as boundaries, so "3.12" splits
// into "3" and "12" while "404" survives whole.
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// minTokenLen filters out single-character noise tokens.
const minTokenLen = 2

// Normalize converts text into an ordered sequence of stemmed terms.
// It is deterministic and stateless: the same input always yields the
// same sequence. Empty or all-stopword input yields an empty slice.
func Normalize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	words := tokenRegex.FindAllString(text, -1)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		lower := strings.ToLower(w)
		if len(lower) < minTokenLen || isStopword(lower) {
			continue
		}
		terms = append(terms, porterstemmer.StemString(lower))
	}

	return terms
}

// isStopword reports whether a lowercased token is an English stop
// word. Tokenization happens before this check so numeric tokens are
// never lost to the library's letter-only word segmenter; tokens
// containing digits are never stop words.
func isStopword(token string) bool {
	for _, r := range token {
		if r >= '0' && r <= '9' {
			return false
		}
	}
	return strings.TrimSpace(stopwords.CleanString(token, "en", false)) == ""
}

// TermFrequencies counts occurrences of each term in the sequence.
func TermFrequencies(terms []string) map[string]int {
	freqs := make(map[string]int, len(terms))
	for _, t := range terms {
		freqs[t]++
	}
	return freqs
}
