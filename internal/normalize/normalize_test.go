package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_EmptyInput(t *testing.T) {
	assert.Empty(t, Normalize(""))
	assert.Empty(t, Normalize("   \n\t  "))
}

func TestNormalize_LowercasesAndStems(t *testing.T) {
	terms := Normalize("Running Runs RUNNER")

	// Porter reduces run-forms to a shared stem prefix.
	for _, term := range terms {
		assert.Contains(t, term, "run")
	}
	assert.NotEmpty(t, terms)
}

func TestNormalize_StripsPunctuation(t *testing.T) {
	terms := Normalize("workflow, workflow; workflow!")

	assert.Len(t, terms, 3)
	assert.Equal(t, terms[0], terms[1])
	assert.Equal(t, terms[1], terms[2])
}

func TestNormalize_RemovesStopwords(t *testing.T) {
	terms := Normalize("the index of the corpus")

	for _, term := range terms {
		assert.NotEqual(t, "the", term)
		assert.NotEqual(t, "of", term)
	}
	assert.NotEmpty(t, terms)
}

func TestNormalize_KeepsNumericTokens(t *testing.T) {
	terms := Normalize("error 404 handling")
	assert.Contains(t, terms, "404")
	assert.Contains(t, terms, "error")

	// Dotted numbers split at the punctuation boundary.
	terms = Normalize("python 3.12 release notes")
	assert.Contains(t, terms, "12")
	assert.NotContains(t, terms, "3.12")

	terms = Normalize("http2 server push")
	assert.Contains(t, terms, "http2")
}

func TestNormalize_DropsShortTokens(t *testing.T) {
	terms := Normalize("x y indexing")

	for _, term := range terms {
		assert.GreaterOrEqual(t, len(term), 2)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	input := "BM25 ranking over documentation fragments with stemming"

	first := Normalize(input)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Normalize(input))
	}
}

func TestNormalize_QueryAndDocumentAgree(t *testing.T) {
	doc := Normalize("Configuring retrieval pipelines")
	query := Normalize("retrieval pipeline configuration")

	// Stemmed forms must overlap for matching to work.
	docSet := make(map[string]struct{}, len(doc))
	for _, term := range doc {
		docSet[term] = struct{}{}
	}
	overlap := 0
	for _, term := range query {
		if _, ok := docSet[term]; ok {
			overlap++
		}
	}
	assert.Greater(t, overlap, 0)
}

func TestTermFrequencies(t *testing.T) {
	freqs := TermFrequencies([]string{"beta", "beta", "gamma"})

	assert.Equal(t, 2, freqs["beta"])
	assert.Equal(t, 1, freqs["gamma"])
	assert.Len(t, freqs, 2)
}
