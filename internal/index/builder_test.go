package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdex/docdex/internal/corpus"
)

func testFragments() []corpus.Fragment {
	return []corpus.Fragment{
		{ID: "docs.md#0", SourcePath: "docs.md", Ordinal: 0, Title: "F1", Text: "alpha beta"},
		{ID: "docs.md#1", SourcePath: "docs.md", Ordinal: 1, Title: "F2", Text: "beta beta gamma"},
		{ID: "docs.md#2", SourcePath: "docs.md", Ordinal: 2, Title: "F3", Text: "gamma delta"},
	}
}

func TestBuild_Statistics(t *testing.T) {
	idx, err := NewBuilder().Build(context.Background(), testFragments(), "cafe0123")
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, idx.FormatVersion)
	assert.Equal(t, "cafe0123", idx.Checksum)
	assert.Equal(t, 3, idx.N)
	// 2 + 3 + 2 tokens across three fragments.
	assert.InDelta(t, 7.0/3.0, idx.AvgDocLen, 1e-9)
	assert.False(t, idx.BuiltAt.IsZero())
}

func TestBuild_PostingLists(t *testing.T) {
	idx, err := NewBuilder().Build(context.Background(), testFragments(), "cs")
	require.NoError(t, err)

	beta := idx.Postings["beta"]
	require.Len(t, beta, 2)
	// Sorted by fragment id.
	assert.Equal(t, "docs.md#0", beta[0].FragmentID)
	assert.Equal(t, 1, beta[0].TermFreq)
	assert.Equal(t, "docs.md#1", beta[1].FragmentID)
	assert.Equal(t, 2, beta[1].TermFreq)

	assert.Equal(t, 2, idx.DocFreq("beta"))
	assert.Equal(t, 2, idx.DocFreq("gamma"))
	assert.Equal(t, 1, idx.DocFreq("delta"))
	assert.Equal(t, 0, idx.DocFreq("epsilon"))
}

func TestBuild_FragmentLengthTable(t *testing.T) {
	idx, err := NewBuilder().Build(context.Background(), testFragments(), "cs")
	require.NoError(t, err)

	f1, ok := idx.Fragment("docs.md#0")
	require.True(t, ok)
	assert.Equal(t, 2, f1.TokenCount)

	f2, ok := idx.Fragment("docs.md#1")
	require.True(t, ok)
	assert.Equal(t, 3, f2.TokenCount)
}

func TestBuild_EmptyCorpusSucceeds(t *testing.T) {
	idx, err := NewBuilder().Build(context.Background(), nil, "empty")
	require.NoError(t, err)

	assert.Equal(t, 0, idx.N)
	assert.Zero(t, idx.AvgDocLen)
	assert.Empty(t, idx.Postings)
	require.NoError(t, idx.Validate())
}

func TestBuild_IdempotentModuloTimestamp(t *testing.T) {
	b := NewBuilder()
	first, err := b.Build(context.Background(), testFragments(), "cs")
	require.NoError(t, err)
	second, err := b.Build(context.Background(), testFragments(), "cs")
	require.NoError(t, err)

	second.BuiltAt = first.BuiltAt
	assert.Equal(t, first, second)
}

func TestBuild_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder().Build(ctx, testFragments(), "cs")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate_CatchesInvariantViolations(t *testing.T) {
	base := func() *Index {
		idx, err := NewBuilder().Build(context.Background(), testFragments(), "cs")
		require.NoError(t, err)
		return idx
	}

	t.Run("valid index passes", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("wrong format version", func(t *testing.T) {
		idx := base()
		idx.FormatVersion = 99
		assert.Error(t, idx.Validate())
	})

	t.Run("N mismatch", func(t *testing.T) {
		idx := base()
		idx.N = 7
		assert.Error(t, idx.Validate())
	})

	t.Run("posting references unknown fragment", func(t *testing.T) {
		idx := base()
		idx.Postings["beta"] = append(idx.Postings["beta"], Posting{FragmentID: "ghost#0", TermFreq: 1})
		assert.Error(t, idx.Validate())
	})

	t.Run("duplicate fragment in posting list", func(t *testing.T) {
		idx := base()
		idx.Postings["beta"] = append(idx.Postings["beta"], idx.Postings["beta"][0])
		assert.Error(t, idx.Validate())
	})
}
