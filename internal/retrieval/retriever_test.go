package retrieval

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdex/docdex/internal/config"
	derrors "github.com/docdex/docdex/internal/errors"
)

func newTestRetriever(t *testing.T, files map[string]string) (*Retriever, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cfg, err := config.Load(root)
	require.NoError(t, err)

	r, err := New(cfg)
	require.NoError(t, err)
	return r, root
}

func threeFragmentCorpus() map[string]string {
	return map[string]string{
		"docs.md": "alpha beta\n---\nbeta beta gamma\n---\ngamma delta",
	}
}

func TestRetrieve_RanksByRelevance(t *testing.T) {
	r, _ := newTestRetriever(t, threeFragmentCorpus())

	resp, err := r.Retrieve(context.Background(), "beta", 2, false)
	require.NoError(t, err)

	// F2 (beta twice) above F1; F3 excluded for lack of overlap.
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "docs.md#1", resp.Results[0].FragmentID)
	assert.Equal(t, "docs.md#0", resp.Results[1].FragmentID)
}

func TestRetrieve_Deterministic(t *testing.T) {
	r, _ := newTestRetriever(t, threeFragmentCorpus())
	ctx := context.Background()

	first, err := r.Retrieve(ctx, "beta gamma", 5, false)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		resp, err := r.Retrieve(ctx, "beta gamma", 5, false)
		require.NoError(t, err)
		assert.Equal(t, first.Results, resp.Results)
		assert.Equal(t, first.Formatted, resp.Formatted)
	}
}

func TestRetrieve_EmptyQueryYieldsEmptyList(t *testing.T) {
	r, _ := newTestRetriever(t, threeFragmentCorpus())

	resp, err := r.Retrieve(context.Background(), "", 5, false)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)

	// Stopword-only queries normalize to nothing as well.
	resp, err = r.Retrieve(context.Background(), "the of and", 5, false)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestRetrieve_TopKDefaultsAndClamping(t *testing.T) {
	r, _ := newTestRetriever(t, threeFragmentCorpus())
	ctx := context.Background()

	// topK < 1 falls back to the configured default.
	resp, err := r.Retrieve(ctx, "beta", 0, false)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(resp.Results), r.cfg.Search.DefaultTopK)

	// Oversized topK is clamped, never padded.
	resp, err = r.Retrieve(ctx, "beta", 10_000, false)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestRetrieve_PersistsIndexAndReuses(t *testing.T) {
	r, root := newTestRetriever(t, threeFragmentCorpus())

	_, err := r.Retrieve(context.Background(), "beta", 2, false)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(root, ".docdex", "index.json"))
	assert.NoError(t, statErr)
}

func TestRetrieve_RebuildsWhenCorpusChanges(t *testing.T) {
	r, root := newTestRetriever(t, threeFragmentCorpus())
	ctx := context.Background()

	resp, err := r.Retrieve(ctx, "epsilon", 5, false)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)

	// Change the corpus between calls; no restart required.
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs.md"),
		[]byte("alpha beta\n---\nepsilon zeta"), 0o644))

	resp, err = r.Retrieve(ctx, "epsilon", 5, false)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "docs.md#1", resp.Results[0].FragmentID)
}

func TestRetrieve_TransparentlyRebuildsCorruptIndex(t *testing.T) {
	r, root := newTestRetriever(t, threeFragmentCorpus())
	ctx := context.Background()

	_, err := r.Retrieve(ctx, "beta", 2, false)
	require.NoError(t, err)

	// Corrupt the persisted index and drop the in-memory snapshot.
	indexPath := filepath.Join(root, ".docdex", "index.json")
	require.NoError(t, os.WriteFile(indexPath, []byte("{garbage"), 0o644))
	r.snapshots.Purge()

	resp, err := r.Retrieve(ctx, "beta", 2, false)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "docs.md#1", resp.Results[0].FragmentID)
}

func TestRetrieve_MissingCorpusIsIndexUnavailable(t *testing.T) {
	root := t.TempDir()
	cfg, err := config.Load(root)
	require.NoError(t, err)
	cfg.Corpus.Root = filepath.Join(root, "missing")
	cfg.Index.Path = filepath.Join(root, ".docdex", "index.json")

	r, err := New(cfg)
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "beta", 2, false)
	require.Error(t, err)
	assert.Equal(t, derrors.ErrCodeIndexUnavailable, derrors.GetCode(err))
}

func TestRetrieve_FailureLogsErrorCategory(t *testing.T) {
	root := t.TempDir()
	cfg, err := config.Load(root)
	require.NoError(t, err)
	cfg.Corpus.Root = filepath.Join(root, "missing")

	var buf bytes.Buffer
	r, err := New(cfg, WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "beta", 2, false)
	require.Error(t, err)

	assert.Contains(t, buf.String(), "retrieve_failed")
	assert.Contains(t, buf.String(), `"category":"INDEX"`)
	assert.Contains(t, buf.String(), derrors.ErrCodeIndexUnavailable)
}

func TestRetrieve_EmptyCorpusIsIndexUnavailable(t *testing.T) {
	r, _ := newTestRetriever(t, map[string]string{"empty.md": "   "})

	_, err := r.Retrieve(context.Background(), "anything", 2, false)
	require.Error(t, err)
	assert.Equal(t, derrors.ErrCodeIndexUnavailable, derrors.GetCode(err))
}

func TestRetrieve_StructuredOutputRoundTrips(t *testing.T) {
	r, _ := newTestRetriever(t, threeFragmentCorpus())

	resp, err := r.Retrieve(context.Background(), "beta", 2, true)
	require.NoError(t, err)

	parsed, err := ParseStructured(resp.Formatted)
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, resp.Results[0].FragmentID, parsed[0].FragmentID)
	assert.InDelta(t, resp.Results[0].Score, parsed[0].Score, 1e-6)
}

func TestRetrieve_ConcurrentCallersShareOneIndex(t *testing.T) {
	r, _ := newTestRetriever(t, threeFragmentCorpus())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := r.Retrieve(ctx, "beta", 2, false)
			if err != nil {
				errs <- err
				return
			}
			if len(resp.Results) != 2 {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestInfo_ReportsIndexStatistics(t *testing.T) {
	r, _ := newTestRetriever(t, threeFragmentCorpus())

	info, err := r.Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, info.FragmentCount)
	assert.Greater(t, info.TermCount, 0)
	assert.Greater(t, info.AvgDocLen, 0.0)
	assert.Len(t, info.Checksum, 16)
	assert.NotEmpty(t, info.BuiltAt)
}

func TestRebuild_IdempotentPostingsAndStats(t *testing.T) {
	r, _ := newTestRetriever(t, threeFragmentCorpus())
	ctx := context.Background()

	first, err := r.Rebuild(ctx)
	require.NoError(t, err)
	second, err := r.Rebuild(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Checksum, second.Checksum)
	assert.Equal(t, first.FragmentCount, second.FragmentCount)
	assert.Equal(t, first.TermCount, second.TermCount)
	assert.Equal(t, first.AvgDocLen, second.AvgDocLen)
}
