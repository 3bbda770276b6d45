package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with args against a fresh root command and
// returns captured stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")

	out, err = execute(t, "version", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "docdex dev")
}

func TestIndexCmd_BuildsAndPersists(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"guide.md": "# Agents\nAgents call tools.\n---\n# Workflows\nWorkflows chain agents.",
	})

	out, err := execute(t, "index", "--corpus", root)
	require.NoError(t, err)

	assert.Contains(t, out, "Indexed 2 fragments")
	assert.Contains(t, out, "Corpus checksum:")
	assert.FileExists(t, filepath.Join(root, ".docdex", "index.json"))
}

func TestSearchCmd_PrintsRankedFragments(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"guide.md": "# Agents\nAgents call tools.\n---\n# Workflows\nWorkflows chain agents together.",
	})

	out, err := execute(t, "search", "workflow chaining", "--corpus", root)
	require.NoError(t, err)

	assert.Contains(t, out, "Rank 1:")
	assert.Contains(t, out, "guide.md#1")
}

func TestSearchCmd_JSONFormat(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"guide.md": "# Agents\nAgents call tools.",
	})

	out, err := execute(t, "search", "agent tools", "--corpus", root, "--format", "json")
	require.NoError(t, err)

	assert.Contains(t, out, `"fragment_id": "guide.md#0"`)
	assert.Contains(t, out, `"score"`)
}

func TestSearchCmd_UnknownFormatFails(t *testing.T) {
	root := writeCorpus(t, map[string]string{"a.md": "alpha"})

	_, err := execute(t, "search", "alpha", "--corpus", root, "--format", "xml")
	assert.Error(t, err)
}

func TestSearchCmd_NoMatches(t *testing.T) {
	root := writeCorpus(t, map[string]string{"a.md": "alpha beta"})

	out, err := execute(t, "search", "quasar", "--corpus", root)
	require.NoError(t, err)
	assert.Contains(t, out, "No matching fragments.")
}

func TestStatusCmd_ReportsIndex(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"a.md": "alpha beta\n---\ngamma delta",
	})

	out, err := execute(t, "status", "--corpus", root)
	require.NoError(t, err)

	assert.Contains(t, out, "Fragments:  2")
	assert.Contains(t, out, "Checksum:")
}

func TestStatusCmd_JSON(t *testing.T) {
	root := writeCorpus(t, map[string]string{"a.md": "alpha"})

	out, err := execute(t, "status", "--corpus", root, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"fragment_count": 1`)
}

func TestInitCmd_WritesConfig(t *testing.T) {
	root := t.TempDir()

	out, err := execute(t, "init", "--corpus", root)
	require.NoError(t, err)

	assert.Contains(t, out, ".docdex.yaml")
	assert.FileExists(t, filepath.Join(root, ".docdex.yaml"))

	// A second init without --force refuses to overwrite.
	_, err = execute(t, "init", "--corpus", root)
	assert.Error(t, err)

	_, err = execute(t, "init", "--corpus", root, "--force")
	assert.NoError(t, err)
}

func TestIndexCmd_MissingCorpusFails(t *testing.T) {
	root := t.TempDir()

	_, err := execute(t, "index", "--corpus", filepath.Join(root, "missing"))
	assert.Error(t, err)
}
