// Package config loads and validates docdex configuration.
//
// Configuration is resolved in three layers, later layers winning:
//  1. Hardcoded defaults (NewConfig)
//  2. Project config file (.docdex.yaml in the corpus root)
//  3. Environment variables (DOCDEX_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	derrors "github.com/docdex/docdex/internal/errors"
)

// ConfigFileName is the project config file looked up in the corpus root.
const ConfigFileName = ".docdex.yaml"

// CurrentVersion is the config schema version.
const CurrentVersion = 1

// Config is the complete docdex configuration.
type Config struct {
	Version int          `yaml:"version"`
	Corpus  CorpusConfig `yaml:"corpus"`
	Index   IndexConfig  `yaml:"index"`
	Search  SearchConfig `yaml:"search"`
	Server  ServerConfig `yaml:"server"`
}

// CorpusConfig configures where documentation lives and how it segments.
type CorpusConfig struct {
	// Root is the corpus root directory.
	Root string `yaml:"root"`

	// Separator is the explicit fragment boundary within source files.
	Separator string `yaml:"separator"`

	// Extensions are the file extensions read by the loader.
	Extensions []string `yaml:"extensions"`
}

// IndexConfig configures index persistence.
type IndexConfig struct {
	// Path is the persisted index file. Defaults to <root>/.docdex/index.json.
	Path string `yaml:"path"`

	// LockPath is the rebuild lock file. Defaults next to Path.
	LockPath string `yaml:"lock_path"`
}

// SearchConfig configures BM25 scoring and result shaping.
type SearchConfig struct {
	// K1 is the BM25 term-frequency saturation parameter.
	K1 float64 `yaml:"k1"`

	// B is the BM25 length-normalization parameter.
	B float64 `yaml:"b"`

	// DefaultTopK is the result count used when the caller passes none.
	DefaultTopK int `yaml:"default_top_k"`

	// MaxTopK caps the result count for served queries.
	MaxTopK int `yaml:"max_top_k"`

	// SnapshotCacheSize bounds the number of loaded index snapshots
	// kept in memory, keyed by corpus checksum.
	SnapshotCacheSize int `yaml:"snapshot_cache_size"`

	// ExcerptLength is the maximum rune length of result excerpts.
	ExcerptLength int `yaml:"excerpt_length"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport     string `yaml:"transport"`
	LogLevel      string `yaml:"log_level"`
	Watch         bool   `yaml:"watch"`
	WatchDebounce string `yaml:"watch_debounce"`
}

// NewConfig returns a config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Corpus: CorpusConfig{
			Root:       ".",
			Separator:  "\n---\n",
			Extensions: []string{".md", ".markdown", ".txt"},
		},
		Index: IndexConfig{},
		Search: SearchConfig{
			K1:                1.5,
			B:                 0.75,
			DefaultTopK:       5,
			MaxTopK:           50,
			SnapshotCacheSize: 4,
			ExcerptLength:     400,
		},
		Server: ServerConfig{
			Transport:     "stdio",
			LogLevel:      "info",
			WatchDebounce: "500ms",
		},
	}
}

// Load resolves configuration for the given corpus root.
// A missing config file is not an error; defaults plus env apply.
func Load(root string) (*Config, error) {
	cfg := NewConfig()
	if root != "" {
		cfg.Corpus.Root = root
	}

	path := filepath.Join(cfg.Corpus.Root, ConfigFileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, derrors.Wrap(derrors.ErrCodeConfigInvalid, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, derrors.New(derrors.ErrCodeConfigInvalid,
				fmt.Sprintf("cannot parse %s: %v", path, err), err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyDerivedDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies DOCDEX_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCDEX_CORPUS_ROOT"); v != "" {
		c.Corpus.Root = v
	}
	if v := os.Getenv("DOCDEX_INDEX_PATH"); v != "" {
		c.Index.Path = v
	}
	if v := os.Getenv("DOCDEX_BM25_K1"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.K1 = f
		}
	}
	if v := os.Getenv("DOCDEX_BM25_B"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.B = f
		}
	}
	if v := os.Getenv("DOCDEX_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.DefaultTopK = n
		}
	}
	if v := os.Getenv("DOCDEX_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// applyDerivedDefaults fills paths derived from the corpus root.
func (c *Config) applyDerivedDefaults() {
	if c.Index.Path == "" {
		c.Index.Path = filepath.Join(c.Corpus.Root, ".docdex", "index.json")
	}
	if c.Index.LockPath == "" {
		c.Index.LockPath = filepath.Join(filepath.Dir(c.Index.Path), ".rebuild.lock")
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Corpus.Root == "" {
		return derrors.New(derrors.ErrCodeConfigInvalid, "corpus root is required", nil)
	}
	if c.Corpus.Separator == "" {
		return derrors.New(derrors.ErrCodeConfigInvalid, "fragment separator is required", nil)
	}
	if c.Search.K1 <= 0 {
		return derrors.New(derrors.ErrCodeConfigInvalid,
			fmt.Sprintf("k1 must be positive, got %v", c.Search.K1), nil)
	}
	if c.Search.B < 0 || c.Search.B > 1 {
		return derrors.New(derrors.ErrCodeConfigInvalid,
			fmt.Sprintf("b must be in [0,1], got %v", c.Search.B), nil)
	}
	if c.Search.DefaultTopK < 1 {
		return derrors.New(derrors.ErrCodeConfigInvalid,
			fmt.Sprintf("default top_k must be >= 1, got %d", c.Search.DefaultTopK), nil)
	}
	if c.Search.MaxTopK < c.Search.DefaultTopK {
		return derrors.New(derrors.ErrCodeConfigInvalid,
			fmt.Sprintf("max top_k %d below default %d", c.Search.MaxTopK, c.Search.DefaultTopK), nil)
	}
	if c.Search.SnapshotCacheSize < 1 {
		return derrors.New(derrors.ErrCodeConfigInvalid,
			fmt.Sprintf("snapshot cache size must be >= 1, got %d", c.Search.SnapshotCacheSize), nil)
	}
	return nil
}

// Save writes the config as YAML to the given path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return derrors.InternalError("cannot marshal config", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return derrors.New(derrors.ErrCodeConfigInvalid, "cannot create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return derrors.New(derrors.ErrCodeConfigInvalid, "cannot write config", err)
	}
	return nil
}
