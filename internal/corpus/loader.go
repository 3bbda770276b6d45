package corpus

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	derrors "github.com/docdex/docdex/internal/errors"
)

// Loader reads documentation sources under a corpus root and splits
// them into fragments along an explicit separator convention.
type Loader struct {
	separator  string
	extensions map[string]struct{}
	logger     *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithSeparator sets the fragment boundary marker.
func WithSeparator(sep string) LoaderOption {
	return func(l *Loader) { l.separator = sep }
}

// WithExtensions sets the file extensions the loader reads.
func WithExtensions(exts []string) LoaderOption {
	return func(l *Loader) {
		l.extensions = make(map[string]struct{}, len(exts))
		for _, e := range exts {
			l.extensions[strings.ToLower(e)] = struct{}{}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a corpus loader with the given options.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		separator: "\n---\n",
		extensions: map[string]struct{}{
			".md": {}, ".markdown": {}, ".txt": {},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads all documentation sources under root and returns their
// fragments in deterministic order: files sorted by relative path,
// fragments in file order. Re-loading an unchanged corpus yields
// identical fragments and ids.
//
// Returns a corpus error if root is unreadable or contains no
// segmentable content.
func (l *Loader) Load(ctx context.Context, root string) ([]Fragment, error) {
	paths, err := l.sourceFiles(root)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, derrors.CorpusEmptyError("no documentation sources under " + root)
	}

	// Parallel file reads, reassembled in path order so output stays
	// deterministic.
	contents := make([]string, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, p := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			data, err := os.ReadFile(filepath.Join(root, p))
			if err != nil {
				return derrors.CorpusError("cannot read "+p, err)
			}
			contents[i] = string(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if de, ok := err.(*derrors.DocdexError); ok {
			return nil, de
		}
		return nil, derrors.CorpusError("corpus load failed", err)
	}

	var fragments []Fragment
	for i, p := range paths {
		fragments = append(fragments, l.split(p, contents[i])...)
	}
	if len(fragments) == 0 {
		return nil, derrors.CorpusEmptyError("no segmentable content under " + root)
	}

	l.logger.Debug("corpus_loaded",
		slog.String("root", root),
		slog.Int("files", len(paths)),
		slog.Int("fragments", len(fragments)))

	return fragments, nil
}

// split divides one source file into fragments along the separator,
// dropping empty segments. Ordinals count all segments, including
// dropped ones, so ids stay stable when a middle segment is blank.
func (l *Loader) split(relPath, content string) []Fragment {
	segments := strings.Split(content, l.separator)
	fragments := make([]Fragment, 0, len(segments))
	for ordinal, seg := range segments {
		text := strings.TrimSpace(seg)
		if text == "" {
			continue
		}
		fragments = append(fragments, Fragment{
			ID:         FragmentID(relPath, ordinal),
			SourcePath: relPath,
			Ordinal:    ordinal,
			Title:      fragmentTitle(text),
			Text:       text,
		})
	}
	return fragments
}

// sourceFiles returns the sorted relative paths of all readable
// documentation sources under root. Hidden directories (including the
// index directory itself) are skipped.
func (l *Loader) sourceFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, derrors.CorpusError("corpus root unreadable: "+root, err)
	}
	if !info.IsDir() {
		return nil, derrors.CorpusError("corpus root is not a directory: "+root, nil)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if _, ok := l.extensions[strings.ToLower(filepath.Ext(name))]; !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, derrors.CorpusError("cannot walk corpus root: "+root, err)
	}

	sort.Strings(paths)
	return paths, nil
}
