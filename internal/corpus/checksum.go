package corpus

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// Checksum computes a content checksum of the corpus under root.
// It hashes each source file's relative path and content in sorted
// path order, so the result is stable across reloads of an unchanged
// corpus and changes when any file is added, removed, or edited.
//
// The checksum is recomputed on every retrieve call to detect
// staleness, so it reads files directly rather than going through
// fragment splitting.
func (l *Loader) Checksum(ctx context.Context, root string) (string, error) {
	paths, err := l.sourceFiles(root)
	if err != nil {
		return "", err
	}

	h := xxhash.New()
	var lenBuf [8]byte
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		data, err := os.ReadFile(filepath.Join(root, p))
		if err != nil {
			return "", fmt.Errorf("checksum %s: %w", p, err)
		}
		_, _ = h.WriteString(p)
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(data)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(data)
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}
