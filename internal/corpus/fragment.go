// Package corpus loads documentation sources and splits them into
// retrievable fragments with stable identifiers.
package corpus

import (
	"fmt"
	"strings"
)

// Fragment is an immutable unit of retrievable content.
// Fragments are created during corpus load, never mutated, and
// replaced wholesale on rebuild.
type Fragment struct {
	// ID is stable across reloads of an unchanged corpus:
	// "<source path>#<ordinal>".
	ID string `json:"id"`

	// SourcePath is the file the fragment came from, relative to the
	// corpus root.
	SourcePath string `json:"source_path"`

	// Ordinal is the zero-based position of the fragment within its
	// source file.
	Ordinal int `json:"ordinal"`

	// Title is provenance metadata: the fragment's first heading, or
	// its first line when no heading exists.
	Title string `json:"title"`

	// Text is the raw fragment content.
	Text string `json:"text"`
}

// FragmentID builds the stable identifier from source identity and
// ordinal position.
func FragmentID(sourcePath string, ordinal int) string {
	return fmt.Sprintf("%s#%d", sourcePath, ordinal)
}

// fragmentTitle derives a display title from fragment text: the first
// markdown heading if present, otherwise the first non-empty line.
func fragmentTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		trimmed = strings.TrimLeft(trimmed, "# ")
		if len(trimmed) > 80 {
			trimmed = trimmed[:80]
		}
		return trimmed
	}
	return ""
}
