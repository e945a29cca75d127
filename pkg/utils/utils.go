package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FormatCards joins cards for display, or returns "None" when there are none.
func FormatCards[C fmt.Stringer](cards []C) string {
	if len(cards) == 0 {
		return "None"
	}

	parts := make([]string, len(cards))
	for i, card := range cards {
		parts[i] = card.String()
	}
	return strings.Join(parts, " ")
}

// EnsureDataDirExists creates datadir and the given subdirectories of it.
func EnsureDataDirExists(datadir string, subdirs ...string) error {
	if datadir == "" {
		return fmt.Errorf("empty datadir")
	}
	dirs := append([]string{datadir}, subdirs...)
	for i, dir := range dirs {
		if i > 0 {
			dir = filepath.Join(datadir, dir)
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
