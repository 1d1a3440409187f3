package util

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MakeTempWorkdir creates a unique temp directory under $TMPDIR/squish.
func MakeTempWorkdir(prefix string) (string, error) {
	base := filepath.Join(os.TempDir(), "squish")
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp(base, prefix+"-")
	if err != nil {
		return "", err
	}
	return dir, nil
}

// EnsureDir creates the directory path if it does not exist.
func EnsureDir(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// RemoveIfExists deletes the file if present.
func RemoveIfExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return os.Remove(path)
	} else if os.IsNotExist(err) {
		return nil
	} else {
		return err
	}
}

// SanitizeFilename cleans a string to be safe as a filename:
// - Replace spaces with underscores
// - Replace forbidden characters with underscores
// - Trim duplicated underscores
// - Truncate to a reasonable length (~200 runes)
func SanitizeFilename(s string) string {
	if s == "" {
		return "untitled"
	}
	s = strings.ReplaceAll(s, " ", "_")
	forbidden := `[]/\:*?"<>|#%{}$!@+^~\` + "`" + `=&;`
	for _, r := range forbidden {
		s = strings.ReplaceAll(s, string(r), "_")
	}
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "._-")

	const maxRunes = 200
	if utf8.RuneCountInString(s) > maxRunes {
		var b strings.Builder
		b.Grow(len(s))
		count := 0
		for _, r := range s {
			if count >= maxRunes {
				break
			}
			b.WriteRune(r)
			count++
		}
		s = b.String()
	}

	if s == "" {
		return "untitled"
	}
	return s
}
