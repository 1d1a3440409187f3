package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"squish/internal/util"
	"squish/internal/util/format"
)

// Container is the fixed output container extension.
const Container = ".mp4"

// OutputBasename builds the output file name (without extension) from the
// sanitized base name, the selected height, and the requested size:
// <base>_<height>p_<sizeMB>M.
func OutputBasename(baseName string, heightPx, targetSizeMB int) string {
	base := util.SanitizeFilename(baseName)
	return fmt.Sprintf("%s_%dp_%dM", base, heightPx, targetSizeMB)
}

// RenameForActualSize renames path when the encoded file came out strictly
// smaller than requested, substituting the real size (floored to MB) for the
// target size in the name. Oversized outputs keep their name; this is a
// cosmetic correction, never a re-encode.
func RenameForActualSize(path string, targetSizeMB int, actualBytes int64) (string, error) {
	actualMB := format.MB(actualBytes)
	if actualMB >= targetSizeMB {
		return path, nil
	}
	oldTag := fmt.Sprintf("_%dM", targetSizeMB)
	newTag := fmt.Sprintf("_%dM", actualMB)

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	if !strings.HasSuffix(stem, oldTag) {
		// Name does not follow our scheme (caller supplied a custom path).
		return path, nil
	}
	newBase := strings.TrimSuffix(stem, oldTag) + newTag + ext
	newPath := filepath.Join(filepath.Dir(path), newBase)
	if err := os.Rename(path, newPath); err != nil {
		return path, fmt.Errorf("rename output: %w", err)
	}
	return newPath, nil
}
