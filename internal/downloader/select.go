package downloader

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
)

// SelectDownloadedFile finds the best downloaded file in workdir for the given
// video ID, preferring the common playable containers.
func SelectDownloadedFile(workdir, id string) (string, error) {
	candidates, err := filepath.Glob(filepath.Join(workdir, id+".*"))
	if err != nil {
		return "", err
	}

	if len(candidates) == 0 {
		// Fallback: try any file in workdir
		all, _ := filepath.Glob(filepath.Join(workdir, "*"))
		if len(all) == 0 {
			return "", errors.New("no output file found")
		}
		candidates = all
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		pri := extPriority(filepath.Ext(candidates[i]))
		prj := extPriority(filepath.Ext(candidates[j]))
		if pri == prj {
			return candidates[i] < candidates[j]
		}
		return pri < prj
	})

	return candidates[0], nil
}

// extPriority returns a priority score for file extensions (lower = better).
func extPriority(ext string) int {
	switch strings.ToLower(ext) {
	case ".mp4":
		return 0
	case ".mkv":
		return 1
	case ".webm":
		return 2
	case ".mov":
		return 3
	default:
		return 100
	}
}
