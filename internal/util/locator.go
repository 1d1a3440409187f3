package util

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// IsRemote reports whether the raw input looks like an http(s) URL rather
// than a local file path.
func IsRemote(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// ValidateInput checks that raw is either a remote URL or an existing local
// file. It returns a descriptive error for anything else.
func ValidateInput(raw string) error {
	if raw == "" {
		return fmt.Errorf("empty input")
	}
	if IsRemote(raw) {
		return nil
	}
	fi, err := os.Stat(raw)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input %q is neither a URL nor an existing file", raw)
		}
		return fmt.Errorf("input %q: %v", raw, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("input %q is a directory, expected a video file", raw)
	}
	return nil
}
