// Package dirs resolves platform-appropriate application directories.
package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "squish"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

// ConfigDir returns the app's configuration directory.
// - Linux: $XDG_CONFIG_HOME/squish or ~/.config/squish
// - macOS: ~/Library/Application Support/squish
// - Windows: %AppData%/squish (fallback to os.UserConfigDir)
func ConfigDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", AppName()), nil
	case "linux":
		xdg := os.Getenv("XDG_CONFIG_HOME")
		if xdg != "" {
			return filepath.Join(xdg, AppName()), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName()), nil
	default:
		cfg, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, AppName()), nil
	}
}

// DataDir returns the app's data directory.
// - Linux: $XDG_DATA_HOME/squish or ~/.local/share/squish
// - macOS: ~/Library/Application Support/squish
// - Windows: %AppData%/squish (fallback to os.UserConfigDir)
func DataDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", AppName()), nil
	case "linux":
		xdg := os.Getenv("XDG_DATA_HOME")
		if xdg != "" {
			return filepath.Join(xdg, AppName()), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", AppName()), nil
	default:
		cfg, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, AppName()), nil
	}
}

// CacheDir returns the app's cache directory.
// - Linux: $XDG_CACHE_HOME/squish or ~/.cache/squish
// - macOS: ~/Library/Caches/squish
// - Windows: %LocalAppData%/squish (fallback to os.UserCacheDir)
func CacheDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Caches", AppName()), nil
	case "linux":
		xdg := os.Getenv("XDG_CACHE_HOME")
		if xdg != "" {
			return filepath.Join(xdg, AppName()), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".cache", AppName()), nil
	default:
		c, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(c, AppName()), nil
	}
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureAll ensures config, data, and cache dirs exist.
func EnsureAll() error {
	if p, err := ConfigDir(); err == nil {
		if err := Ensure(p); err != nil {
			return err
		}
	}
	if p, err := DataDir(); err == nil {
		if err := Ensure(p); err != nil {
			return err
		}
	}
	if p, err := CacheDir(); err == nil {
		if err := Ensure(p); err != nil {
			return err
		}
	}
	return nil
}
