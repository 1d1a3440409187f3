package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"squish/internal/model"
	"squish/internal/progress"
	"squish/internal/util"
)

// Options controls downloader behavior.
type Options struct {
	DownloaderPath string // Path to yt-dlp or youtube-dl
	Verbose        bool
	MaxHeight      int  // Cap the requested stream height; 0 = best available.
	MetadataOnly   bool // If true, only fetch metadata; do not download the media file.

	Reporter progress.Reporter
	JobID    string
	Runner   util.CmdRunner
}

// Download fetches metadata (and optionally the media) for a given URL.
// Returns the SourceMedia and the temp workdir used (for caller cleanup).
func Download(ctx context.Context, url string, opts Options) (model.SourceMedia, string, error) {
	if opts.DownloaderPath == "" {
		return model.SourceMedia{}, "", errors.New("downloader path is required")
	}
	runner := opts.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}

	workdir, err := util.MakeTempWorkdir("job")
	if err != nil {
		return model.SourceMedia{}, "", fmt.Errorf("create temp dir: %w", err)
	}

	if opts.Reporter != nil {
		opts.Reporter.Update(progress.Update{
			JobID: opts.JobID, Stage: progress.StageMetadata, Percent: -1, Message: "Fetching metadata",
		})
	}

	info, err := fetchMetadata(ctx, runner, opts, url)
	if err != nil {
		return model.SourceMedia{}, workdir, err
	}

	sm := model.SourceMedia{
		DurationSec: info.Duration,
		BaseName:    util.SanitizeFilename(baseNameOf(info)),
		Title:       info.Title,
		ID:          info.ID,
		Width:       info.Width,
		Height:      info.Height,
		Locator:     url,
		Remote:      true,
	}

	if opts.MetadataOnly {
		return sm, workdir, nil
	}

	// Download into workdir using a fixed ID-based template so the landing
	// path is predictable.
	outTemplate := filepath.Join(workdir, "%(id)s.%(ext)s")
	args := []string{
		"-f", formatSelector(opts.MaxHeight),
		"-o", outTemplate,
		"--no-playlist",
		"--newline",
		url,
	}
	_, runErr := runner.Run(ctx, util.CmdSpec{
		Path:    opts.DownloaderPath,
		Args:    args,
		Dir:     workdir,
		Verbose: opts.Verbose,
		StdoutLine: func(line string) {
			if opts.Reporter == nil {
				return
			}
			if u, ok := ParseProgress(line, opts.JobID); ok {
				opts.Reporter.Update(u)
			}
		},
		StderrLine: func(line string) {
			if opts.Reporter != nil {
				opts.Reporter.Log(progress.Log{JobID: opts.JobID, Stream: progress.StreamStderr, Line: line})
			}
		},
	})
	if runErr != nil {
		return model.SourceMedia{}, workdir, fmt.Errorf("downloader failed: %w", runErr)
	}

	input, selErr := SelectDownloadedFile(workdir, info.ID)
	if selErr != nil {
		return model.SourceMedia{}, workdir, fmt.Errorf("resolve download: %w", selErr)
	}
	sm.InputPath = input
	return sm, workdir, nil
}

// formatSelector builds the yt-dlp -f expression, capping the stream height
// at the planned output tier so no larger source is fetched than needed.
func formatSelector(maxHeight int) string {
	if maxHeight <= 0 {
		return "bestvideo+bestaudio/best"
	}
	return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", maxHeight, maxHeight)
}

func baseNameOf(info YTDLPInfo) string {
	if t := strings.TrimSpace(info.Title); t != "" {
		return t
	}
	return info.ID
}

func fetchMetadata(ctx context.Context, runner util.CmdRunner, opts Options, url string) (YTDLPInfo, error) {
	args := []string{
		"--dump-json",
		"--no-playlist",
		url,
	}
	res, runErr := runner.Run(ctx, util.CmdSpec{
		Path:          opts.DownloaderPath,
		Args:          args,
		Verbose:       opts.Verbose,
		CaptureStdout: true,
	})
	if runErr != nil && len(res.Stdout) == 0 {
		return YTDLPInfo{}, fmt.Errorf("metadata fetch failed: %w", runErr)
	}

	// yt-dlp sometimes prints progress/info to stderr but JSON to stdout.
	// Parse the last JSON object if multiple lines exist.
	data := strings.TrimSpace(string(res.Stdout))
	var info YTDLPInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		lastErr := err
		lines := strings.Split(data, "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			line := strings.TrimSpace(lines[i])
			if line == "" {
				continue
			}
			var tmp YTDLPInfo
			if json.Unmarshal([]byte(line), &tmp) == nil && tmp.ID != "" {
				info = tmp
				lastErr = nil
				break
			}
		}
		if lastErr != nil {
			return YTDLPInfo{}, fmt.Errorf("parse metadata JSON: %w", lastErr)
		}
	}
	if info.Duration <= 0 {
		return YTDLPInfo{}, errors.New("metadata lacks a usable duration")
	}
	return info, nil
}
