// Package probe wraps a single ffprobe JSON call and extracts the few
// container and stream facts the planner needs.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"squish/internal/util"
	"squish/internal/util/bitrate"
)

// Options controls how ffprobe is invoked.
type Options struct {
	FFprobePath string
	Verbose     bool
	Runner      util.CmdRunner
}

// Result is the parsed output of one ffprobe call.
type Result struct {
	DurationSec float64
	Width       int
	Height      int
	SizeBytes   int64
	// StreamKbps is the primary video stream bitrate in kbps, falling back
	// to the container bitrate; 0 means ffprobe reported neither.
	StreamKbps int
}

// File probes path and returns its parsed result. The dimensions of the
// primary video stream are required; a file without one is an error.
func File(ctx context.Context, path string, opts Options) (Result, error) {
	if opts.FFprobePath == "" {
		return Result{}, errors.New("ffprobe path is required")
	}
	runner := opts.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}

	res, err := runner.Run(ctx, util.CmdSpec{
		Path: opts.FFprobePath,
		Args: []string{
			"-v", "quiet",
			"-print_format", "json",
			"-show_format", "-show_streams",
			path,
		},
		Verbose:       opts.Verbose,
		CaptureStdout: true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseJSON(res.Stdout)
}

// ParseJSON converts raw ffprobe JSON output into a Result.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return Result{}, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	r := Result{
		DurationSec: parseFloat(raw.Format.Duration),
		SizeBytes:   parseInt64(raw.Format.Size),
	}

	var streamBps int64
	for i := range raw.Streams {
		s := &raw.Streams[i]
		if s.CodecType != "video" || s.Disposition["attached_pic"] == 1 {
			continue
		}
		r.Width = s.Width
		r.Height = s.Height
		streamBps = parseInt64(s.BitRate)
		break
	}
	if streamBps == 0 {
		streamBps = parseInt64(raw.Format.BitRate)
	}
	r.StreamKbps = int(streamBps / 1000)

	if r.Width <= 0 || r.Height <= 0 {
		return r, errors.New("no video stream with usable dimensions")
	}
	return r, nil
}

// SourceBitrate resolves the bitrate to clamp against: the probed stream (or
// container) value when present, otherwise an estimate from file size and
// duration, otherwise explicitly unknown.
func (r Result) SourceBitrate() bitrate.SourceBitrate {
	if r.StreamKbps > 0 {
		return bitrate.SourceBitrate{Kbps: r.StreamKbps, Known: true}
	}
	return bitrate.EstimateFromSize(r.SizeBytes, r.DurationSec)
}

// --- ffprobe JSON wire types (numbers arrive as strings) ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

type ffprobeStream struct {
	CodecType   string         `json:"codec_type"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	BitRate     string         `json:"bit_rate"`
	Disposition map[string]int `json:"disposition"`
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
