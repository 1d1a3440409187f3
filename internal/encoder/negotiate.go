package encoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"squish/internal/util"
)

// Kind distinguishes hardware-backed encoders from the software fallback.
type Kind string

const (
	KindHardware Kind = "hardware"
	KindSoftware Kind = "software"
)

// SoftwareEncoder is the fixed CPU encoder used when no hardware encoder is
// available and as the single fallback after a hardware failure.
const SoftwareEncoder = "libx264"

// Choice is the negotiated encoder for a run.
type Choice struct {
	Kind Kind
	Name string // ffmpeg encoder id, e.g. "h264_nvenc"
}

// platformCandidates is a flat decision table: for each OS, the hardware
// encoder ids to try, in priority order.
func platformCandidates(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"h264_videotoolbox"}
	case "linux":
		return []string{"h264_nvenc", "h264_vaapi", "h264_qsv"}
	case "windows":
		return []string{"h264_nvenc", "h264_amf", "h264_qsv"}
	default:
		return nil
	}
}

// Negotiate picks the first hardware candidate for goos that the local
// ffmpeg build advertises, or the software encoder when none match.
func Negotiate(goos string, available map[string]bool) Choice {
	for _, name := range platformCandidates(goos) {
		if available[name] {
			return Choice{Kind: KindHardware, Name: name}
		}
	}
	return Choice{Kind: KindSoftware, Name: SoftwareEncoder}
}

// HardwareCandidates returns the candidates for goos that are present in the
// availability set, in priority order. Used by the doctor command.
func HardwareCandidates(goos string, available map[string]bool) []string {
	var found []string
	for _, name := range platformCandidates(goos) {
		if available[name] {
			found = append(found, name)
		}
	}
	return found
}

// ListEncoders queries ffmpeg for its compiled-in encoder ids.
func ListEncoders(ctx context.Context, ffmpegPath string, runner util.CmdRunner, verbose bool) (map[string]bool, error) {
	if runner == nil {
		runner = util.NewDefaultRunner()
	}
	res, err := runner.Run(ctx, util.CmdSpec{
		Path:          ffmpegPath,
		Args:          []string{"-hide_banner", "-encoders"},
		Verbose:       verbose,
		CaptureStdout: true,
	})
	if err != nil {
		return nil, fmt.Errorf("query encoders: %w", err)
	}
	return parseEncoderList(res.Stdout), nil
}

// parseEncoderList extracts encoder ids from `ffmpeg -encoders` output.
// Lines look like " V....D h264_nvenc           NVIDIA NVENC H.264 encoder".
func parseEncoderList(out []byte) map[string]bool {
	available := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(out))
	seenRule := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !seenRule {
			// The id column starts after the "------" header rule.
			if strings.HasPrefix(line, "------") {
				seenRule = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// fields[0] is the capability flags column; only video encoders matter.
		if !strings.Contains(fields[0], "V") {
			continue
		}
		available[fields[1]] = true
	}
	return available
}
