package encoder

import (
	"reflect"
	"testing"

	"squish/internal/model"
)

func TestBuildArgs_WithScale(t *testing.T) {
	enc := model.EncodeOptions{
		VideoKbps:        2000,
		TargetHeight:     720,
		Scale:            true,
		AudioBitrateKbps: 128,
	}
	got := BuildArgs("in.mp4", enc, "h264_nvenc", "out.mp4", false)
	want := []string{
		"-y",
		"-i", "in.mp4",
		"-vf", "scale=-2:720",
		"-c:v", "h264_nvenc",
		"-b:v", "2000k",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"out.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArgs = %v, want %v", got, want)
	}
}

func TestBuildArgs_NoScaleOmitsFilter(t *testing.T) {
	enc := model.EncodeOptions{
		VideoKbps:        900,
		TargetHeight:     720,
		Scale:            false,
		AudioBitrateKbps: 128,
	}
	got := BuildArgs("in.mkv", enc, "libx264", "out.mp4", false)
	for _, a := range got {
		if a == "-vf" {
			t.Fatalf("scale filter present for pass-through source: %v", got)
		}
	}
}

func TestBuildArgs_FallbackDiffersOnlyInEncoder(t *testing.T) {
	enc := model.EncodeOptions{
		VideoKbps:        3500,
		TargetHeight:     1080,
		Scale:            true,
		AudioBitrateKbps: 128,
	}
	hw := BuildArgs("in.mp4", enc, "h264_videotoolbox", "out.mp4", true)
	sw := BuildArgs("in.mp4", enc, SoftwareEncoder, "out.mp4", true)

	if len(hw) != len(sw) {
		t.Fatalf("arg lengths differ: %d vs %d", len(hw), len(sw))
	}
	diffs := 0
	for i := range hw {
		if hw[i] != sw[i] {
			diffs++
			if hw[i] != "h264_videotoolbox" || sw[i] != SoftwareEncoder {
				t.Errorf("unexpected difference at %d: %q vs %q", i, hw[i], sw[i])
			}
		}
	}
	if diffs != 1 {
		t.Errorf("fallback args differ in %d positions, want exactly 1 (the encoder id)", diffs)
	}
}

func TestBuildArgs_ProgressFlags(t *testing.T) {
	enc := model.EncodeOptions{VideoKbps: 1000, AudioBitrateKbps: 128}
	got := BuildArgs("in.mp4", enc, "libx264", "out.mp4", true)

	hasProgress := false
	for i, a := range got {
		if a == "-progress" && i+1 < len(got) && got[i+1] == "pipe:1" {
			hasProgress = true
		}
	}
	if !hasProgress {
		t.Errorf("expected -progress pipe:1 in args: %v", got)
	}
	if got[len(got)-1] != "out.mp4" {
		t.Errorf("output path must be the final argument, got %q", got[len(got)-1])
	}
}
