package encoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"squish/internal/model"
	"squish/internal/util"
)

// scriptedRunner fails the first failUntil attempts and succeeds afterwards,
// creating the output file like a real ffmpeg run would.
type scriptedRunner struct {
	failUntil int
	calls     []util.CmdSpec
	outSize   int64
}

func (r *scriptedRunner) Run(_ context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	r.calls = append(r.calls, spec)
	if len(r.calls) <= r.failUntil {
		return util.CmdResult{Code: 1}, errors.New("simulated encoder failure")
	}
	outputPath := spec.Args[len(spec.Args)-1]
	size := r.outSize
	if size <= 0 {
		size = 4096
	}
	if err := os.WriteFile(outputPath, make([]byte, size), 0o644); err != nil {
		return util.CmdResult{}, err
	}
	return util.CmdResult{Code: 0}, nil
}

func encoderArg(spec util.CmdSpec) string {
	for i, a := range spec.Args {
		if a == "-c:v" && i+1 < len(spec.Args) {
			return spec.Args[i+1]
		}
	}
	return ""
}

func testInputs(t *testing.T) (model.SourceMedia, model.EncodeOptions, string) {
	t.Helper()
	in := model.SourceMedia{
		InputPath:   filepath.Join(t.TempDir(), "src.mp4"),
		DurationSec: 60,
		BaseName:    "clip",
		Height:      1080,
	}
	enc := model.EncodeOptions{
		VideoKbps:        2000,
		TargetHeight:     720,
		Scale:            true,
		AudioBitrateKbps: 128,
	}
	out := filepath.Join(t.TempDir(), "clip_720p_50M.mp4")
	return in, enc, out
}

func TestEncode_HardwareSucceedsFirstTry(t *testing.T) {
	in, enc, out := testInputs(t)
	r := &scriptedRunner{}

	got, err := Encode(context.Background(), in, enc, Choice{Kind: KindHardware, Name: "h264_nvenc"}, Options{
		FFmpegPath: "/bin/ffmpeg",
		OutputPath: out,
		Runner:     r,
	})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if len(r.calls) != 1 {
		t.Fatalf("attempts = %d, want 1", len(r.calls))
	}
	if got.Encoder != "h264_nvenc" || got.FellBack {
		t.Errorf("result = %+v, want nvenc without fallback", got)
	}
	if got.UsedBitrateKbps != 2000 {
		t.Errorf("UsedBitrateKbps = %d, want 2000", got.UsedBitrateKbps)
	}
}

func TestEncode_HardwareFallsBackOnce(t *testing.T) {
	in, enc, out := testInputs(t)
	r := &scriptedRunner{failUntil: 1}

	got, err := Encode(context.Background(), in, enc, Choice{Kind: KindHardware, Name: "h264_vaapi"}, Options{
		FFmpegPath: "/bin/ffmpeg",
		OutputPath: out,
		Runner:     r,
	})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if len(r.calls) != 2 {
		t.Fatalf("attempts = %d, want exactly 2", len(r.calls))
	}
	if encoderArg(r.calls[0]) != "h264_vaapi" {
		t.Errorf("first attempt encoder = %q, want h264_vaapi", encoderArg(r.calls[0]))
	}
	if encoderArg(r.calls[1]) != SoftwareEncoder {
		t.Errorf("retry encoder = %q, want %s", encoderArg(r.calls[1]), SoftwareEncoder)
	}

	// The retry must carry identical parameters apart from the encoder id.
	a0, a1 := r.calls[0].Args, r.calls[1].Args
	if len(a0) != len(a1) {
		t.Fatalf("retry arg count differs: %d vs %d", len(a0), len(a1))
	}
	for i := range a0 {
		if a0[i] != a1[i] && a0[i] != "h264_vaapi" {
			t.Errorf("retry arg %d changed: %q -> %q", i, a0[i], a1[i])
		}
	}

	if !got.FellBack || got.Encoder != SoftwareEncoder {
		t.Errorf("result = %+v, want software fallback recorded", got)
	}
}

func TestEncode_BothAttemptsFail(t *testing.T) {
	in, enc, out := testInputs(t)
	r := &scriptedRunner{failUntil: 2}

	_, err := Encode(context.Background(), in, enc, Choice{Kind: KindHardware, Name: "h264_nvenc"}, Options{
		FFmpegPath: "/bin/ffmpeg",
		OutputPath: out,
		Runner:     r,
	})
	if err == nil {
		t.Fatal("expected error when both attempts fail")
	}
	if len(r.calls) != 2 {
		t.Errorf("attempts = %d, want 2 (no further retries)", len(r.calls))
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("partial output left behind after failure")
	}
}

func TestEncode_SoftwareNeverRetries(t *testing.T) {
	in, enc, out := testInputs(t)
	r := &scriptedRunner{failUntil: 1}

	_, err := Encode(context.Background(), in, enc, Choice{Kind: KindSoftware, Name: SoftwareEncoder}, Options{
		FFmpegPath: "/bin/ffmpeg",
		OutputPath: out,
		Runner:     r,
	})
	if err == nil {
		t.Fatal("expected error for failed software encode")
	}
	if len(r.calls) != 1 {
		t.Errorf("attempts = %d, want 1 (software failures are final)", len(r.calls))
	}
}

func TestEncode_Validation(t *testing.T) {
	in, enc, out := testInputs(t)

	if _, err := Encode(context.Background(), in, enc, Choice{Kind: KindSoftware, Name: SoftwareEncoder}, Options{OutputPath: out}); err == nil {
		t.Error("expected error for missing ffmpeg path")
	}
	if _, err := Encode(context.Background(), in, enc, Choice{Kind: KindSoftware, Name: SoftwareEncoder}, Options{FFmpegPath: "/bin/ffmpeg"}); err == nil {
		t.Error("expected error for missing output path")
	}
	badEnc := enc
	badEnc.VideoKbps = 0
	if _, err := Encode(context.Background(), in, badEnc, Choice{Kind: KindSoftware, Name: SoftwareEncoder}, Options{FFmpegPath: "/bin/ffmpeg", OutputPath: out}); err == nil {
		t.Error("expected error for zero bitrate")
	}
}
