package probe

import (
	"testing"
)

const fullJSON = `{
	"streams": [
		{"codec_type": "audio", "bit_rate": "128000", "disposition": {"default": 1}},
		{"codec_type": "video", "width": 1920, "height": 1080, "bit_rate": "4500000", "disposition": {"attached_pic": 0}}
	],
	"format": {"duration": "600.250000", "size": "367001600", "bit_rate": "4891000"}
}`

const noStreamBitrateJSON = `{
	"streams": [
		{"codec_type": "video", "width": 1280, "height": 720, "disposition": {"attached_pic": 0}}
	],
	"format": {"duration": "60.000000", "size": "94371840", "bit_rate": "2000000"}
}`

const noBitrateAtAllJSON = `{
	"streams": [
		{"codec_type": "video", "width": 640, "height": 360, "disposition": {"attached_pic": 0}}
	],
	"format": {"duration": "30.000000", "size": "7864320"}
}`

const coverArtOnlyJSON = `{
	"streams": [
		{"codec_type": "video", "width": 500, "height": 500, "disposition": {"attached_pic": 1}},
		{"codec_type": "audio", "bit_rate": "128000", "disposition": {}}
	],
	"format": {"duration": "180.0", "size": "4096"}
}`

func TestParseJSON_FullMetadata(t *testing.T) {
	r, err := ParseJSON([]byte(fullJSON))
	if err != nil {
		t.Fatalf("ParseJSON error: %v", err)
	}
	if r.Width != 1920 || r.Height != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", r.Width, r.Height)
	}
	if r.DurationSec != 600.25 {
		t.Errorf("duration = %v, want 600.25", r.DurationSec)
	}
	if r.SizeBytes != 367001600 {
		t.Errorf("size = %d, want 367001600", r.SizeBytes)
	}
	if r.StreamKbps != 4500 {
		t.Errorf("stream kbps = %d, want 4500", r.StreamKbps)
	}
	src := r.SourceBitrate()
	if !src.Known || src.Kbps != 4500 {
		t.Errorf("SourceBitrate = %+v, want known 4500", src)
	}
}

func TestParseJSON_ContainerBitrateFallback(t *testing.T) {
	r, err := ParseJSON([]byte(noStreamBitrateJSON))
	if err != nil {
		t.Fatalf("ParseJSON error: %v", err)
	}
	if r.StreamKbps != 2000 {
		t.Errorf("stream kbps = %d, want container fallback 2000", r.StreamKbps)
	}
}

func TestParseJSON_SizeEstimateFallback(t *testing.T) {
	r, err := ParseJSON([]byte(noBitrateAtAllJSON))
	if err != nil {
		t.Fatalf("ParseJSON error: %v", err)
	}
	if r.StreamKbps != 0 {
		t.Errorf("stream kbps = %d, want 0 (unreported)", r.StreamKbps)
	}
	// 7864320 bytes * 8 / 30s / 1000 = 2097 kbps
	src := r.SourceBitrate()
	if !src.Known || src.Kbps != 2097 {
		t.Errorf("SourceBitrate = %+v, want estimated 2097", src)
	}
}

func TestParseJSON_AttachedPicSkipped(t *testing.T) {
	_, err := ParseJSON([]byte(coverArtOnlyJSON))
	if err == nil {
		t.Fatal("expected error for file without a real video stream")
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	if _, err := ParseJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestSourceBitrate_UnknownWhenNothingAvailable(t *testing.T) {
	r := Result{DurationSec: 0, SizeBytes: 0, StreamKbps: 0}
	if src := r.SourceBitrate(); src.Known {
		t.Errorf("SourceBitrate = %+v, want unknown", src)
	}
}
