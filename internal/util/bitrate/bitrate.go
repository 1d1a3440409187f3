// Package bitrate holds the size-to-bitrate budget arithmetic and the
// resolution ladder used to plan an encode.
package bitrate

import "errors"

// ErrInfeasibleTarget is returned when the target size cannot carry even a
// minimal video stream plus the fixed audio track for the given duration.
var ErrInfeasibleTarget = errors.New("target size too small for video duration; raise --size or trim the source")

// AudioKbps is the fixed AAC audio bitrate reserved out of the total budget.
const AudioKbps = 128

// ComputeVideoKbps derives the video bitrate budget (kbps) that fits
// targetSizeMB over durationSec, after reserving AudioKbps for audio.
// One MB counts as 8*1024*1024 bits and the result is truncated, not rounded.
func ComputeVideoKbps(targetSizeMB int, durationSec float64) (int, error) {
	if targetSizeMB <= 0 {
		return 0, errors.New("target size must be positive")
	}
	if durationSec <= 0 {
		return 0, errors.New("duration must be positive")
	}
	totalBits := float64(targetSizeMB) * 8192 * 1024
	kbps := int(totalBits/durationSec/1024) - AudioKbps
	if kbps < 1 {
		return 0, ErrInfeasibleTarget
	}
	return kbps, nil
}

// SelectHeight maps a video bitrate budget onto a target height. Thresholds
// are evaluated highest-first; anything under the lowest tier still gets
// 360p rather than a rejection.
func SelectHeight(videoKbps int) int {
	switch {
	case videoKbps >= 5000:
		return 1080
	case videoKbps >= 2500:
		return 720
	case videoKbps >= 1000:
		return 480
	default:
		return 360
	}
}

// ValidHeight reports whether h is one of the supported output tiers.
func ValidHeight(h int) bool {
	switch h {
	case 360, 480, 720, 1080:
		return true
	}
	return false
}

// SourceBitrate is the probed (or estimated) bitrate of the input video.
// Known is false when neither the container nor the file size could supply a
// value; an unknown source bitrate never clamps the budget.
type SourceBitrate struct {
	Kbps  int
	Known bool
}

// EstimateFromSize derives a source bitrate from file size and duration when
// the container reports none. Returns an unknown SourceBitrate if either
// value is unusable.
func EstimateFromSize(sizeBytes int64, durationSec float64) SourceBitrate {
	if sizeBytes <= 0 || durationSec <= 0 {
		return SourceBitrate{}
	}
	kbps := int(float64(sizeBytes*8) / durationSec / 1000)
	if kbps <= 0 {
		return SourceBitrate{}
	}
	return SourceBitrate{Kbps: kbps, Known: true}
}

// ClampToSource caps the computed budget at the source bitrate so the output
// never carries more bits than the input did. Applied after resolution
// selection; the ladder always sees the uncapped budget.
func ClampToSource(computedKbps int, src SourceBitrate) int {
	if src.Known && src.Kbps < computedKbps {
		return src.Kbps
	}
	return computedKbps
}

// NeedsScale reports whether a scale filter should be applied at all.
// Sources at or below the target height are passed through untouched.
func NeedsScale(sourceHeight, targetHeight int) bool {
	return sourceHeight > 0 && targetHeight > 0 && sourceHeight > targetHeight
}
