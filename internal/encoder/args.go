package encoder

import (
	"fmt"
	"strconv"

	"squish/internal/model"
)

// BuildArgs constructs the ffmpeg argument list for one encode attempt.
// Everything except the encoder id is identical between the hardware attempt
// and the software fallback.
func BuildArgs(inputPath string, enc model.EncodeOptions, encoderName, outputPath string, includeProgress bool) []string {
	args := []string{
		"-y",
		"-i", inputPath,
	}
	if enc.Scale {
		// Height-driven scale; width is derived to preserve aspect ratio
		// and kept even for codec compatibility.
		args = append(args, "-vf", "scale=-2:"+strconv.Itoa(enc.TargetHeight))
	}
	args = append(args,
		"-c:v", encoderName,
		"-b:v", fmt.Sprintf("%dk", enc.VideoKbps),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", fmt.Sprintf("%dk", enc.AudioBitrateKbps),
		"-movflags", "+faststart",
	)
	if includeProgress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}
	args = append(args, outputPath)
	return args
}
