// Package encoder negotiates an ffmpeg encoder for the host platform and
// runs the encode with a single hardware-to-software fallback.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"squish/internal/model"
	"squish/internal/progress"
	"squish/internal/util"
)

// Options control ffmpeg execution.
type Options struct {
	FFmpegPath string
	Verbose    bool
	OutputPath string // Full path of desired output file (including extension)

	Reporter progress.Reporter
	JobID    string
	Runner   util.CmdRunner
}

// Encode transcodes the input with the negotiated encoder. A failed hardware
// attempt is retried exactly once with the software encoder and otherwise
// identical parameters; a software failure is final. No partial output file
// survives a failure.
func Encode(ctx context.Context, in model.SourceMedia, enc model.EncodeOptions, choice Choice, opts Options) (model.OutputVideo, error) {
	if opts.FFmpegPath == "" {
		return model.OutputVideo{}, errors.New("ffmpeg path is required")
	}
	if opts.OutputPath == "" {
		return model.OutputVideo{}, errors.New("output path is required")
	}
	if in.InputPath == "" {
		return model.OutputVideo{}, errors.New("input path is required")
	}
	if enc.VideoKbps <= 0 {
		return model.OutputVideo{}, errors.New("video bitrate must be positive")
	}
	if err := util.EnsureDir(filepath.Dir(opts.OutputPath)); err != nil {
		return model.OutputVideo{}, fmt.Errorf("ensure output dir: %w", err)
	}

	runErr := runAttempt(ctx, in, enc, choice.Name, opts)
	fellBack := false
	used := choice.Name
	if runErr != nil {
		_ = util.RemoveIfExists(opts.OutputPath)
		if choice.Kind != KindHardware {
			return model.OutputVideo{}, fmt.Errorf("ffmpeg (%s) failed: %w", choice.Name, runErr)
		}

		// The one retry in the system: hardware failed, try libx264 once.
		if opts.Reporter != nil {
			opts.Reporter.Log(progress.Log{
				JobID:  opts.JobID,
				Stream: progress.StreamStderr,
				Line:   fmt.Sprintf("%s failed, falling back to %s", choice.Name, SoftwareEncoder),
			})
		}
		fellBack = true
		used = SoftwareEncoder
		if runErr = runAttempt(ctx, in, enc, SoftwareEncoder, opts); runErr != nil {
			_ = util.RemoveIfExists(opts.OutputPath)
			return model.OutputVideo{}, fmt.Errorf("ffmpeg failed with %s and software fallback: %w", choice.Name, runErr)
		}
	}

	fi, err := os.Stat(opts.OutputPath)
	if err != nil {
		return model.OutputVideo{}, fmt.Errorf("stat output: %w", err)
	}

	return model.OutputVideo{
		OutputPath:      opts.OutputPath,
		Bytes:           fi.Size(),
		UsedBitrateKbps: enc.VideoKbps,
		Encoder:         used,
		FellBack:        fellBack,
	}, nil
}

func runAttempt(ctx context.Context, in model.SourceMedia, enc model.EncodeOptions, encoderName string, opts Options) error {
	runner := opts.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}

	withProgress := opts.Reporter != nil
	args := BuildArgs(in.InputPath, enc, encoderName, opts.OutputPath, withProgress)

	var ps ProgressState
	spec := util.CmdSpec{
		Path:    opts.FFmpegPath,
		Args:    args,
		Verbose: opts.Verbose,
	}
	if withProgress {
		spec.StdoutLine = func(line string) {
			if u, ok := ps.UpdateFromLine(line, opts.JobID, in.DurationSec); ok {
				opts.Reporter.Update(u)
			}
		}
		spec.StderrLine = func(line string) {
			opts.Reporter.Log(progress.Log{JobID: opts.JobID, Stream: progress.StreamStderr, Line: line})
		}
	}

	_, err := runner.Run(ctx, spec)
	return err
}
