// Package pipeline plans and orchestrates the squish workflow:
// resolve metadata, compute the bitrate budget, pick a resolution tier,
// download if remote, probe, clamp to the source bitrate, encode, finalize.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"squish/internal/downloader"
	"squish/internal/encoder"
	"squish/internal/model"
	"squish/internal/probe"
	"squish/internal/progress"
	"squish/internal/util"
	"squish/internal/util/bitrate"
	"squish/internal/util/format"
	"squish/internal/util/media"
)

// Service orchestrates the resolve → budget → download → probe → encode →
// finalize workflow for one input.
type Service struct {
	dlPath      string
	ffmpegPath  string
	ffprobePath string
	opts        model.CLIOptions
	goos        string
	runner      util.CmdRunner
	reporter    progress.Reporter
	jobID       string
}

// Option configures a Service.
type Option func(*Service)

// WithDownloaderPath sets the downloader (yt-dlp/youtube-dl) binary path.
func WithDownloaderPath(p string) Option {
	return func(s *Service) { s.dlPath = p }
}

// WithFFmpegPath sets the ffmpeg binary path.
func WithFFmpegPath(p string) Option {
	return func(s *Service) { s.ffmpegPath = p }
}

// WithFFprobePath sets the ffprobe binary path.
func WithFFprobePath(p string) Option {
	return func(s *Service) { s.ffprobePath = p }
}

// WithCLIOptions sets the CLI options used for planning and execution.
func WithCLIOptions(o model.CLIOptions) Option {
	return func(s *Service) { s.opts = o }
}

// WithGOOS overrides the platform used for encoder negotiation (testing).
func WithGOOS(goos string) Option {
	return func(s *Service) { s.goos = goos }
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) { s.runner = r }
}

// WithReporter attaches a progress reporter (used by TUI).
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) { s.reporter = rp }
}

// WithJobID sets the job ID associated with reporter events.
func WithJobID(id string) Option {
	return func(s *Service) { s.jobID = id }
}

// NewService constructs a new Service with the provided options.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = util.NewDefaultRunner()
	}
	if s.goos == "" {
		s.goos = runtime.GOOS
	}
	return s
}

// Plan contains the computed plan for a job (for dry-run/introspection).
type Plan struct {
	OutputPath   string
	BudgetKbps   int // budget before the source clamp
	HeightPx     int
	HeightManual bool
	EncoderName  string
	EncoderKind  encoder.Kind

	DownloaderPath string
	FFmpegPath     string
	FFprobePath    string

	Input       string
	Title       string
	DurationSec float64
}

// Result returns the outcome of RunJob.
type Result struct {
	Input   string
	Planned bool
	Plan    *Plan
	Output  *model.OutputVideo
	Source  model.SourceMedia
	// TempDir is the downloaded workdir still on disk after the run; empty
	// when nothing was downloaded or auto-clean already removed it. The
	// caller owns the decision to delete or keep it.
	TempDir string
}

// RunJob executes the full pipeline for a single input (URL or local file).
// It never prints; when a Reporter is present, it emits progress events.
func (s *Service) RunJob(ctx context.Context, input string) (Result, error) {
	var res Result
	res.Input = input

	remote := util.IsRemote(input)
	if remote && s.dlPath == "" {
		return res, fmt.Errorf("downloader path is required for remote inputs")
	}
	if !s.opts.DryRun && s.ffmpegPath == "" {
		return res, fmt.Errorf("ffmpeg path is required")
	}
	if (!remote || !s.opts.DryRun) && s.ffprobePath == "" {
		return res, fmt.Errorf("ffprobe path is required")
	}
	if s.opts.TargetSizeMB <= 0 {
		return res, fmt.Errorf("target size must be positive")
	}

	// Step 1: resolve metadata. Remote inputs get a metadata-only yt-dlp
	// call first; the real download below is capped at the planned height.
	var (
		src     model.SourceMedia
		tempDir string
		probed  probe.Result
	)
	if remote {
		meta, dir, err := downloader.Download(ctx, input, s.downloadOptions(true, 0))
		tempDir = dir
		defer func() { s.cleanupOnError(&res, tempDir) }()
		if err != nil {
			return res, fail(FailSource, "metadata: %w", err)
		}
		src = meta
	} else {
		var err error
		src, probed, err = s.resolveLocal(ctx, input)
		if err != nil {
			return res, err
		}
	}
	res.Source = src

	// Step 2: bitrate budget from target size and duration.
	budget, err := bitrate.ComputeVideoKbps(s.opts.TargetSizeMB, src.DurationSec)
	if err != nil {
		return res, err
	}

	// Step 3: resolution tier. Selection sees the uncapped budget.
	height, manual := PlanHeight(s.opts, budget)

	outPath := filepath.Join(s.opts.OutDir, media.OutputBasename(src.BaseName, height, s.opts.TargetSizeMB)+media.Container)

	if s.opts.DryRun {
		pl := s.buildPlan(ctx, input, src, budget, height, manual, outPath)
		res.Planned = true
		res.Plan = pl
		s.emitPlanned(outPath)
		res.TempDir = s.settleTempDir(tempDir)
		return res, nil
	}

	// Step 4: fetch the media for remote inputs, then probe whatever file
	// we are about to encode.
	if remote {
		dl, dir, err := downloader.Download(ctx, input, s.downloadOptions(false, height))
		if dir != "" && dir != tempDir {
			// Each Download call makes its own workdir; drop the metadata one.
			_ = os.RemoveAll(tempDir)
			tempDir = dir
		}
		if err != nil {
			return res, fail(FailSource, "download: %w", err)
		}
		src.InputPath = dl.InputPath

		s.emitStage(progress.StageProbing, "Probing source")
		probed, err = probe.File(ctx, src.InputPath, probe.Options{
			FFprobePath: s.ffprobePath,
			Verbose:     s.opts.Verbose,
			Runner:      s.runner,
		})
		if err != nil {
			return res, fail(FailSource, "probe: %w", err)
		}
	}
	if probed.Height > 0 {
		src.Width, src.Height = probed.Width, probed.Height
	}
	if src.DurationSec <= 0 && probed.DurationSec > 0 {
		src.DurationSec = probed.DurationSec
	}
	res.Source = src

	// Step 5: clamp the budget to the source bitrate and decide scaling.
	effective := bitrate.ClampToSource(budget, probed.SourceBitrate())
	enc := model.EncodeOptions{
		VideoKbps:        effective,
		TargetHeight:     height,
		Scale:            bitrate.NeedsScale(src.Height, height),
		AudioBitrateKbps: bitrate.AudioKbps,
	}

	// Step 6: negotiate the encoder and run with the one fallback.
	choice, err := s.negotiate(ctx)
	if err != nil {
		return res, err
	}
	out, err := encoder.Encode(ctx, src, enc, choice, encoder.Options{
		FFmpegPath: s.ffmpegPath,
		Verbose:    s.opts.Verbose,
		OutputPath: outPath,
		Reporter:   s.reporter,
		JobID:      s.jobID,
		Runner:     s.runner,
	})
	if err != nil {
		return res, fail(FailEncode, "encode: %w", err)
	}

	// Step 7: finalize; undershooting outputs get the honest size tag.
	s.emitStage(progress.StageFinalizing, "Finalizing")
	finalPath, err := media.RenameForActualSize(out.OutputPath, s.opts.TargetSizeMB, out.Bytes)
	if err != nil {
		return res, err
	}
	out.OutputPath = finalPath

	s.emitSaved(out)
	res.Output = &out
	res.TempDir = s.settleTempDir(tempDir)
	return res, nil
}

// resolveLocal probes a local file and derives its metadata descriptor.
func (s *Service) resolveLocal(ctx context.Context, path string) (model.SourceMedia, probe.Result, error) {
	s.emitStage(progress.StageProbing, "Probing source")
	pr, err := probe.File(ctx, path, probe.Options{
		FFprobePath: s.ffprobePath,
		Verbose:     s.opts.Verbose,
		Runner:      s.runner,
	})
	if err != nil {
		return model.SourceMedia{}, probe.Result{}, fail(FailSource, "probe: %w", err)
	}
	if pr.DurationSec <= 0 {
		return model.SourceMedia{}, probe.Result{}, fail(FailSource, "probe: no duration for %q", path)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return model.SourceMedia{
		InputPath:   path,
		DurationSec: pr.DurationSec,
		BaseName:    util.SanitizeFilename(base),
		Title:       base,
		Width:       pr.Width,
		Height:      pr.Height,
		Locator:     path,
	}, pr, nil
}

func (s *Service) negotiate(ctx context.Context) (encoder.Choice, error) {
	if s.opts.Software {
		return encoder.Choice{Kind: encoder.KindSoftware, Name: encoder.SoftwareEncoder}, nil
	}
	available, err := encoder.ListEncoders(ctx, s.ffmpegPath, s.runner, s.opts.Verbose)
	if err != nil {
		return encoder.Choice{}, err
	}
	return encoder.Negotiate(s.goos, available), nil
}

func (s *Service) buildPlan(ctx context.Context, input string, src model.SourceMedia, budget, height int, manual bool, outPath string) *Plan {
	pl := &Plan{
		OutputPath:     outPath,
		BudgetKbps:     budget,
		HeightPx:       height,
		HeightManual:   manual,
		EncoderName:    encoder.SoftwareEncoder,
		EncoderKind:    encoder.KindSoftware,
		DownloaderPath: s.dlPath,
		FFmpegPath:     s.ffmpegPath,
		FFprobePath:    s.ffprobePath,
		Input:          input,
		Title:          src.Title,
		DurationSec:    src.DurationSec,
	}
	if s.ffmpegPath != "" {
		if choice, err := s.negotiate(ctx); err == nil {
			pl.EncoderName = choice.Name
			pl.EncoderKind = choice.Kind
		}
	}
	return pl
}

func (s *Service) downloadOptions(metaOnly bool, maxHeight int) downloader.Options {
	return downloader.Options{
		DownloaderPath: s.dlPath,
		Verbose:        s.opts.Verbose,
		MaxHeight:      maxHeight,
		MetadataOnly:   metaOnly,
		Reporter:       s.reporter,
		JobID:          s.jobID,
		Runner:         s.runner,
	}
}

// settleTempDir applies the cleanup policy after a successful run: keep-temp
// always wins, auto-clean removes silently, otherwise the dir is handed to
// the caller (which may prompt).
func (s *Service) settleTempDir(tempDir string) string {
	if tempDir == "" {
		return ""
	}
	if s.opts.KeepTemp {
		return tempDir
	}
	if s.opts.AutoClean {
		_ = os.RemoveAll(tempDir)
		return ""
	}
	return tempDir
}

// cleanupOnError removes the temp workdir when RunJob exits without setting
// Result.TempDir (i.e. on the error paths), unless the user asked to keep it.
func (s *Service) cleanupOnError(res *Result, tempDir string) {
	if tempDir == "" || res.TempDir != "" {
		return
	}
	if s.opts.KeepTemp {
		res.TempDir = tempDir
		return
	}
	_ = os.RemoveAll(tempDir)
}

func (s *Service) emitStage(st progress.Stage, msg string) {
	if s.reporter == nil {
		return
	}
	s.reporter.Update(progress.Update{JobID: s.jobID, Stage: st, Percent: -1, Message: msg})
}

// emitPlanned sends a final "planned" update and reporter result for TUI.
func (s *Service) emitPlanned(outPath string) {
	if s.reporter == nil {
		return
	}
	name := filepath.Base(outPath)
	s.reporter.Update(progress.Update{
		JobID:   s.jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Planned: %s (dry-run)", name),
	})
	s.reporter.Result(progress.Result{JobID: s.jobID, OutputPath: outPath})
}

// emitSaved sends a final "saved" update and reporter result for TUI.
func (s *Service) emitSaved(out model.OutputVideo) {
	if s.reporter == nil {
		return
	}
	name := filepath.Base(out.OutputPath)
	size := format.HumanizeBytes(out.Bytes)
	s.reporter.Update(progress.Update{
		JobID:   s.jobID,
		Stage:   progress.StageCompleted,
		Percent: 100,
		Message: fmt.Sprintf("Saved: %s (%s)", name, size),
	})
	s.reporter.Result(progress.Result{
		JobID:      s.jobID,
		OutputPath: out.OutputPath,
		Bytes:      out.Bytes,
	})
}
