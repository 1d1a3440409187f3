package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"squish/internal/model"
	"squish/internal/pipeline"
	"squish/internal/ui"
	"squish/internal/util"
	"squish/internal/util/bitrate"
	"squish/internal/util/deps"
)

type runMode struct {
	ForceTUI   bool
	DryRunOnly bool
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "run [urls or files...]",
		Short:         "Transcode inputs down to the target size",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		PreRunE:       runPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{
				ForceTUI:   false,
				DryRunOnly: false,
			})
		},
	}
	// Bind same flags as root for explicit subcommand usage
	bindRunFlags(cmd.Flags())
	return cmd
}

type ctxKey string

const runInputsKey ctxKey = "runInputs"

type runInputs struct {
	Inputs  []string
	Options model.CLIOptions
}

func runPreRun(cmd *cobra.Command, args []string) error {
	inputs, opts, err := assembleRunInputs(cmd, args)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	ctx := context.WithValue(cmd.Context(), runInputsKey, runInputs{
		Inputs:  inputs,
		Options: opts,
	})
	cmd.SetContext(ctx)
	return nil
}

func assembleRunInputs(cmd *cobra.Command, args []string) ([]string, model.CLIOptions, error) {
	// Persistent flags with precedence: flag > env/config > default
	outDir := getPersistentString(cmd, "out-dir", ".")
	verbose := getPersistentBool(cmd, "verbose", false)
	dlBinary := getPersistentString(cmd, "dl-binary", "")
	jobs := getPersistentInt(cmd, "jobs", 2)
	if jobs <= 0 {
		jobs = 2
	}

	// Run flags
	size, _ := cmd.Flags().GetInt("size")
	resolution, _ := cmd.Flags().GetInt("resolution")
	autoClean, _ := cmd.Flags().GetBool("auto-clean")
	keepTemp, _ := cmd.Flags().GetBool("keep-temp")
	software, _ := cmd.Flags().GetBool("software")
	noUI, _ := cmd.Flags().GetBool("no-ui")

	if size <= 0 {
		return nil, model.CLIOptions{}, fmt.Errorf("invalid --size: %d (must be a positive MB count)", size)
	}
	if resolution != 0 && !bitrate.ValidHeight(resolution) {
		return nil, model.CLIOptions{}, fmt.Errorf("invalid --resolution: %d (valid: 360|480|720|1080)", resolution)
	}
	if autoClean && keepTemp {
		return nil, model.CLIOptions{}, errors.New("--auto-clean and --keep-temp are mutually exclusive")
	}

	// Input validation: URLs or existing local files.
	var inputs []string
	for _, raw := range args {
		if err := util.ValidateInput(raw); err != nil {
			return nil, model.CLIOptions{}, err
		}
		inputs = append(inputs, raw)
	}

	opts := model.CLIOptions{
		OutDir:       filepath.Clean(outDir),
		TargetSizeMB: size,
		Resolution:   resolution,
		AutoClean:    autoClean,
		KeepTemp:     keepTemp,
		Software:     software,
		DLBinary:     dlBinary,
		Verbose:      verbose,
		NoUI:         noUI,
		Jobs:         jobs,
	}
	return inputs, opts, nil
}

func runExecute(cmd *cobra.Command, args []string, mode runMode) error {
	// Grab inputs from context; root's RunE has no PreRunE, so assemble then.
	var in runInputs
	if v := cmd.Context().Value(runInputsKey); v != nil {
		in = v.(runInputs)
	} else {
		inputs, opts, err := assembleRunInputs(cmd, args)
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		in = runInputs{Inputs: inputs, Options: opts}
	}

	if mode.DryRunOnly {
		in.Options.DryRun = true
		in.Options.NoUI = true
	}

	if err := ensureDir(in.Options.OutDir); err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("create output dir: %v", err)}
	}

	// TUI path (forced or auto if TTY and not disabled)
	useTUI := mode.ForceTUI || (!in.Options.NoUI && isTerminal())
	if useTUI && !mode.DryRunOnly {
		if err := ui.Run(cmd.Context(), in.Inputs, in.Options); err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		return nil
	}

	dlPath, ffmpegPath, ffprobePath, err := resolveTools(in)
	if err != nil {
		return err
	}

	for _, input := range in.Inputs {
		if err := processOne(cmd.Context(), input, in, dlPath, ffmpegPath, ffprobePath); err != nil {
			var ee *ExitError
			if errors.As(err, &ee) {
				return ee
			}
			return &ExitError{Code: ExitCLIError, Err: err}
		}
	}
	return nil
}

// resolveTools locates the external binaries the run needs. The downloader is
// only required when at least one input is remote, and ffprobe is required for
// dry-runs only when a local input has to be probed for its duration.
func resolveTools(in runInputs) (dlPath, ffmpegPath, ffprobePath string, err error) {
	anyRemote, anyLocal := false, false
	for _, input := range in.Inputs {
		if util.IsRemote(input) {
			anyRemote = true
		} else {
			anyLocal = true
		}
	}
	if anyRemote {
		dlPath, err = deps.FindDownloader(in.Options.DLBinary)
		if err != nil {
			return "", "", "", &ExitError{Code: ExitMissingDep, Err: err}
		}
	}
	if in.Options.DryRun {
		if anyLocal {
			// Local dry-run still probes for duration.
			ffprobePath, err = deps.FindFFprobe()
			if err != nil {
				return "", "", "", &ExitError{Code: ExitMissingDep, Err: err}
			}
		}
		// Metadata alone is enough for the plan, but ffmpeg makes the
		// planned encoder accurate when present.
		ffmpegPath, _ = deps.FindFFmpeg()
		return dlPath, ffmpegPath, ffprobePath, nil
	}
	ffmpegPath, err = deps.FindFFmpeg()
	if err != nil {
		return "", "", "", &ExitError{Code: ExitMissingDep, Err: err}
	}
	ffprobePath, err = deps.FindFFprobe()
	if err != nil {
		return "", "", "", &ExitError{Code: ExitMissingDep, Err: err}
	}
	return dlPath, ffmpegPath, ffprobePath, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func processOne(ctx context.Context, input string, in runInputs, dlPath, ffmpegPath, ffprobePath string) error {
	svc := pipeline.NewService(
		pipeline.WithDownloaderPath(dlPath),
		pipeline.WithFFmpegPath(ffmpegPath),
		pipeline.WithFFprobePath(ffprobePath),
		pipeline.WithCLIOptions(in.Options),
	)

	res, err := svc.RunJob(ctx, input)
	if err != nil {
		return exitErrorFor(err)
	}

	if res.Planned {
		printPlan(input, in.Options, res)
	} else if res.Output != nil {
		fmt.Printf("Saved: %s (%0.2f MB)\n", res.Output.OutputPath, float64(res.Output.Bytes)/(1024*1024))
		if res.Output.FellBack {
			fmt.Fprintf(os.Stderr, "note: hardware encoder failed; used %s\n", res.Output.Encoder)
		}
	}

	if res.TempDir != "" && !in.Options.KeepTemp {
		maybeCleanTemp(res.TempDir)
	} else if res.TempDir != "" {
		fmt.Fprintf(os.Stderr, "kept temp dir: %s\n", res.TempDir)
	}
	return nil
}

// exitErrorFor maps a pipeline failure onto the process exit code scheme.
func exitErrorFor(err error) error {
	if errors.Is(err, bitrate.ErrInfeasibleTarget) {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	switch pipeline.StageOf(err) {
	case pipeline.FailSource:
		return &ExitError{Code: ExitSourceError, Err: err}
	case pipeline.FailEncode:
		return &ExitError{Code: ExitTranscodeError, Err: err}
	}
	return &ExitError{Code: ExitCLIError, Err: err}
}

// maybeCleanTemp asks before deleting when stdin is interactive; otherwise it
// cleans up silently. The --keep-temp and --auto-clean flags bypass this.
func maybeCleanTemp(tempDir string) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		_ = os.RemoveAll(tempDir)
		return
	}
	fmt.Fprintf(os.Stderr, "Remove temporary download dir %s? [Y/n] ", tempDir)
	sc := bufio.NewScanner(os.Stdin)
	if sc.Scan() {
		ans := strings.ToLower(strings.TrimSpace(sc.Text()))
		if ans == "n" || ans == "no" {
			fmt.Fprintf(os.Stderr, "kept temp dir: %s\n", tempDir)
			return
		}
	}
	_ = os.RemoveAll(tempDir)
}

// printPlan outputs a dry-run plan of actions without executing them.
func printPlan(input string, opts model.CLIOptions, res pipeline.Result) {
	pl := res.Plan
	fmt.Println("Dry-run plan:")
	fmt.Printf("- Input:          %s\n", input)
	if pl.Title != "" {
		fmt.Printf("- Title:          %s\n", pl.Title)
	}
	fmt.Printf("- Duration:       %0.1fs\n", pl.DurationSec)
	if pl.DownloaderPath != "" {
		fmt.Printf("- Downloader:     %s\n", pl.DownloaderPath)
	}
	if pl.FFmpegPath != "" {
		fmt.Printf("- FFmpeg:         %s\n", pl.FFmpegPath)
	}
	fmt.Printf("- Output dir:     %s\n", opts.OutDir)
	fmt.Printf("- Output path:    %s\n", pl.OutputPath)
	fmt.Printf("- Target size:    %d MB\n", opts.TargetSizeMB)
	fmt.Printf("- Video bitrate:  %d kbps (before source clamp)\n", pl.BudgetKbps)
	how := "by bitrate"
	if pl.HeightManual {
		how = "forced"
	}
	fmt.Printf("- Resolution:     %dp (%s)\n", pl.HeightPx, how)
	fmt.Printf("- Encoder:        %s (%s)\n", pl.EncoderName, pl.EncoderKind)
}
