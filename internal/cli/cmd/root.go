// Package cmd defines the squish CLI commands.
package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"squish/internal/config"
)

const (
	ExitOK             = 0
	ExitCLIError       = 1
	ExitMissingDep     = 2
	ExitSourceError    = 3
	ExitTranscodeError = 4
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "squish [urls or files...]",
		Short:         "Shrink videos to a target file size",
		Long:          "Squish transcodes videos down to a byte budget you pick. Give it a link or a local file and a size in megabytes, and it works out the bitrate and resolution that fit, downloads if needed, and hands back an MP4 named after what it actually weighs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Bare `squish <input>` behaves like `squish run <input>`.
			return runExecute(cmd, args, runMode{
				ForceTUI:   false,
				DryRunOnly: false,
			})
		},
	}

	// Persistent flags available to all subcommands
	root.PersistentFlags().StringP("out-dir", "o", ".", "Output directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "Show full subprocess commands/output")
	root.PersistentFlags().String("dl-binary", "", "Path to yt-dlp or youtube-dl")
	root.PersistentFlags().Int("jobs", 2, "Max concurrent jobs in TUI")

	// Also bind run-specific flags on root, so `squish <url>` works directly.
	bindRunFlags(root.Flags())

	// Subcommands
	root.AddCommand(newRunCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func bindRunFlags(fs *pflag.FlagSet) {
	fs.IntP("size", "s", 1000, "Target output size in MB")
	fs.IntP("resolution", "r", 0, "Force output height in px (360, 480, 720, 1080); 0 picks by bitrate")
	fs.BoolP("auto-clean", "y", false, "Remove temporary downloads without asking")
	fs.Bool("keep-temp", false, "Keep temporary downloads")
	fs.Bool("software", false, "Skip hardware encoders; use libx264 directly")
	fs.Bool("no-ui", false, "Disable TUI; use plain textual output")
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	_ = config.Init(root)
	return root.ExecuteContext(ctx)
}

// Persistent flag helpers with precedence: flag > env/config (viper) > default.
func getPersistentString(cmd *cobra.Command, name, def string) string {
	if f := cmd.InheritedFlags().Lookup(name); f != nil && f.Changed {
		return f.Value.String()
	}
	if v := viper.GetString(viperKey(name)); v != "" {
		return v
	}
	v, err := cmd.InheritedFlags().GetString(name)
	if err != nil || v == "" {
		return def
	}
	return v
}

func getPersistentBool(cmd *cobra.Command, name string, def bool) bool {
	if f := cmd.InheritedFlags().Lookup(name); f != nil && f.Changed {
		v, err := cmd.InheritedFlags().GetBool(name)
		if err == nil {
			return v
		}
	}
	if viper.IsSet(viperKey(name)) {
		return viper.GetBool(viperKey(name))
	}
	return def
}

func getPersistentInt(cmd *cobra.Command, name string, def int) int {
	if f := cmd.InheritedFlags().Lookup(name); f != nil && f.Changed {
		v, err := cmd.InheritedFlags().GetInt(name)
		if err == nil {
			return v
		}
	}
	if viper.IsSet(viperKey(name)) {
		return viper.GetInt(viperKey(name))
	}
	return def
}

func viperKey(flag string) string {
	switch flag {
	case "out-dir":
		return "out_dir"
	case "dl-binary":
		return "dl_binary"
	default:
		return flag
	}
}

func ensureDir(path string) error {
	if path == "" {
		path = "."
	}
	return os.MkdirAll(filepath.Clean(path), 0o755)
}
