package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"squish/internal/encoder"
	"squish/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies and encoder support",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			dl, derr := deps.FindDownloader(getPersistentString(cmd, "dl-binary", ""))
			if derr != nil {
				return &ExitError{Code: ExitMissingDep, Err: derr}
			}
			ff, ferr := deps.FindFFmpeg()
			if ferr != nil {
				return &ExitError{Code: ExitMissingDep, Err: ferr}
			}
			fp, perr := deps.FindFFprobe()
			if perr != nil {
				return &ExitError{Code: ExitMissingDep, Err: perr}
			}
			fmt.Fprintf(out, "Downloader: %s\n", dl)
			fmt.Fprintf(out, "FFmpeg:     %s\n", ff)
			fmt.Fprintf(out, "FFprobe:    %s\n", fp)

			available, err := encoder.ListEncoders(cmd.Context(), ff, nil, false)
			if err != nil {
				return &ExitError{Code: ExitMissingDep, Err: err}
			}
			hw := encoder.HardwareCandidates(runtime.GOOS, available)
			if len(hw) == 0 {
				fmt.Fprintf(out, "Hardware:   none for %s; will use %s\n", runtime.GOOS, encoder.SoftwareEncoder)
			} else {
				fmt.Fprintf(out, "Hardware:   %s (first wins)\n", strings.Join(hw, ", "))
			}
			return nil
		},
	}
}
