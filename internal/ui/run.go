package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"squish/internal/model"
)

// Run launches the TUI for the provided inputs and blocks until all jobs
// finish or the user quits.
func Run(ctx context.Context, inputs []string, opts model.CLIOptions) error {
	m := NewModel(ctx, inputs, opts)
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		var failed []string
		for _, id := range fm.jobOrder {
			js := fm.jobs[id]
			if js != nil && js.err != nil {
				input := js.input
				msg := js.err.Error()
				if input != "" {
					failed = append(failed, fmt.Sprintf("- %s: %s", input, msg))
				} else {
					failed = append(failed, fmt.Sprintf("- %s", msg))
				}
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d job(s) failed:\n%s", len(failed), strings.Join(failed, "\n"))
		}
	}
	return nil
}
