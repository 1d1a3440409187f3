package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"squish/internal/progress"
)

type jobState struct {
	id     string
	input  string
	stage  progress.Stage
	status string
	err    error
	done   bool

	outputPath string
	bytes      int64
	percent    float64 // -1 means unknown

	spinner spinner.Model
	bar     bubblesprogress.Model

	started bool

	// Recent subprocess output, kept small.
	logsRing []string
}

func newJobState(id, input string, styles Styles) jobState {
	sp := spinner.New()
	sp.Style = styles.Spinner
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(40),
	)
	return jobState{
		id:      id,
		input:   input,
		stage:   progress.StageMetadata,
		status:  "Queued",
		percent: -1,
		spinner: sp,
		bar:     bar,
	}
}
