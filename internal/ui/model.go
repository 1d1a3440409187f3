// Package ui renders the interactive multi-job view with bubbletea.
package ui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"squish/internal/model"
	"squish/internal/pipeline"
	"squish/internal/progress"
	"squish/internal/util"
	"squish/internal/util/deps"
)

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	// App state (deps)
	depsChecked    bool
	depsErr        error
	downloaderPath string
	ffmpegPath     string
	ffprobePath    string

	// Jobs
	inputs   []string
	opts     model.CLIOptions
	jobOrder []string
	jobs     map[string]*jobState
	selected int
	workers  int
	running  int
	next     int // next index in inputs to start

	// UI
	width, height int
	styles        Styles

	// Internal event channel used by reporter to feed tea messages
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, inputs []string, opts model.CLIOptions) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	jobs := make(map[string]*jobState, len(inputs))
	order := make([]string, 0, len(inputs))
	for i, in := range inputs {
		id := toID(i, in)
		js := newJobState(id, in, sty)
		js.bar = bubblesprogress.New(bubblesprogress.WithDefaultGradient(), bubblesprogress.WithWidth(40))
		jobs[id] = &js
		order = append(order, id)
	}

	workers := opts.Jobs
	if workers <= 0 {
		workers = 2
	}

	return Model{
		ctx:      c,
		cancel:   cancel,
		inputs:   inputs,
		opts:     opts,
		jobs:     jobs,
		jobOrder: order,
		selected: 0,
		workers:  workers,
		styles:   sty,
		eventCh:  make(chan tea.Msg, 256),
	}
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		sp := m.jobs[id].spinner
		cmds = append(cmds, sp.Tick)
	}
	// Listen for reporter events
	cmds = append(cmds, m.listenEventsCmd())
	// Kick off dependency check
	cmds = append(cmds, m.checkDepsCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case depsCheckedMsg:
		m.depsChecked = true
		m.depsErr = msg.Err
		m.downloaderPath = msg.DownloaderPath
		m.ffmpegPath = msg.FFmpegPath
		m.ffprobePath = msg.FFprobePath
		if m.depsErr != nil {
			// Mark all as errored
			for _, id := range m.jobOrder {
				js := m.jobs[id]
				js.stage = progress.StageError
				js.status = fmt.Sprintf("Dependency error: %v", m.depsErr)
				js.err = m.depsErr
				js.done = true
			}
			return m, tea.Quit
		}
		// Start initial workers
		return m, m.startNextWorkersCmd()

	case jobUpdateMsg:
		u := msg.U
		if js, ok := m.jobs[u.JobID]; ok {
			js.stage = u.Stage
			js.percent = u.Percent
			js.status = u.Message
			if u.Bytes != nil {
				js.bytes = *u.Bytes
			}
		}
	case jobLogMsg:
		l := msg.L
		if js, ok := m.jobs[l.JobID]; ok {
			// small ring buffer
			line := strings.TrimRight(l.Line, "\r\n")
			if len(js.logsRing) > 1000 {
				js.logsRing = js.logsRing[1:]
			}
			js.logsRing = append(js.logsRing, line)
		}
	case jobResultMsg:
		r := msg.R
		if js, ok := m.jobs[r.JobID]; ok {
			js.done = true
			js.err = r.Err
			if r.Err == nil {
				js.stage = progress.StageCompleted
				js.percent = 100
				js.outputPath = r.OutputPath
				js.bytes = r.Bytes
				if js.status == "" {
					js.status = "Completed"
				}
			} else {
				js.stage = progress.StageError
				js.status = r.Err.Error()
				js.percent = -1
			}
			m.running--
			// Start next job if any remain
			return m, m.startNextWorkersCmd()
		}
	case allDoneMsg:
		return m, tea.Quit
	}

	// Update per-job components (spinner)
	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		var c tea.Cmd
		js.spinner, c = js.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	// Keep listening for events
	cmds = append(cmds, m.listenEventsCmd())
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	summary := m.viewSummary()
	if summary != "" {
		return m.viewHeader() + "\n\n" + m.viewJobs() + "\n" + summary
	}
	return m.viewHeader() + "\n\n" + m.viewJobs()
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		case msg := <-m.eventCh:
			return msg
		}
	}
}

func (m Model) checkDepsCmd() tea.Cmd {
	return func() tea.Msg {
		var out depsCheckedMsg
		if m.anyRemote() {
			dl, derr := deps.FindDownloader(m.opts.DLBinary)
			if derr != nil {
				return depsCheckedMsg{Err: derr}
			}
			out.DownloaderPath = dl
		}
		ff, ferr := deps.FindFFmpeg()
		if ferr != nil {
			return depsCheckedMsg{Err: ferr}
		}
		out.FFmpegPath = ff
		fp, perr := deps.FindFFprobe()
		if perr != nil {
			return depsCheckedMsg{Err: perr}
		}
		out.FFprobePath = fp
		return out
	}
}

func (m Model) anyRemote() bool {
	for _, in := range m.inputs {
		if util.IsRemote(in) {
			return true
		}
	}
	return false
}

func (m Model) startNextWorkersCmd() tea.Cmd {
	return func() tea.Msg {
		// If canceled, stop
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		default:
		}
		for m.running < m.workers && m.next < len(m.inputs) {
			idx := m.next
			jobID := m.jobOrder[idx]
			input := m.inputs[idx]
			m.next++
			m.running++
			// Mark job started
			if js := m.jobs[jobID]; js != nil {
				js.started = true
				js.status = "Queued"
				js.stage = progress.StageMetadata
			}
			// Launch job goroutine
			go m.runJob(jobID, input)
		}
		if m.next >= len(m.inputs) && m.running == 0 {
			return allDoneMsg{}
		}
		// No specific message now; rely on reporter events
		return nil
	}
}

func (m Model) runJob(jobID, input string) {
	rep := teaReporter{ch: m.eventCh}

	svc := pipeline.NewService(
		pipeline.WithDownloaderPath(m.downloaderPath),
		pipeline.WithFFmpegPath(m.ffmpegPath),
		pipeline.WithFFprobePath(m.ffprobePath),
		pipeline.WithCLIOptions(m.opts),
		pipeline.WithReporter(rep),
		pipeline.WithJobID(jobID),
	)

	res, err := svc.RunJob(m.ctx, input)

	// Interactive runs clean up after themselves unless the user asked
	// otherwise.
	if res.TempDir != "" && !m.opts.KeepTemp {
		_ = os.RemoveAll(res.TempDir)
	}

	if err != nil {
		rep.Result(progress.Result{JobID: jobID, Err: err})
	}
	// Success results were already emitted by the service.
}

type teaReporter struct {
	ch chan tea.Msg
}

func (r teaReporter) Update(u progress.Update) {
	// Block on completion messages to ensure they're delivered
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.ch <- jobUpdateMsg{U: u}
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}
func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}
func (r teaReporter) Result(res progress.Result) {
	// Always block on Result messages - they're critical
	r.ch <- jobResultMsg{R: res}
}

func toID(i int, _ string) string {
	return "job-" + strconv.Itoa(i)
}
