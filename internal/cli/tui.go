package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/statsnap/pkg/pipeline"
)

// spinnerFrames animate the job currently running.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// =============================================================================
// FetchModel - Live view of a fetch run
// =============================================================================

// jobDoneMsg reports the completion of one job.
type jobDoneMsg struct {
	result *pipeline.Result
	err    error
}

// tickMsg advances the spinner.
type tickMsg struct{}

// FetchModel is the bubbletea model that runs fetch jobs one after another
// and shows a spinner for the job in progress.
type FetchModel struct {
	ctx    context.Context
	cancel context.CancelFunc
	run    func(context.Context, pipeline.Job) (*pipeline.Result, error)

	Jobs    []pipeline.Job
	Current int
	Frame   int
	Results []*pipeline.Result
	Err     error
	Done    bool
}

// NewFetchModel creates a model running jobs through run.
func NewFetchModel(ctx context.Context, run func(context.Context, pipeline.Job) (*pipeline.Result, error), jobs []pipeline.Job) FetchModel {
	ctx, cancel := context.WithCancel(ctx)
	return FetchModel{ctx: ctx, cancel: cancel, run: run, Jobs: jobs}
}

func (m FetchModel) Init() tea.Cmd {
	if len(m.Jobs) == 0 {
		return tea.Quit
	}
	return tea.Batch(m.runJob(0), tick())
}

func (m FetchModel) runJob(i int) tea.Cmd {
	job := m.Jobs[i]
	ctx, run := m.ctx, m.run
	return func() tea.Msg {
		res, err := run(ctx, job)
		return jobDoneMsg{result: res, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m FetchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancel()
			m.Err = context.Canceled
			m.Done = true
			return m, tea.Quit
		}
	case tickMsg:
		if m.Done {
			return m, nil
		}
		m.Frame++
		return m, tick()
	case jobDoneMsg:
		if m.Done {
			return m, nil
		}
		if msg.err != nil {
			m.Err = msg.err
			m.Done = true
			return m, tea.Quit
		}
		m.Results = append(m.Results, msg.result)
		m.Current++
		if m.Current >= len(m.Jobs) {
			m.Done = true
			return m, tea.Quit
		}
		return m, m.runJob(m.Current)
	}
	return m, nil
}

func (m FetchModel) View() string {
	if m.Done {
		return ""
	}
	var b strings.Builder
	for _, res := range m.Results {
		b.WriteString(styleOK.Render(markOK) + " " + styleDim.Render(res.Snapshot) + "\n")
	}
	if m.Current < len(m.Jobs) {
		frame := spinnerFrames[m.Frame%len(spinnerFrames)]
		name := m.Jobs[m.Current].Collector.Name()
		b.WriteString(styleNumber.Render(frame) + " " + styleDim.Render(fmt.Sprintf("Fetching %s...", name)) + "\n")
	}
	b.WriteString(styleDim.Render(fmt.Sprintf("  [%d/%d]  q quit", m.Current, len(m.Jobs))))
	return b.String()
}

// runFetchTUI runs jobs under the interactive view and returns the results
// of the jobs that finished.
func runFetchTUI(ctx context.Context, runner *pipeline.Runner, jobs []pipeline.Job) ([]*pipeline.Result, error) {
	model := NewFetchModel(ctx, runner.Run, jobs)
	defer model.cancel()

	final, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	fm := final.(FetchModel)
	return fm.Results, fm.Err
}
