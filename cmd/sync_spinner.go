package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tentimesukulele/BobiPlanCheck/internal/application"
)

type replayedMsg application.DrainProgress

type drainFinishedMsg struct {
	result application.DrainResult
	err    error
}

// drainWork replays the queue and reports each replayed action to report.
type drainWork func(ctx context.Context, report func(application.DrainProgress)) (application.DrainResult, error)

// syncProgressModel shows how far a drain got: replayed/total, failures so
// far and the last endpoint touched.
type syncProgressModel struct {
	spinner  spinner.Model
	failed   lipgloss.Style
	last     application.DrainProgress
	started  bool
	result   application.DrainResult
	err      error
	finished bool
	work     tea.Cmd
}

func newSyncProgressModel(work tea.Cmd) syncProgressModel {
	return syncProgressModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		failed: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		work:   work,
	}
}

func (m syncProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

func (m syncProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case replayedMsg:
		m.last = application.DrainProgress(msg)
		m.started = true
		return m, nil
	case drainFinishedMsg:
		m.finished = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m syncProgressModel) View() string {
	if m.finished {
		return ""
	}
	if !m.started {
		return fmt.Sprintf("%s Syncing offline changes...", m.spinner.View())
	}

	line := fmt.Sprintf("%s Syncing offline changes %d/%d", m.spinner.View(), m.last.Done, m.last.Total)
	if m.last.Failed > 0 {
		line += " " + m.failed.Render(fmt.Sprintf("(%d failed)", m.last.Failed))
	}

	return line + fmt.Sprintf(" %s %s", m.last.Action.ReplayMethod(), m.last.Action.Endpoint)
}

// runSyncProgress drains the queue while a progress line is drawn on output.
func runSyncProgress(ctx context.Context, output io.Writer, work drainWork) (application.DrainResult, error) {
	var p *tea.Program
	workCmd := func() tea.Msg {
		result, err := work(ctx, func(progress application.DrainProgress) {
			p.Send(replayedMsg(progress))
		})
		return drainFinishedMsg{result: result, err: err}
	}

	p = tea.NewProgram(
		newSyncProgressModel(workCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return application.DrainResult{}, err
	}

	final, ok := finalModel.(syncProgressModel)
	if !ok {
		return application.DrainResult{}, fmt.Errorf("unexpected final sync model type %T", finalModel)
	}

	return final.result, final.err
}
