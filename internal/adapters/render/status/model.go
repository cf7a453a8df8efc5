package status

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tentimesukulele/BobiPlanCheck/internal/application"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type panelRenderedMsg struct {
	slot int
	text string
}

// model renders every dashboard panel as its own command and lays them out
// in slot order once the last one arrives.
type model struct {
	panels   []func() string
	rendered []string
	missing  int
}

func newModel(snapshot application.DashboardSnapshot, opts RenderOptions) model {
	panels := dashboardPanels(snapshot, opts, newStyles())

	return model{
		panels:   panels,
		rendered: make([]string, len(panels)),
		missing:  len(panels),
	}
}

func (m model) Init() tea.Cmd {
	if m.missing == 0 {
		return tea.Quit
	}

	cmds := make([]tea.Cmd, 0, len(m.panels))
	for slot, render := range m.panels {
		cmds = append(cmds, func() tea.Msg {
			return panelRenderedMsg{slot: slot, text: render()}
		})
	}

	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	panel, ok := msg.(panelRenderedMsg)
	if !ok || panel.slot < 0 || panel.slot >= len(m.rendered) {
		return m, nil
	}

	rendered := append([]string(nil), m.rendered...)
	rendered[panel.slot] = panel.text
	m.rendered = rendered
	m.missing--
	if m.missing == 0 {
		return m, tea.Quit
	}

	return m, nil
}

func (m model) View() string {
	if m.missing > 0 {
		return ""
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.rendered...)
}

// Render lays out the household dashboard without touching the terminal.
func Render(snapshot application.DashboardSnapshot, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(snapshot, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
