package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-combo/pkg/combo"
	"github.com/dd0wney/cluso-combo/pkg/perturb"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 2).
			MarginLeft(2)

	barFullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF"))
	barEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

const (
	barWidth   = 40
	recentRows = 10
)

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Quit} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Quit}} }

// attemptMsg carries one finished perturbation.
type attemptMsg perturb.Attempt

// doneMsg ends the run.
type doneMsg struct {
	result *combo.Result
	err    error
}

type model struct {
	input    string
	budget   int
	spinner  spinner.Model
	attempts table.Model
	help     help.Model

	done         int
	improvements int
	best         float64
	last         perturb.Attempt
	started      time.Time

	result *combo.Result
	err    error
}

func newModel(input string, budget int) model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 5},
			{Title: "Strategy", Width: 9},
			{Title: "Pattern", Width: 9},
			{Title: "Modularity", Width: 12},
			{Title: "Best", Width: 12},
			{Title: "", Width: 3},
		}),
		table.WithHeight(recentRows),
	)

	return model{
		input:    input,
		budget:   budget,
		spinner:  s,
		attempts: t,
		help:     help.New(),
		started:  time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}

	case attemptMsg:
		a := perturb.Attempt(msg)
		m.done = a.Index
		m.best = a.Best
		m.last = a
		if a.Improved {
			m.improvements++
		}
		m.attempts.SetRows(append([]table.Row{attemptRow(a)}, limitRows(m.attempts.Rows(), recentRows-1)...))
		return m, nil

	case doneMsg:
		m.result, m.err = msg.result, msg.err
		if msg.result != nil {
			m.best = msg.result.Modularity
			m.done = msg.result.Attempts
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func attemptRow(a perturb.Attempt) table.Row {
	mark := ""
	switch {
	case a.Improved:
		mark = "▲"
	case a.Skipped:
		mark = "-"
	}
	return table.Row{
		fmt.Sprintf("%d", a.Index),
		a.Strategy,
		a.Pattern,
		fmt.Sprintf("%.6f", a.Modularity),
		fmt.Sprintf("%.6f", a.Best),
		mark,
	}
}

func limitRows(rows []table.Row, n int) []table.Row {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Combo: " + m.input))
	s.WriteString("\n\n")

	status := m.spinner.View() + " optimizing"
	switch {
	case m.err != nil:
		status = errorStyle.Render("failed: " + m.err.Error())
	case m.result != nil:
		status = successStyle.Render(fmt.Sprintf("done: %d communities", m.result.Communities))
	}

	stats := fmt.Sprintf("%s\n\n%s %d/%d\nbest modularity  %.6f\nimprovements     %d\nelapsed          %s",
		status,
		progressBar(m.done, m.budget), m.done, m.budget,
		m.best,
		m.improvements,
		time.Since(m.started).Round(time.Second))
	s.WriteString(statsBoxStyle.Render(stats))
	s.WriteString("\n\n")
	s.WriteString(lipgloss.NewStyle().MarginLeft(2).Render(m.attempts.View()))
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.View(keys)))
	return s.String()
}

func progressBar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = min(done*barWidth/total, barWidth)
	}
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
}
