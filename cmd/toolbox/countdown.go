package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var errCountdownAborted = errors.New("countdown aborted")

var (
	countdownTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#7D56F4")).
				Padding(0, 1)

	countdownHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))
)

// countdown waits one tick per step from T-seconds down to 0.
func countdown(ctx context.Context, w io.Writer, seconds int, tick time.Duration, tui bool) error {
	if tui {
		return countdownTUI(ctx, w, seconds, tick)
	}
	return countdownPlain(ctx, w, seconds, tick)
}

func countdownPlain(ctx context.Context, w io.Writer, seconds int, tick time.Duration) error {
	fmt.Fprint(w, "countdown: T-")
	timer := time.NewTimer(tick)
	defer timer.Stop()

	for i := seconds; i >= 0; i-- {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w)
			return ctx.Err()
		case <-timer.C:
		}
		if i == 0 {
			fmt.Fprintln(w, i)
			return nil
		}
		fmt.Fprint(w, i, " ")
		timer.Reset(tick)
	}
	return nil
}

type tickMsg struct{}

type countdownModel struct {
	bar     progress.Model
	tick    time.Duration
	total   int
	left    int
	done    bool
	aborted bool
}

func newCountdownModel(seconds int, tick time.Duration) countdownModel {
	return countdownModel{
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		tick:  tick,
		total: seconds,
		left:  seconds,
	}
}

func (m countdownModel) next() tea.Cmd {
	return tea.Tick(m.tick, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m countdownModel) Init() tea.Cmd {
	return m.next()
}

func (m countdownModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.aborted = true
			return m, tea.Quit
		}
	case tickMsg:
		if m.left == 0 {
			m.done = true
			return m, tea.Quit
		}
		m.left--
		return m, m.next()
	}
	return m, nil
}

// percent is the share of ticks already elapsed.
func (m countdownModel) percent() float64 {
	if m.done {
		return 1
	}
	return float64(m.total-m.left) / float64(m.total+1)
}

func (m countdownModel) View() string {
	var b strings.Builder
	b.WriteString(countdownTitleStyle.Render(fmt.Sprintf("T-%d", m.left)))
	b.WriteString("  ")
	b.WriteString(m.bar.ViewAs(m.percent()))
	b.WriteString("\n")
	if !m.done {
		b.WriteString(countdownHelpStyle.Render("q: abort"))
		b.WriteString("\n")
	}
	return b.String()
}

func countdownTUI(ctx context.Context, w io.Writer, seconds int, tick time.Duration) error {
	p := tea.NewProgram(newCountdownModel(seconds, tick), tea.WithOutput(w), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("countdown: %w", err)
	}
	if m, ok := final.(countdownModel); ok && m.aborted {
		return errCountdownAborted
	}
	return nil
}
