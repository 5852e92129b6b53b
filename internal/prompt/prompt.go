// Package prompt asks the operator a yes/no question before anything is mutated.
package prompt

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Confirmer presents one yes/no question
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

var (
	questionStyle = lipgloss.NewStyle().Bold(true)
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	yesStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	noStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model is the bubbletea model behind the confirmation. Only "y" confirms;
// every other answer key declines.
type Model struct {
	question  string
	answered  bool
	confirmed bool
}

// NewModel creates a Model for question
func NewModel(question string) Model {
	return Model{question: question}
}

// Confirmed reports whether the operator answered yes
func (m Model) Confirmed() bool {
	return m.answered && m.confirmed
}

// Answered reports whether the operator answered at all
func (m Model) Answered() bool {
	return m.answered
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answered = true
		m.confirmed = true
		return m, tea.Quit
	case "n", "N", "enter", "esc", "q", "ctrl+c", "ctrl+d":
		m.answered = true
		m.confirmed = false
		return m, tea.Quit
	}
	return m, nil
}

// View renders the question and, once answered, the answer
func (m Model) View() string {
	line := questionStyle.Render(m.question) + " " + hintStyle.Render("(y/N)") + " "
	if !m.answered {
		return line
	}
	if m.confirmed {
		return line + yesStyle.Render("yes") + "\n"
	}
	return line + noStyle.Render("no") + "\n"
}

// Terminal asks on a terminal through bubbletea
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminal creates a Terminal on the process's stdin/stdout
func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stdout}
}

// Confirm runs the prompt until the operator answers
func (t *Terminal) Confirm(ctx context.Context, question string) (bool, error) {
	p := tea.NewProgram(NewModel(question),
		tea.WithInput(t.In),
		tea.WithOutput(t.Out),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return false, fmt.Errorf("confirmation prompt: unexpected model %T", final)
	}
	return m.Confirmed(), nil
}
