package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ─── Host prompt ─────────────────────────────────────────────────────────────

// promptModel is a minimal textinput form used when neither --local nor
// --computer was given.
type promptModel struct {
	input    textinput.Model
	done     bool
	canceled bool
}

func newPromptModel() promptModel {
	ti := textinput.New()
	ti.Placeholder = "hostname (empty = this machine)"
	ti.Prompt = "Computer to clean: "
	ti.CharLimit = 253
	ti.Focus()
	return promptModel{input: ti}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			m.done = true
			return m, tea.Quit
		case "esc", "ctrl+c":
			m.canceled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	help := lipgloss.NewStyle().Foreground(clrMuted).
		Render("enter to confirm · esc to cancel")
	return m.input.View() + "\n" + help + "\n"
}

// PromptHostName interactively asks for a target host name. An empty answer
// means the local machine. Returns an error if the prompt is canceled or
// cannot run (no usable terminal).
func PromptHostName() (string, error) {
	p := tea.NewProgram(newPromptModel())
	out, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("host prompt failed: %w", err)
	}
	m, ok := out.(promptModel)
	if !ok || m.canceled {
		return "", fmt.Errorf("host prompt canceled")
	}
	return strings.TrimSpace(m.input.Value()), nil
}
