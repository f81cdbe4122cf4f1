package components

import (
	"strconv"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/eduforge/internal/ui/theme"
)

// TextInput is a labelled bubbles text input with an optional inline error.
type TextInput struct {
	Label       string
	Model       textinput.Model
	NumericOnly bool
	Err         string
}

func NewTextInput(label, placeholder string, numericOnly bool, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	return TextInput{Label: label, Model: ti, NumericOnly: numericOnly}
}

func (t *TextInput) Focus() tea.Cmd { return t.Model.Focus() }
func (t *TextInput) Blur()          { t.Model.Blur() }
func (t TextInput) Focused() bool   { return t.Model.Focused() }

// Update drops non-digit keys when NumericOnly is set.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.NumericOnly {
		if kmsg, ok := msg.(tea.KeyPressMsg); ok {
			key := kmsg.String()
			if len(key) == 1 && (key[0] < '0' || key[0] > '9') {
				return t, nil
			}
		}
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

func (t TextInput) View() string {
	label := theme.Unselected.Render(t.Label)
	if t.Focused() {
		label = theme.Selected.Render(t.Label)
	}
	out := label + "\n" + t.Model.View()
	if t.Err != "" {
		out += "\n" + lipgloss.NewStyle().Foreground(theme.Error).Render(t.Err)
	}
	return out
}

func (t TextInput) Value() string {
	return t.Model.Value()
}

// NumericValue parses the input as an integer.
func (t TextInput) NumericValue() (int, error) {
	return strconv.Atoi(t.Model.Value())
}
