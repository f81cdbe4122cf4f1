package components

import (
	"github.com/abhisek/eduforge/internal/ui/theme"
)

// Button renders a focusable label. Key handling stays with the owning screen.
type Button struct {
	Label  string
	Active bool
}

func NewButton(label string) Button {
	return Button{Label: label}
}

func (b Button) View() string {
	if b.Active {
		return theme.ButtonActive.Render(b.Label)
	}
	return theme.ButtonInactive.Render(b.Label)
}
