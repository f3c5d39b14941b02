package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arvernus/irock-programmer/internal/supervisor"
)

// Run starts the TUI application on top of sup.
func Run(sup *supervisor.Supervisor) error {
	m := NewModel(sup)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}

	return nil
}
