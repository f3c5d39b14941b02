package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressState renders the download progress of the current asset.
type ProgressState struct {
	progress    progress.Model
	percent     float64
	description string
	isActive    bool
}

// NewProgressState creates a new progress tracking state.
func NewProgressState() ProgressState {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
	)
	return ProgressState{
		progress: p,
	}
}

// Start begins tracking a new download.
func (p *ProgressState) Start(description string) {
	p.isActive = true
	p.percent = 0
	p.description = description
}

// Update sets the shown percentage from a whole percent in [0,100].
func (p *ProgressState) Update(percent int) {
	p.percent = float64(percent) / 100
}

// Stop hides the bar.
func (p *ProgressState) Stop() {
	p.isActive = false
}

// IsActive returns whether a download is being shown.
func (p *ProgressState) IsActive() bool {
	return p.isActive
}

// SetWidth fits the bar to the terminal.
func (p *ProgressState) SetWidth(width int) {
	p.progress.Width = min(max(width-8, 10), 60)
}

// View renders the progress bar.
func (p ProgressState) View() string {
	if !p.isActive {
		return ""
	}
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	return descStyle.Render(p.description) + "\n" + p.progress.ViewAs(p.percent)
}
