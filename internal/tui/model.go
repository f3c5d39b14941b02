package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arvernus/irock-programmer/internal/firmware"
	"github.com/arvernus/irock-programmer/internal/hardware"
	"github.com/arvernus/irock-programmer/internal/supervisor"
)

// pollInterval is the frame cadence at which the supervisor is polled.
const pollInterval = 50 * time.Millisecond

// Model is the main Bubbletea model for the TUI. It owns no pipeline
// state: every frame it polls the supervisor and renders its snapshot.
type Model struct {
	sup  *supervisor.Supervisor
	snap supervisor.Snapshot

	cursor        int
	cursorHistory map[supervisor.Stage]int // Remember cursor position per list
	width         int
	height        int
	errorMsg      string // rejected actions

	// Components
	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	progress ProgressState
	styles   Styles
}

// pollMsg triggers one supervisor poll.
type pollMsg time.Time

// NewModel creates a new TUI model driving sup.
func NewModel(sup *supervisor.Supervisor) Model {
	h := help.New()
	h.ShowAll = false // Use ShortHelp for horizontal layout

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42"))

	return Model{
		sup:           sup,
		snap:          sup.Snapshot(),
		cursorHistory: make(map[supervisor.Stage]int),
		keys:          DefaultKeyMap(),
		help:          h,
		spinner:       s,
		progress:      NewProgressState(),
		styles:        DefaultStyles(),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(pollCmd(), m.spinner.Tick)
}

func pollCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return pollMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.SetWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pollMsg:
		m.sup.Poll()
		m.refresh()
		return m, pollCmd()
	}

	return m, nil
}

// refresh takes a new snapshot and resets list cursors when the pipeline
// moved to another stage.
func (m *Model) refresh() {
	prev := m.snap.Stage
	m.snap = m.sup.Snapshot()
	if m.snap.Stage != prev {
		m.cursor = m.cursorHistory[m.snap.Stage]
		if m.cursor > m.maxCursor() {
			m.cursor = 0
		}
	}

	switch m.snap.Stage {
	case supervisor.StageDownloadInFlight:
		if !m.progress.IsActive() {
			m.progress.Start("Downloading " + m.snap.Asset)
		}
		m.progress.Update(m.snap.Percent)
	default:
		m.progress.Stop()
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.snap.Stage == supervisor.StageFlashInFlight {
			m.errorMsg = "Flashing in progress, wait for it to finish"
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Left):
		return m.goBack()

	case key.Matches(msg, m.keys.Up):
		m.cursor--
		if m.cursor < 0 {
			m.cursor = m.maxCursor()
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.cursor++
		if m.cursor > m.maxCursor() {
			m.cursor = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Right):
		return m.handleSelect()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	return m, nil
}

func (m Model) goBack() (tea.Model, tea.Cmd) {
	if m.snap.Stage == supervisor.StageIdle {
		return m, tea.Quit
	}

	// Save current cursor position before leaving
	m.cursorHistory[m.snap.Stage] = m.cursor
	m.errorMsg = ""
	if err := m.sup.Back(); err != nil {
		m.errorMsg = actionError(err)
		return m, nil
	}
	m.refresh()
	return m, nil
}

func (m Model) handleSelect() (tea.Model, tea.Cmd) {
	m.errorMsg = ""
	m.cursorHistory[m.snap.Stage] = m.cursor

	var err error
	switch m.snap.Stage {
	case supervisor.StageIdle:
		models := hardware.All()
		if m.cursor < len(models) {
			m.sup.SetHardware(models[m.cursor])
		}
	case supervisor.StageCatalogReady:
		if m.cursor < len(m.snap.Releases) {
			err = m.sup.SelectRelease(m.snap.Releases[m.cursor].Tag)
		}
	case supervisor.StageReleaseChosen:
		if m.cursor < len(m.snap.Variants) {
			err = m.sup.SelectVariant(m.snap.Variants[m.cursor])
		}
	case supervisor.StageVariantChosen, supervisor.StageDownloadFailed:
		err = m.sup.StartDownload()
	case supervisor.StageDownloadComplete, supervisor.StageFlashComplete:
		err = m.sup.StartFlash()
	}

	// A release without variants is shown from the snapshot error.
	if err != nil && !errors.Is(err, firmware.ErrNoVariant) {
		m.errorMsg = actionError(err)
	}
	m.refresh()
	return m, nil
}

func actionError(err error) string {
	if errors.Is(err, supervisor.ErrInvalidStage) {
		return "Not possible right now"
	}
	return err.Error()
}

// maxCursor returns the last selectable index of the current list.
func (m Model) maxCursor() int {
	var n int
	switch m.snap.Stage {
	case supervisor.StageIdle:
		n = len(hardware.All())
	case supervisor.StageCatalogReady:
		n = len(m.snap.Releases)
	case supervisor.StageReleaseChosen:
		n = len(m.snap.Variants)
	}
	return max(n-1, 0)
}

// View renders the model.
func (m Model) View() string {
	var content string

	switch m.snap.Stage {
	case supervisor.StageIdle:
		content = m.viewHardware()
	case supervisor.StageHardwareChosen, supervisor.StageCatalogLoading, supervisor.StageCatalogFailed:
		content = m.viewCatalogLoading()
	case supervisor.StageCatalogReady:
		content = m.viewReleases()
	case supervisor.StageReleaseChosen:
		content = m.viewVariants()
	case supervisor.StageVariantChosen, supervisor.StageDownloadInFlight,
		supervisor.StageDownloadFailed, supervisor.StageDownloadComplete:
		content = m.viewDownload()
	case supervisor.StageFlashInFlight, supervisor.StageFlashComplete:
		content = m.viewFlash()
	default:
		content = "Unknown view"
	}

	if m.errorMsg != "" {
		content += "\n" + m.styles.Error.Render(m.errorMsg) + "\n"
	}

	// Help
	helpView := m.styles.Help.Render(m.help.View(m.keys))

	return m.styles.App.Render(
		content + "\n" + helpView,
	)
}

// renderTitleBar renders a consistent title bar with the current selection.
func (m Model) renderTitleBar(title string) string {
	var parts []string

	parts = append(parts, m.styles.Title.Render(title))

	if m.snap.Hardware != hardware.None {
		parts = append(parts, m.styles.Highlight.Render(m.snap.Hardware.String()))
		parts = append(parts, m.styles.Muted.Render(m.snap.Repo))
	}
	if m.snap.Release != nil {
		parts = append(parts, m.styles.Muted.Render(m.snap.Release.Tag))
	}
	if m.snap.Variant != "" {
		parts = append(parts, m.styles.Muted.Render("variant "+m.snap.Variant))
	}
	if m.snap.Stage.InFlight() {
		parts = append(parts, m.spinner.View())
	}

	return strings.Join(parts, "  ")
}

func (m Model) renderList(items []string, descs []string) string {
	var b strings.Builder
	for i, item := range items {
		if i == m.cursor {
			b.WriteString(m.styles.MenuItemSelected.Render("> " + item))
		} else {
			b.WriteString(m.styles.MenuItem.Render("  " + item))
		}
		b.WriteString("\n")
		if descs != nil && descs[i] != "" {
			b.WriteString(m.styles.MenuItemDim.Render(descs[i]))
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func (m Model) viewHardware() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar("iRock Programmer"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Subtitle.Render("Select your hardware"))
	b.WriteString("\n\n")

	var names []string
	for _, hw := range hardware.All() {
		names = append(names, hw.String())
	}
	b.WriteString(m.renderList(names, nil))
	return b.String()
}

func (m Model) viewCatalogLoading() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar("Releases"))
	b.WriteString("\n\n")

	if m.snap.Stage == supervisor.StageCatalogFailed {
		b.WriteString(m.styles.Error.Render("Failed to load releases"))
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(m.snap.Error))
		b.WriteString("\n\n")
		b.WriteString(m.styles.Muted.Render("Press Esc to choose the hardware again"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.spinner.View())
	b.WriteString(" Loading releases from ")
	b.WriteString(m.styles.Value.Render(m.snap.Repo))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewReleases() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar("Releases"))
	b.WriteString("\n\n")

	if len(m.snap.Releases) == 0 {
		b.WriteString(m.styles.Muted.Render("No flashable releases found"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.styles.Subtitle.Render("Select a release"))
	b.WriteString("\n\n")

	labels := make([]string, len(m.snap.Releases))
	descs := make([]string, len(m.snap.Releases))
	for i, r := range m.snap.Releases {
		labels[i] = r.Label()
		descs[i] = fmt.Sprintf("%d file(s)", len(r.Assets))
	}
	b.WriteString(m.renderList(labels, descs))
	return b.String()
}

func (m Model) viewVariants() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar("Hardware Variant"))
	b.WriteString("\n\n")

	if len(m.snap.Variants) == 0 {
		b.WriteString(m.styles.Error.Render(m.snap.Error))
		b.WriteString("\n\n")
		b.WriteString(m.styles.Muted.Render("Press Esc to pick another release"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.styles.Subtitle.Render("Select your board variant"))
	b.WriteString("\n\n")
	b.WriteString(m.renderList(m.snap.Variants, nil))
	return b.String()
}

func (m Model) viewDownload() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar("Download"))
	b.WriteString("\n\n")
	b.WriteString(m.renderField("Firmware", m.snap.Asset))

	switch m.snap.Stage {
	case supervisor.StageVariantChosen:
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("Press Enter to download"))
	case supervisor.StageDownloadInFlight:
		b.WriteString("\n")
		b.WriteString(m.progress.View())
		b.WriteString(fmt.Sprintf(" %3d%%", m.snap.Percent))
	case supervisor.StageDownloadFailed:
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render("Download failed: " + m.snap.Error))
		b.WriteString("\n\n")
		b.WriteString(m.styles.Muted.Render("Press Enter to try again"))
	case supervisor.StageDownloadComplete:
		b.WriteString(m.renderField("Saved to", m.snap.Path))
		b.WriteString("\n")
		b.WriteString(m.styles.Success.Render("Download complete"))
		b.WriteString("\n\n")
		b.WriteString(m.styles.Muted.Render("Connect the board and press Enter to flash"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewFlash() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar("Flash"))
	b.WriteString("\n\n")
	b.WriteString(m.renderField("Firmware", m.snap.Path))
	b.WriteString("\n")

	if m.snap.Stage == supervisor.StageFlashInFlight || m.snap.Flash == nil {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.styles.Warning.Render("Flashing, do not disconnect the board..."))
		b.WriteString("\n")
		return b.String()
	}

	style := m.styles.Error
	if m.snap.Flash.Success {
		style = m.styles.Success
	}
	b.WriteString(style.Render(m.snap.Flash.Message()))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("Press Enter to flash again, Esc to pick another variant"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderField(label, value string) string {
	return m.styles.Label.Render(label+":") + " " + m.styles.Value.Render(value) + "\n"
}
