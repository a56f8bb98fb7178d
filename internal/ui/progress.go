package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"doccheck/internal/driver"
)

// maxVisible is the number of unit rows kept on screen; older finished
// units scroll off.
const maxVisible = 12

type progressModel struct {
	title      string
	events     <-chan driver.Event
	spinner    spinner.Model
	prog       progress.Model
	items      []unitItem
	index      map[string]int
	total      int
	finished   int
	violations int
	cached     int
	width      int
	done       bool
	err        error
}

type unitItem struct {
	path       string
	status     string
	violations int
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders check progress.
// The model quits when events is closed.
func NewProgressModel(title string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s (%d/%d units)", m.title, m.finished, m.total)
	switch {
	case m.err != nil:
		header = fmt.Sprintf("stopped: %s: %v", header, m.err)
	case m.done:
		header = fmt.Sprintf("done: %s", header)
	default:
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := max(m.width-statusWidth-4, 20)

	start := max(len(m.items)-maxVisible, 0)
	for _, item := range m.items[start:] {
		status := item.status
		if status == "done" && item.violations > 0 {
			status = fmt.Sprintf("%d found", item.violations)
		}
		statusStyled := styleStatus(item).Render(fmt.Sprintf("%12s", status))
		fmt.Fprintf(&b, "  %s %s\n", statusStyled, truncate(item.path, nameWidth))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d violations, %d units from cache\n", m.violations, m.cached)
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	switch ev.Kind {
	case driver.EventLoaded:
		m.total = ev.Total
		return nil
	case driver.EventDone:
		m.err = ev.Err
		return m.prog.SetPercent(1.0)
	case driver.EventUnitStarted:
		m.item(ev.Path).status = "checking"
		return nil
	case driver.EventUnitDone:
		item := m.item(ev.Path)
		item.status = "done"
		if ev.Cached {
			item.status = "cached"
			m.cached++
		}
		item.violations = ev.Violations
		m.violations += ev.Violations
		m.finished++
		if m.total > 0 {
			return m.prog.SetPercent(float64(m.finished) / float64(m.total))
		}
	}
	return nil
}

func (m *progressModel) item(path string) *unitItem {
	idx, ok := m.index[path]
	if !ok {
		idx = len(m.items)
		m.items = append(m.items, unitItem{path: path, status: "queued"})
		m.index[path] = idx
	}
	return &m.items[idx]
}

func styleStatus(item unitItem) lipgloss.Style {
	switch {
	case item.violations > 0:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case item.status == "done" || item.status == "cached":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case item.status == "checking":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
