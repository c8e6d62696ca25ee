package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/portsweep/portsweep/internal/config"
	"github.com/portsweep/portsweep/internal/port"
	"github.com/portsweep/portsweep/internal/process"
)

// viewState tracks which screen the TUI is currently showing.
type viewState int

const (
	viewTable viewState = iota
	viewInfo
	viewKillConfirm
	viewKillResult
	viewFilter
)

// sortField defines what column to sort by.
type sortField int

const (
	sortByPort sortField = iota
	sortByPID
	sortByProcess
)

// Messages for async operations.
type scanDoneMsg struct {
	entries []port.Entry
}

type tickMsg time.Time

type killDoneMsg struct {
	pid     int
	process string
	port    int
	err     error
}

type infoDoneMsg struct {
	info *process.Info
	err  error
}

// Model is the main Bubbletea model for the portsweep TUI.
type Model struct {
	scanner    *port.Scanner
	terminator *process.Terminator
	fetcher    *process.InfoFetcher
	cfg        *config.Config
	version    string

	entries  []port.Entry
	filtered []int // indices into entries for currently displayed items

	cursor       int
	scrollOffset int
	sortBy       sortField
	searchQuery  string
	paused       bool

	// Info view state.
	infoEntry *port.Entry
	infoData  *process.Info
	infoErr   error

	// Kill confirmation state.
	killEntry  *port.Entry
	killResult string
	killErr    error

	scanning bool
	spinner  spinner.Model

	width  int
	height int

	currentView viewState
}

// New creates a new TUI model.
func New(scanner *port.Scanner, terminator *process.Terminator, fetcher *process.InfoFetcher, cfg *config.Config, version string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorCyan)

	return Model{
		scanner:     scanner,
		terminator:  terminator,
		fetcher:     fetcher,
		cfg:         cfg,
		version:     version,
		scanning:    true,
		spinner:     sp,
		currentView: viewTable,
	}
}

// Init starts the spinner and kicks off the initial scan.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.doScan(), m.tickCmd())
}

func (m Model) tickCmd() tea.Cmd {
	interval := time.Duration(m.cfg.RefreshInterval) * time.Second
	if interval < time.Second {
		interval = time.Second
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) doScan() tea.Cmd {
	scanner := m.scanner
	cfg := m.cfg
	return func() tea.Msg {
		entries := scanner.Snapshot(context.Background())
		var kept []port.Entry
		for _, e := range entries {
			if cfg.Excluded(e.Process) {
				continue
			}
			if cfg.Protocol != "" && !strings.EqualFold(string(e.Protocol), cfg.Protocol) {
				continue
			}
			kept = append(kept, e)
		}
		return scanDoneMsg{entries: kept}
	}
}

func (m Model) doKill(pid int, processName string, portNum int) tea.Cmd {
	terminator := m.terminator
	return func() tea.Msg {
		err := terminator.Terminate(context.Background(), pid)
		return killDoneMsg{pid: pid, process: processName, port: portNum, err: err}
	}
}

func (m Model) doGetInfo(pid int) tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		info, err := fetcher.GetInfo(context.Background(), pid)
		return infoDoneMsg{info: info, err: err}
	}
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.scanning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tickMsg:
		if !m.paused && m.currentView == viewTable {
			return m, tea.Batch(m.doScan(), m.tickCmd())
		}
		return m, m.tickCmd()

	case scanDoneMsg:
		m.scanning = false
		m.entries = msg.entries
		m.sortEntries()
		m.rebuildFiltered()
		return m, nil

	case killDoneMsg:
		m.killErr = msg.err
		if msg.err == nil {
			m.killResult = fmt.Sprintf("Kill issued for %s (PID %d) on port %d", msg.process, msg.pid, msg.port)
		}
		m.currentView = viewKillResult
		return m, nil

	case infoDoneMsg:
		m.infoData = msg.info
		m.infoErr = msg.err
		m.currentView = viewInfo
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.currentView {
		case viewTable:
			return m.updateTable(msg)
		case viewInfo:
			return m.updateInfo(msg)
		case viewKillConfirm:
			return m.updateKillConfirm(msg)
		case viewKillResult:
			return m.updateKillResult(msg)
		case viewFilter:
			return m.updateFilter(msg)
		}
	}

	return m, nil
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		if len(m.filtered) > 0 && m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.ensureCursorVisible()
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			m.ensureCursorVisible()
		}
	case "K":
		if entry := m.selectedEntry(); entry != nil {
			if !m.cfg.ConfirmKill {
				return m, m.doKill(entry.PID, entry.Process, entry.Port)
			}
			m.killEntry = entry
			m.currentView = viewKillConfirm
		}
	case "i", "enter":
		if entry := m.selectedEntry(); entry != nil {
			m.infoEntry = entry
			m.infoData = nil
			m.infoErr = nil
			return m, m.doGetInfo(entry.PID)
		}
	case "r":
		m.scanning = true
		return m, tea.Batch(m.doScan(), m.spinner.Tick)
	case "s":
		m.sortBy = (m.sortBy + 1) % 3
		m.sortEntries()
		m.rebuildFiltered()
	case "p":
		m.paused = !m.paused
	case "/":
		m.currentView = viewFilter
		m.searchQuery = ""
	case "esc":
		if m.searchQuery != "" {
			m.searchQuery = ""
			m.rebuildFiltered()
		}
	}
	return m, nil
}

func (m Model) updateInfo(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.currentView = viewTable
	case "K":
		if m.infoEntry != nil {
			m.killEntry = m.infoEntry
			m.currentView = viewKillConfirm
		}
	}
	return m, nil
}

func (m Model) updateKillConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		if m.killEntry != nil {
			e := m.killEntry
			return m, m.doKill(e.PID, e.Process, e.Port)
		}
	case "n", "N", "esc":
		m.currentView = viewTable
		m.killEntry = nil
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateKillResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "enter", "backspace":
		m.currentView = viewTable
		m.killEntry = nil
		m.killResult = ""
		m.killErr = nil
		// Re-scan so a killed process drops off the table.
		m.scanning = true
		return m, tea.Batch(m.doScan(), m.spinner.Tick)
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.currentView = viewTable
		m.rebuildFiltered()
	case "esc":
		m.currentView = viewTable
		m.searchQuery = ""
		m.rebuildFiltered()
	case "backspace":
		if len(m.searchQuery) > 0 {
			m.searchQuery = m.searchQuery[:len(m.searchQuery)-1]
			m.rebuildFiltered()
		}
	default:
		key := msg.String()
		if len(key) == 1 {
			m.searchQuery += key
			m.rebuildFiltered()
		}
	}
	return m, nil
}

func (m *Model) selectedEntry() *port.Entry {
	if len(m.filtered) == 0 || m.cursor < 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	idx := m.filtered[m.cursor]
	if idx >= len(m.entries) {
		return nil
	}
	entry := m.entries[idx]
	return &entry
}

func (m *Model) sortEntries() {
	sort.SliceStable(m.entries, func(i, j int) bool {
		switch m.sortBy {
		case sortByPID:
			return m.entries[i].PID < m.entries[j].PID
		case sortByProcess:
			return strings.ToLower(m.entries[i].Process) < strings.ToLower(m.entries[j].Process)
		default:
			return m.entries[i].Port < m.entries[j].Port
		}
	})
}

// entrySource adapts entries for fuzzy matching over a combined
// "port process pid" string per row.
type entrySource []port.Entry

func (s entrySource) String(i int) string {
	e := s[i]
	return fmt.Sprintf("%d %s %d", e.Port, e.Process, e.PID)
}

func (s entrySource) Len() int { return len(s) }

func (m *Model) rebuildFiltered() {
	m.filtered = m.filtered[:0]
	switch {
	case m.searchQuery == "":
		for i := range m.entries {
			m.filtered = append(m.filtered, i)
		}
	default:
		matched := port.Match(m.entries, m.searchQuery)
		if len(matched) > 0 {
			keep := make(map[port.Entry]bool, len(matched))
			for _, e := range matched {
				keep[e] = true
			}
			for i, e := range m.entries {
				if keep[e] {
					m.filtered = append(m.filtered, i)
				}
			}
			break
		}
		// No exact substring hit; fall back to fuzzy ranking so a
		// slightly mistyped query still finds its row.
		for _, match := range fuzzy.FindFrom(m.searchQuery, entrySource(m.entries)) {
			m.filtered = append(m.filtered, match.Index)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
	m.adjustScroll()
}

func (m *Model) ensureCursorVisible() {
	visible := m.visibleRows()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+visible {
		m.scrollOffset = m.cursor - visible + 1
	}
}

func (m *Model) adjustScroll() {
	visible := m.visibleRows()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+visible {
		m.scrollOffset = m.cursor - visible + 1
	}
	maxOffset := len(m.filtered) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.scrollOffset > maxOffset {
		m.scrollOffset = maxOffset
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func (m Model) visibleRows() int {
	// Reserve lines for: header (2), column headers (1), separator (1), status bar (2), help (1) = 7.
	const reserved = 7
	visible := m.height - reserved
	if visible < 1 {
		visible = 1
	}
	return visible
}

// View renders the TUI.
func (m Model) View() string {
	switch m.currentView {
	case viewInfo:
		return m.viewInfo()
	case viewKillConfirm:
		return m.viewKillConfirm()
	case viewKillResult:
		return m.viewKillResult()
	case viewFilter:
		return m.viewFilter()
	default:
		return m.viewTable()
	}
}

func (m Model) viewTable() string {
	var b strings.Builder

	// Header bar.
	title := titleStyle.Render(fmt.Sprintf("portsweep %s", m.version))
	stats := dimStyle.Render(fmt.Sprintf("Bound ports: %d", len(m.entries)))
	pauseIndicator := ""
	if m.paused {
		pauseIndicator = warnStyle.Render("  [PAUSED]")
	}
	b.WriteString(title + "  " + stats + pauseIndicator + "\n")

	if m.scanning && len(m.entries) == 0 {
		b.WriteString("\n" + m.spinner.View() + " Scanning ports...\n")
		return b.String()
	}

	// Column headers.
	sortIndicator := func(field sortField) string {
		if m.sortBy == field {
			return " ^"
		}
		return ""
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf(
		"  %-9s %-6s %-9s %s",
		"PORT"+sortIndicator(sortByPort),
		"PROTO",
		"PID"+sortIndicator(sortByPID),
		"PROCESS"+sortIndicator(sortByProcess),
	)) + "\n")

	if len(m.filtered) == 0 {
		if m.searchQuery != "" {
			b.WriteString("\n  No results matching: " + m.searchQuery + "\n")
		} else {
			b.WriteString("\n  No bound ports found.\n")
		}
	} else {
		viewportRows := m.visibleRows()
		end := m.scrollOffset + viewportRows
		if end > len(m.filtered) {
			end = len(m.filtered)
		}

		for i := m.scrollOffset; i < end; i++ {
			idx := m.filtered[i]
			e := m.entries[idx]

			cursor := "  "
			if i == m.cursor {
				cursor = cursorStyle.Render("> ")
			}

			name := e.Process
			if name == "" {
				name = dimStyle.Render("(unresolved)")
			}
			line := fmt.Sprintf("%-9d %-6s %-9d %s",
				e.Port, e.Protocol, e.PID, name)

			b.WriteString(cursor + rowStyle(string(e.Protocol)).Render(line) + "\n")
		}

		// Scroll indicator.
		if len(m.filtered) > viewportRows {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  [%d-%d of %d]",
				m.scrollOffset+1, end, len(m.filtered))) + "\n")
		}
	}

	// Search indicator.
	if m.searchQuery != "" {
		b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("  filter: %s", m.searchQuery)))
	}

	// Help bar.
	b.WriteString(helpStyle.Render("j/k:navigate  K:kill  i:info  r:refresh  s:sort  p:pause  /:search  q:quit") + "\n")

	return b.String()
}

func (m Model) viewInfo() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("portsweep -- Process Info") + "\n\n")

	if m.infoErr != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("  Error: %v", m.infoErr)) + "\n")
		b.WriteString(helpStyle.Render("\nesc:back  q:quit") + "\n")
		return b.String()
	}

	if m.infoEntry == nil {
		b.WriteString("  No port selected.\n")
		b.WriteString(helpStyle.Render("\nesc:back  q:quit") + "\n")
		return b.String()
	}

	e := m.infoEntry
	b.WriteString(labelStyle.Render("Port:") + valueStyle.Render(fmt.Sprintf("%d/%s", e.Port, e.Protocol)) + "\n")
	b.WriteString(labelStyle.Render("Process:") + valueStyle.Render(fmt.Sprintf("%s (PID %d)", e.Process, e.PID)) + "\n")

	if m.infoData != nil {
		info := m.infoData
		if info.Command != "" {
			b.WriteString(labelStyle.Render("Command:") + valueStyle.Render(info.Command) + "\n")
		}
		if info.User != "" {
			b.WriteString(labelStyle.Render("User:") + valueStyle.Render(info.User) + "\n")
		}
		if !info.StartTime.IsZero() {
			ago := time.Since(info.StartTime).Truncate(time.Second)
			b.WriteString(labelStyle.Render("Started:") + valueStyle.Render(
				fmt.Sprintf("%s ago (%s)", formatDuration(ago), info.StartTime.Format("2006-01-02 15:04:05")),
			) + "\n")
		}
		if info.PPID > 0 {
			b.WriteString(labelStyle.Render("Parent PID:") + valueStyle.Render(fmt.Sprintf("%d", info.PPID)) + "\n")
		}
	}

	b.WriteString(helpStyle.Render("\nK:kill  esc:back  q:quit") + "\n")
	return b.String()
}

func (m Model) viewKillConfirm() string {
	var b strings.Builder

	b.WriteString(dangerStyle.Render(" KILL PROCESS ") + "\n\n")

	if m.killEntry == nil {
		b.WriteString("  No process selected.\n")
		b.WriteString(helpStyle.Render("\nesc:cancel  q:quit") + "\n")
		return b.String()
	}

	e := m.killEntry
	name := e.Process
	if name == "" {
		name = "unknown process"
	}
	b.WriteString(fmt.Sprintf("  Kill %q (PID %d) on port %d/%s?\n\n",
		name, e.PID, e.Port, e.Protocol))
	b.WriteString(warnStyle.Render("  The process is terminated forcibly and cannot be resumed.") + "\n\n")
	b.WriteString("  " + dimStyle.Render("[y] kill  [n] cancel") + "\n")
	b.WriteString(helpStyle.Render("\ny:kill  n/esc:cancel") + "\n")
	return b.String()
}

func (m Model) viewKillResult() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("portsweep -- Kill Result") + "\n\n")

	if m.killErr != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("  Failed: %v", m.killErr)) + "\n")
	} else {
		b.WriteString(successStyle.Render(fmt.Sprintf("  %s", m.killResult)) + "\n")
	}

	b.WriteString(helpStyle.Render("\nenter/esc:back  q:quit") + "\n")
	return b.String()
}

func (m Model) viewFilter() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("portsweep -- Search") + "\n\n")
	b.WriteString("  Type to filter: " + m.searchQuery + "_\n")
	b.WriteString(helpStyle.Render("\nenter:apply  esc:cancel") + "\n")

	return b.String()
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	hours := int(d.Hours())
	if hours < 24 {
		return fmt.Sprintf("%dh %dm", hours, int(d.Minutes())%60)
	}
	days := hours / 24
	return fmt.Sprintf("%dd %dh", days, hours%24)
}
