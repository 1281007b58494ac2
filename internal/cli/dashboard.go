package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/observability"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// Dashboard panel indices.
const (
	panelBoard = iota
	panelCandidates
	panelActivity
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	statusCounts map[string]int
	awaiting     int
	candidates   []candidateSnapshot
	activity     []activitySnapshot

	// State.
	loading bool
	err     error
}

type candidateSnapshot struct {
	id      string
	title   string
	owner   string
	updated string
}

type activitySnapshot struct {
	level   string
	message string
	time    string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	statusCounts map[string]int
	awaiting     int
	candidates   []candidateSnapshot
	activity     []activitySnapshot
	err          error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	statusInProgressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusClosedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusNotStartedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	levelErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	levelWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	levelInfoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel:  panelBoard,
		loading:      true,
		statusCounts: make(map[string]int),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusCounts = msg.statusCounts
		m.awaiting = msg.awaiting
		m.candidates = msg.candidates
		m.activity = msg.activity
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Taskboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	boardPanel := m.renderBoardPanel()
	candidatesPanel := m.renderCandidatesPanel()
	activityPanel := m.renderActivityPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		boardPanel = m.applyPanelStyle(panelBoard, boardPanel, colWidth-4)
		candidatesPanel = m.applyPanelStyle(panelCandidates, candidatesPanel, colWidth-4)
		activityPanel = m.applyPanelStyle(panelActivity, activityPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, boardPanel, candidatesPanel, activityPanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		boardPanel = m.applyPanelStyle(panelBoard, boardPanel, panelWidth)
		candidatesPanel = m.applyPanelStyle(panelCandidates, candidatesPanel, panelWidth)
		activityPanel = m.applyPanelStyle(panelActivity, activityPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, boardPanel, candidatesPanel, activityPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderBoardPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Board"))
	b.WriteString("\n")

	if len(m.statusCounts) == 0 {
		b.WriteString("  No tasks found.")
		return b.String()
	}

	order := []string{"in_progress", "not_started", "closed"}
	for _, status := range order {
		count, ok := m.statusCounts[status]
		if !ok || count == 0 {
			continue
		}
		label := fmt.Sprintf("  %-14s %d", status, count)
		b.WriteString(styleForStatus(status).Render(label))
		b.WriteString("\n")
	}

	total := 0
	for _, c := range m.statusCounts {
		total += c
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d", total))
	if m.awaiting > 0 {
		b.WriteString(fmt.Sprintf("\n  Awaiting reply: %d", m.awaiting))
	}

	return b.String()
}

func (m dashboardModel) renderCandidatesPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Closing candidates"))
	b.WriteString("\n")

	if len(m.candidates) == 0 {
		b.WriteString("  Nothing ready to close.")
		return b.String()
	}

	for _, c := range m.candidates {
		b.WriteString(fmt.Sprintf("  %s  %s\n", c.id, c.title))
		if c.owner != "" || c.updated != "" {
			b.WriteString(helpStyle.Render(fmt.Sprintf("    %s  last update %s", c.owner, c.updated)))
			b.WriteString("\n")
		}
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d candidate(s)", len(m.candidates)))

	return b.String()
}

func (m dashboardModel) renderActivityPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Activity (7d)"))
	b.WriteString("\n")

	if len(m.activity) == 0 {
		b.WriteString("  No recent activity.")
		return b.String()
	}

	for _, a := range m.activity {
		lvl := styleForLevel(a.level).Render(fmt.Sprintf("[%s]", a.level))
		b.WriteString(fmt.Sprintf("  %s %s %s\n", a.time, lvl, a.message))
	}

	return b.String()
}

func styleForStatus(status string) lipgloss.Style {
	switch status {
	case "in_progress":
		return statusInProgressStyle
	case "closed":
		return statusClosedStyle
	case "not_started":
		return statusNotStartedStyle
	default:
		return lipgloss.NewStyle()
	}
}

func styleForLevel(level string) lipgloss.Style {
	switch strings.ToUpper(level) {
	case "ERROR":
		return levelErrorStyle
	case "WARN":
		return levelWarnStyle
	case "INFO":
		return levelInfoStyle
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	result := dataLoadedMsg{
		statusCounts: make(map[string]int),
	}

	if Service != nil {
		tasks, err := Service.List(core.ListFilter{})
		if err != nil {
			result.err = fmt.Errorf("loading tasks: %w", err)
			return result
		}
		keywords := []string{}
		if Cfg != nil {
			keywords = Cfg.ReplyKeywords
		}
		for _, t := range tasks {
			result.statusCounts[string(t.Status)]++
			if t.Status == models.StatusInProgress &&
				(core.ContainsAnyKeyword(t.NextAction, keywords) || core.ContainsAnyKeyword(t.Notes, keywords)) {
				result.awaiting++
			}
		}

		candidates, err := Service.Candidates()
		if err != nil {
			result.err = fmt.Errorf("loading closing candidates: %w", err)
			return result
		}
		for _, t := range candidates {
			result.candidates = append(result.candidates, candidateSnapshot{
				id:      shortID(t.ID),
				title:   t.Title,
				owner:   t.Owner,
				updated: formatTime(t.UpdatedAt),
			})
		}
	}

	if EventLog != nil {
		since := time.Now().AddDate(0, 0, -7)
		events, err := EventLog.Read(observability.EventFilter{Since: &since})
		if err != nil {
			result.err = fmt.Errorf("loading events: %w", err)
			return result
		}
		// Newest last in the file; show the most recent dozen.
		start := 0
		if len(events) > 12 {
			start = len(events) - 12
		}
		for _, e := range events[start:] {
			result.activity = append(result.activity, activitySnapshot{
				level:   e.Level,
				message: fmt.Sprintf("%s %s", e.Type, e.Message),
				time:    e.Time.Format("01-02 15:04"),
			})
		}
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI overview of the board",
	Long: `Launch an interactive terminal dashboard showing status counts,
closing candidates, and recent sync activity.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return fmt.Errorf("board service not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
