package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/agentflight/flightrec/internal/analyzer"
	"github.com/agentflight/flightrec/pkg/models"
)

// Tail panel indices.
const (
	panelTimeline = iota
	panelAgents
	panelCount
)

// timelineRows bounds how many recent events the timeline pane shows.
const timelineRows = 15

type tailModel struct {
	path        string
	refresh     time.Duration
	changes     <-chan struct{}
	activePanel int
	width       int
	height      int

	analysis *analyzer.Analysis
	loadErr  error
}

// tailLoadedMsg carries a reloaded analysis back to the model.
type tailLoadedMsg struct {
	analysis *analyzer.Analysis
	err      error
}

// tailChangedMsg signals that the log file was written to.
type tailChangedMsg struct{}

// tailTickMsg drives the periodic fallback reload.
type tailTickMsg struct{}

// Style definitions.
var (
	tailTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	tailPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	tailActivePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	tailHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	eventStartStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	eventCompleteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	eventErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	eventNeutralStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dataQualityStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))

	tailHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newTailModel(path string, refresh time.Duration, changes <-chan struct{}) tailModel {
	return tailModel{
		path:        path,
		refresh:     refresh,
		changes:     changes,
		activePanel: panelTimeline,
	}
}

func (m tailModel) load() tea.Msg {
	a := analyzer.New()
	if Cfg != nil {
		a.SlowAgentSeconds = Cfg.Report.SlowAgentSeconds
	}
	analysis, err := a.Analyze(m.path)
	return tailLoadedMsg{analysis: analysis, err: err}
}

func (m tailModel) waitForChange() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.changes; !ok {
			return nil
		}
		return tailChangedMsg{}
	}
}

func (m tailModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(time.Time) tea.Msg {
		return tailTickMsg{}
	})
}

func (m tailModel) Init() tea.Cmd {
	return tea.Batch(m.load, m.waitForChange(), m.tick())
}

func (m tailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "r":
			return m, m.load
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tailChangedMsg:
		return m, tea.Batch(m.load, m.waitForChange())

	case tailTickMsg:
		return m, tea.Batch(m.load, m.tick())

	case tailLoadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err
			return m, nil
		}
		m.analysis = msg.analysis
		m.loadErr = nil
		return m, nil
	}

	return m, nil
}

func (m tailModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := tailTitleStyle.Render(fmt.Sprintf(" flightrec %s ", filepath.Base(m.path)))
	help := tailHelpStyle.Render("tab: switch panel | r: reload | q: quit")

	if m.loadErr != nil {
		return fmt.Sprintf("%s\n\n  Waiting for log: %s\n\n%s", title, m.loadErr, help)
	}
	if m.analysis == nil {
		return fmt.Sprintf("%s\n\n  Loading events...\n\n%s", title, help)
	}

	timelinePanel := m.renderTimelinePanel()
	agentsPanel := m.renderAgentsPanel()

	availableWidth := m.width - 2
	var body string
	if availableWidth > 110 {
		colWidth := availableWidth / 2
		timelinePanel = m.applyPanelStyle(panelTimeline, timelinePanel, colWidth-4)
		agentsPanel = m.applyPanelStyle(panelAgents, agentsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, timelinePanel, agentsPanel)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		timelinePanel = m.applyPanelStyle(panelTimeline, timelinePanel, panelWidth)
		agentsPanel = m.applyPanelStyle(panelAgents, agentsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, timelinePanel, agentsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m tailModel) applyPanelStyle(panel int, content string, width int) string {
	style := tailPanelStyle
	if m.activePanel == panel {
		style = tailActivePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m tailModel) renderTimelinePanel() string {
	var b strings.Builder
	b.WriteString(tailHeaderStyle.Render("Timeline"))
	b.WriteString("\n")

	timeline := m.analysis.Timeline
	if len(timeline) == 0 {
		b.WriteString("  No events yet.")
		return b.String()
	}

	start := 0
	if len(timeline) > timelineRows {
		start = len(timeline) - timelineRows
	}
	for _, event := range timeline[start:] {
		label := fmt.Sprintf("  %s  %-17s %s",
			event.Timestamp.Format("15:04:05.000"),
			event.Type,
			event.Details.AgentName)
		b.WriteString(styleForEvent(event).Render(label))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n  Total: %d events", len(timeline))
	if m.analysis.MalformedCount > 0 {
		b.WriteString("\n")
		b.WriteString(dataQualityStyle.Render(
			fmt.Sprintf("  Malformed: %d", m.analysis.MalformedCount)))
	}
	return b.String()
}

func (m tailModel) renderAgentsPanel() string {
	var b strings.Builder
	b.WriteString(tailHeaderStyle.Render("Agents"))
	b.WriteString("\n")

	stats := m.analysis.Stats
	if len(stats) == 0 {
		b.WriteString("  No agent activity yet.")
		return b.String()
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := stats[name]
		timing := "no timing data"
		if s.HasTimings() {
			timing = fmt.Sprintf("avg %.2fs", s.Avg())
		}
		fmt.Fprintf(&b, "  %-24s calls=%d llm=%d tools=%d  %s\n",
			name, s.Calls, s.LLMCalls, s.ToolCalls, timing)
	}
	return b.String()
}

func styleForEvent(event models.Event) lipgloss.Style {
	switch event.Type {
	case models.EventAgentStart:
		return eventStartStyle
	case models.EventAgentComplete:
		return eventCompleteStyle
	case models.EventAgentError:
		return eventErrorStyle
	default:
		if event.Details.IsError {
			return eventErrorStyle
		}
		return eventNeutralStyle
	}
}

var tailCmd = &cobra.Command{
	Use:   "tail [log-file]",
	Short: "Live view of an event log being appended to",
	Long: `Follow a JSONL event log in a terminal dashboard showing the recent
timeline and per-agent statistics. The view refreshes when the file
changes and on a periodic fallback tick.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := LogPath
		if len(args) > 0 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("no log file given and none configured")
		}

		refresh := 500 * time.Millisecond
		if Cfg != nil {
			refresh = time.Duration(Cfg.Dashboard.RefreshMS) * time.Millisecond
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("creating file watcher: %w", err)
		}
		defer watcher.Close()

		// Watch the directory: the log file may not exist yet, or may be
		// recreated by the next run.
		if werr := watcher.Add(filepath.Dir(path)); werr != nil {
			return fmt.Errorf("watching %s: %w", filepath.Dir(path), werr)
		}

		changes := make(chan struct{}, 1)
		go func() {
			defer close(changes)
			for {
				select {
				case ev, ok := <-watcher.Events:
					if !ok {
						return
					}
					if ev.Name != path {
						continue
					}
					select {
					case changes <- struct{}{}:
					default:
					}
				case _, ok := <-watcher.Errors:
					if !ok {
						return
					}
				}
			}
		}()

		p := tea.NewProgram(newTailModel(path, refresh, changes), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running tail view: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tailCmd)
}
