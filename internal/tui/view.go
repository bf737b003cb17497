package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/fyrsmithlabs/ceo-assistant/internal/stats"
)

const (
	sparklineWidth  = stats.TrendDays * 2
	sparklineHeight = 3
	titleWidth      = 40
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("45")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			MarginTop(1)

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	priorityStyles = map[model.Priority]lipgloss.Style{
		model.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		model.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		model.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	}
)

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSummary())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderList())
	b.WriteString(m.renderFooter())
	return containerStyle.Render(b.String())
}

func (m Model) renderHeader() string {
	updated := "loading..."
	if !m.loading && !m.lastUpdate.IsZero() {
		updated = "updated " + m.lastUpdate.Format("3:04:05 PM")
	}
	return fmt.Sprintf("%s   %s   %s",
		headerStyle.Render(" CEO Assistant "),
		valueStyle.Render(m.day.Format("Monday, January 2, 2006")),
		dimStyle.Render(updated))
}

func (m Model) renderSummary() string {
	s := m.summary
	if s == nil {
		return sectionStyle.Render("┃ Today") + "\n" + dimStyle.Render("  no data") + "\n"
	}

	var b strings.Builder
	b.WriteString(sectionStyle.Render("┃ Today") + "\n")
	b.WriteString(labelStyle.Render("  Tasks:        ") +
		m.progress.ViewAs(ratio(s.Tasks.TodayCompleted, s.Tasks.Today)) + " " +
		valueStyle.Render(fmt.Sprintf("%d/%d", s.Tasks.TodayCompleted, s.Tasks.Today)) + "\n")
	b.WriteString(labelStyle.Render("  Weekly goals: ") +
		m.progress.ViewAs(ratio(s.WeeklyGoals.Completed, s.WeeklyGoals.Total)) + " " +
		valueStyle.Render(fmt.Sprintf("%d/%d", s.WeeklyGoals.Completed, s.WeeklyGoals.Total)) + "\n")
	b.WriteString(labelStyle.Render("  Daily goals:  ") +
		m.progress.ViewAs(ratio(s.DailyGoals.Completed, s.DailyGoals.Total)) + " " +
		valueStyle.Render(fmt.Sprintf("%d/%d", s.DailyGoals.Completed, s.DailyGoals.Total)) + "\n")

	posts := make([]string, 0, len(model.PostStatuses))
	for _, st := range model.PostStatuses {
		posts = append(posts, fmt.Sprintf("%s=%d", st, s.Posts.ByStatus[string(st)]))
	}
	b.WriteString(labelStyle.Render("  Posts:        ") + dimStyle.Render(strings.Join(posts, "  ")) + "\n")
	b.WriteString(labelStyle.Render("  Completed (7d): ") + trendSparkline(s.Trend) + "\n")
	return b.String()
}

func ratio(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total)
}

// trendSparkline renders completed tasks per day, oldest first.
func trendSparkline(trend []stats.DayCount) string {
	if len(trend) == 0 {
		return dimStyle.Render("no data")
	}
	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, d := range trend {
		spark.Push(float64(d.Completed))
	}
	spark.Draw()
	return sparklineStyle.Render(spark.View())
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, tabCount)
	for t := tab(0); t < tabCount; t++ {
		label := fmt.Sprintf("%s (%d)", tabNames[t], m.length(t))
		if t == m.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderList() string {
	var rows []string
	switch m.tab {
	case tabTasks:
		for _, t := range m.tasks.Items() {
			rows = append(rows, fmt.Sprintf("%s %s  %s  %s",
				checkbox(t.Completed),
				title(t.Title, t.Completed),
				dimStyle.Render(string(t.Category)),
				priorityStyles[t.Priority].Render(string(t.Priority))))
		}
	case tabWeekly, tabDaily:
		for _, g := range m.goals(m.cadence()).Items() {
			rows = append(rows, fmt.Sprintf("%s %s", checkbox(g.Completed), title(g.Title, g.Completed)))
		}
	case tabPosts:
		for _, p := range m.posts.Items() {
			rows = append(rows, fmt.Sprintf("%-9s %s  %s",
				statusBadge(p.Status),
				title(p.Title, p.Status == model.PostPosted),
				dimStyle.Render(p.Date.Format(time.DateOnly))))
		}
	}

	if len(rows) == 0 {
		return "\n" + dimStyle.Render("  nothing here yet") + "\n"
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, row := range rows {
		if i == m.cursor[m.tab] {
			b.WriteString(selectedStyle.Render("▸ ") + row + "\n")
		} else {
			b.WriteString("  " + row + "\n")
		}
	}
	return b.String()
}

func checkbox(done bool) string {
	if done {
		return doneStyle.Render("[✓]")
	}
	return dimStyle.Render("[ ]")
}

func title(s string, done bool) string {
	s = truncate(s, titleWidth)
	if done {
		return dimStyle.Strikethrough(true).Render(s)
	}
	return valueStyle.Render(s)
}

func statusBadge(s model.PostStatus) string {
	switch s {
	case model.PostPosted:
		return doneStyle.Render(string(s))
	case model.PostOpen:
		return labelStyle.Render(string(s))
	default:
		return dimStyle.Render(string(s))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func (m Model) renderFooter() string {
	if m.err != nil {
		return footerStyle.Render(errorStyle.Render("✗ "+m.err.Error())) + "\n" + m.help.View(m.keys)
	}
	return footerStyle.Render(m.help.View(m.keys))
}
