package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ceo-assistant/internal/demo"
	"github.com/fyrsmithlabs/ceo-assistant/internal/events"
	"github.com/fyrsmithlabs/ceo-assistant/internal/tui"
)

var (
	statsDate         string
	activityLimit     int
	dashboardInterval time.Duration
)

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(dashboardCmd)

	statsCmd.Flags().StringVar(&statsDate, "date", "", "Day to summarize (YYYY-MM-DD, defaults to today)")
	activityCmd.Flags().IntVar(&activityLimit, "limit", 20, "Maximum number of events to show")
	dashboardCmd.Flags().DurationVar(&dashboardInterval, "interval", 30*time.Second, "refresh interval (0 disables)")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the dashboard summary",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show recent changes",
	Args:  cobra.NoArgs,
	RunE:  runActivity,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data",
	Long: `Create a small demo data set for the current user: three tasks, two weekly
goals, two daily goals and two LinkedIn posts, all dated today.

Examples:
  ceoctl seed --user demo`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard",
	Long: `Open a terminal dashboard with tabs for tasks, weekly goals, daily goals and
LinkedIn posts.

Keys:
  tab/shift+tab  switch tabs
  ↑/↓            move
  space          toggle completion (posts: next status)
  d              delete
  [ / ]          previous / next day
  t              today
  r              refresh
  q              quit`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func runStats(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	s, err := c.Stats(ctx, statsDate)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	return render(cmd, s, func(p *printer) {
		p.row("DATE", s.Date)
		p.row("TASKS", fmt.Sprintf("%d/%d done", s.Tasks.Completed, s.Tasks.Total))
		p.row("TASKS TODAY", fmt.Sprintf("%d/%d done", s.Tasks.TodayCompleted, s.Tasks.Today))
		for _, k := range sortedKeys(s.Tasks.ByCategory) {
			p.row("  "+k, strconv.FormatInt(s.Tasks.ByCategory[k], 10))
		}
		p.row("WEEKLY GOALS", fmt.Sprintf("%d/%d done", s.WeeklyGoals.Completed, s.WeeklyGoals.Total))
		p.row("DAILY GOALS", fmt.Sprintf("%d/%d done", s.DailyGoals.Completed, s.DailyGoals.Total))
		p.row("POSTS", strconv.FormatInt(s.Posts.Total, 10))
		for _, k := range sortedKeys(s.Posts.ByStatus) {
			p.row("  "+k, strconv.FormatInt(s.Posts.ByStatus[k], 10))
		}
		for _, d := range s.Trend {
			p.row("TREND "+d.Date, fmt.Sprintf("%d/%d done", d.Completed, d.Total))
		}
	})
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runActivity(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	evts, err := c.Activity(ctx, activityLimit)
	if err != nil {
		return fmt.Errorf("failed to load activity: %w", err)
	}
	return renderActivity(cmd, evts)
}

func renderActivity(cmd *cobra.Command, evts []events.Event) error {
	return render(cmd, evts, func(p *printer) {
		if len(evts) == 0 {
			p.row("No recent activity")
			return
		}
		p.row("AT", "KIND", "ACTION", "TITLE")
		for _, e := range evts {
			p.row(e.At.Local().Format("2006-01-02 15:04"), string(e.Kind), string(e.Action), truncate(e.Title, 50))
		}
	})
}

func runSeed(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	n, err := demo.Seed(ctx, demo.Client{Client: c}, demo.Data(time.Now()))
	if err != nil {
		return err
	}
	return render(cmd, n, func(p *printer) {
		p.row("TASKS", "WEEKLY GOALS", "DAILY GOALS", "POSTS")
		p.row(strconv.Itoa(n.Tasks), strconv.Itoa(n.WeeklyGoals), strconv.Itoa(n.DailyGoals), strconv.Itoa(n.Posts))
	})
}

func runDashboard(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	m := tui.NewModel(c, time.Now(), dashboardInterval)
	prog := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
