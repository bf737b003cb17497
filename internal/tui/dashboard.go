// Package tui implements the terminal dashboard opened by "ceoctl dashboard".
//
// The dashboard mirrors the server's lists for one day in local stores.
// Toggles, deletes and post status changes are applied to the stores
// immediately and rolled back if the server rejects them; the error is
// shown in the footer.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/fyrsmithlabs/ceo-assistant/internal/stats"
)

const defaultTimeout = 10 * time.Second

// API is the part of the HTTP client the dashboard needs. *client.Client
// satisfies it.
type API interface {
	TasksByDate(ctx context.Context, date string) ([]model.Task, error)
	ToggleTask(ctx context.Context, id string) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error

	GoalsByDate(ctx context.Context, cadence model.Cadence, date string) ([]model.Goal, error)
	ToggleGoal(ctx context.Context, cadence model.Cadence, id string) (*model.Goal, error)
	DeleteGoal(ctx context.Context, cadence model.Cadence, id string) error

	ListPosts(ctx context.Context) ([]model.LinkedInPost, error)
	UpdatePostStatus(ctx context.Context, id, status string) (*model.LinkedInPost, error)
	DeletePost(ctx context.Context, id string) error

	Stats(ctx context.Context, date string) (*stats.Summary, error)
}

type tab int

const (
	tabTasks tab = iota
	tabWeekly
	tabDaily
	tabPosts
	tabCount
)

var tabNames = [tabCount]string{"Tasks", "Weekly goals", "Daily goals", "LinkedIn posts"}

type keyMap struct {
	NextTab key.Binding
	PrevTab key.Binding
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Delete  key.Binding
	PrevDay key.Binding
	NextDay key.Binding
	Today   key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		NextTab: key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "enter", "x"), key.WithHelp("space", "toggle/status")),
		Delete:  key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		PrevDay: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev day")),
		NextDay: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next day")),
		Today:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Toggle, k.Delete, k.PrevDay, k.NextDay, k.Refresh, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.Up, k.Down},
		{k.Toggle, k.Delete},
		{k.PrevDay, k.NextDay, k.Today, k.Refresh, k.Quit},
	}
}

// Model is the bubbletea dashboard model.
type Model struct {
	api      API
	interval time.Duration
	now      func() time.Time

	day    time.Time
	tab    tab
	cursor [tabCount]int

	tasks   *Store[model.Task]
	weekly  *Store[model.Goal]
	daily   *Store[model.Goal]
	posts   *Store[model.LinkedInPost]
	summary *stats.Summary

	keys     keyMap
	help     help.Model
	progress progress.Model

	loading    bool
	lastUpdate time.Time
	err        error
	quitting   bool
}

// NewModel creates a dashboard for the day containing day. A positive
// interval refreshes the lists periodically.
func NewModel(api API, day time.Time, interval time.Duration) Model {
	return Model{
		api:      api,
		interval: interval,
		now:      time.Now,
		day:      day,
		tasks:    NewStore(func(t model.Task) string { return t.ID }),
		weekly:   NewStore(func(g model.Goal) string { return g.ID }),
		daily:    NewStore(func(g model.Goal) string { return g.ID }),
		posts:    NewStore(func(p model.LinkedInPost) string { return p.ID }),
		keys:     defaultKeys(),
		help:     help.New(),
		progress: progress.New(
			progress.WithGradient("#00ffff", "#00ff00"),
			progress.WithWidth(30),
		),
		loading: true,
	}
}

// Err returns the error shown in the footer, if any.
func (m Model) Err() error { return m.err }

func (m Model) date() string { return m.day.Format(time.DateOnly) }

// Message types
type tickMsg time.Time

type loadedMsg struct {
	date    string
	tasks   []model.Task
	weekly  []model.Goal
	daily   []model.Goal
	posts   []model.LinkedInPost
	summary *stats.Summary
	err     error
}

type statsMsg struct {
	date    string
	summary *stats.Summary
	err     error
}

// Mutation results carry the day they were issued on. A result that
// arrives after the day changed leaves the stores alone; the reload for the
// new day already reflects the server.
type taskSavedMsg struct {
	date string
	prev model.Task
	next *model.Task
	err  error
}

type taskDeletedMsg struct {
	date  string
	prev  model.Task
	index int
	err   error
}

type goalSavedMsg struct {
	date    string
	cadence model.Cadence
	prev    model.Goal
	next    *model.Goal
	err     error
}

type goalDeletedMsg struct {
	date    string
	cadence model.Cadence
	prev    model.Goal
	index   int
	err     error
}

type postSavedMsg struct {
	date string
	prev model.LinkedInPost
	next *model.LinkedInPost
	err  error
}

type postDeletedMsg struct {
	date  string
	prev  model.LinkedInPost
	index int
	err   error
}

// Init loads the first day and starts the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), tick(m.interval))
}

func tick(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// load fetches every list and the summary for the current day concurrently.
func (m Model) load() tea.Cmd {
	api, date := m.api, m.date()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()

		msg := loadedMsg{date: date}
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			msg.tasks, err = api.TasksByDate(ctx, date)
			return err
		})
		g.Go(func() (err error) {
			msg.weekly, err = api.GoalsByDate(ctx, model.Weekly, date)
			return err
		})
		g.Go(func() (err error) {
			msg.daily, err = api.GoalsByDate(ctx, model.Daily, date)
			return err
		})
		g.Go(func() (err error) {
			msg.posts, err = api.ListPosts(ctx)
			return err
		})
		g.Go(func() (err error) {
			msg.summary, err = api.Stats(ctx, date)
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

func (m Model) loadStats() tea.Cmd {
	api, date := m.api, m.date()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		s, err := api.Stats(ctx, date)
		return statsMsg{date: date, summary: s, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.load(), tick(m.interval))

	case loadedMsg:
		if msg.date != m.date() {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.tasks.Replace(msg.tasks)
		m.weekly.Replace(msg.weekly)
		m.daily.Replace(msg.daily)
		m.posts.Replace(msg.posts)
		m.summary = msg.summary
		m.lastUpdate = m.now()
		m.err = nil
		m.clampCursors()
		return m, nil

	case statsMsg:
		if msg.date == m.date() && msg.err == nil {
			m.summary = msg.summary
		}
		return m, nil

	case taskSavedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		if msg.date != m.date() {
			return m, nil
		}
		if msg.err != nil {
			m.tasks.Set(msg.prev)
			return m, nil
		}
		m.tasks.Set(*msg.next)
		return m, m.loadStats()

	case taskDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		if msg.date != m.date() {
			return m, nil
		}
		if msg.err != nil {
			m.tasks.Insert(msg.index, msg.prev)
			return m, nil
		}
		return m, m.loadStats()

	case goalSavedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		if msg.date != m.date() {
			return m, nil
		}
		goals := m.goals(msg.cadence)
		if msg.err != nil {
			goals.Set(msg.prev)
			return m, nil
		}
		goals.Set(*msg.next)
		return m, m.loadStats()

	case goalDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		if msg.date != m.date() {
			return m, nil
		}
		if msg.err != nil {
			m.goals(msg.cadence).Insert(msg.index, msg.prev)
			return m, nil
		}
		return m, m.loadStats()

	case postSavedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		if msg.date != m.date() {
			return m, nil
		}
		if msg.err != nil {
			m.posts.Set(msg.prev)
			return m, nil
		}
		m.posts.Set(*msg.next)
		return m, m.loadStats()

	case postDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		if msg.date != m.date() {
			return m, nil
		}
		if msg.err != nil {
			m.posts.Insert(msg.index, msg.prev)
			return m, nil
		}
		return m, m.loadStats()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % tabCount
	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + tabCount - 1) % tabCount
	case key.Matches(msg, m.keys.Up):
		if m.cursor[m.tab] > 0 {
			m.cursor[m.tab]--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor[m.tab] < m.length(m.tab)-1 {
			m.cursor[m.tab]++
		}
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.load()
	case key.Matches(msg, m.keys.PrevDay):
		return m.setDay(m.day.AddDate(0, 0, -1))
	case key.Matches(msg, m.keys.NextDay):
		return m.setDay(m.day.AddDate(0, 0, 1))
	case key.Matches(msg, m.keys.Today):
		return m.setDay(m.now())
	case key.Matches(msg, m.keys.Toggle):
		m.err = nil
		cmd := m.toggleSelected()
		return m, cmd
	case key.Matches(msg, m.keys.Delete):
		m.err = nil
		cmd := m.deleteSelected()
		return m, cmd
	}
	return m, nil
}

func (m Model) setDay(day time.Time) (tea.Model, tea.Cmd) {
	m.day = day
	m.loading = true
	m.cursor = [tabCount]int{}
	return m, m.load()
}

// toggleSelected flips completion of the selected task or goal, or advances
// the selected post to its next status.
func (m Model) toggleSelected() tea.Cmd {
	api, date := m.api, m.date()
	i := m.cursor[m.tab]
	switch m.tab {
	case tabTasks:
		t, ok := m.tasks.At(i)
		if !ok {
			return nil
		}
		prev, _ := m.tasks.Update(t.ID, func(t *model.Task) { t.Completed = !t.Completed })
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()
			next, err := api.ToggleTask(ctx, prev.ID)
			return taskSavedMsg{date: date, prev: prev, next: next, err: err}
		}

	case tabWeekly, tabDaily:
		cadence := m.cadence()
		goals := m.goals(cadence)
		g, ok := goals.At(i)
		if !ok {
			return nil
		}
		prev, _ := goals.Update(g.ID, func(g *model.Goal) { g.Completed = !g.Completed })
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()
			next, err := api.ToggleGoal(ctx, cadence, prev.ID)
			return goalSavedMsg{date: date, cadence: cadence, prev: prev, next: next, err: err}
		}

	case tabPosts:
		p, ok := m.posts.At(i)
		if !ok {
			return nil
		}
		status := NextStatus(p.Status)
		prev, _ := m.posts.Update(p.ID, func(p *model.LinkedInPost) { p.Status = status })
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()
			next, err := api.UpdatePostStatus(ctx, prev.ID, string(status))
			return postSavedMsg{date: date, prev: prev, next: next, err: err}
		}
	}
	return nil
}

func (m *Model) deleteSelected() tea.Cmd {
	api, date := m.api, m.date()
	i := m.cursor[m.tab]
	defer m.clampCursors()

	switch m.tab {
	case tabTasks:
		t, ok := m.tasks.At(i)
		if !ok {
			return nil
		}
		prev, index, _ := m.tasks.Remove(t.ID)
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()
			return taskDeletedMsg{date: date, prev: prev, index: index, err: api.DeleteTask(ctx, prev.ID)}
		}

	case tabWeekly, tabDaily:
		cadence := m.cadence()
		goals := m.goals(cadence)
		g, ok := goals.At(i)
		if !ok {
			return nil
		}
		prev, index, _ := goals.Remove(g.ID)
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()
			return goalDeletedMsg{date: date, cadence: cadence, prev: prev, index: index, err: api.DeleteGoal(ctx, cadence, prev.ID)}
		}

	case tabPosts:
		p, ok := m.posts.At(i)
		if !ok {
			return nil
		}
		prev, index, _ := m.posts.Remove(p.ID)
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()
			return postDeletedMsg{date: date, prev: prev, index: index, err: api.DeletePost(ctx, prev.ID)}
		}
	}
	return nil
}

// NextStatus cycles scheduled -> posted -> open -> scheduled.
func NextStatus(s model.PostStatus) model.PostStatus {
	for i, st := range model.PostStatuses {
		if st == s {
			return model.PostStatuses[(i+1)%len(model.PostStatuses)]
		}
	}
	return model.PostScheduled
}

func (m Model) cadence() model.Cadence {
	if m.tab == tabDaily {
		return model.Daily
	}
	return model.Weekly
}

func (m Model) goals(c model.Cadence) *Store[model.Goal] {
	if c == model.Daily {
		return m.daily
	}
	return m.weekly
}

func (m Model) length(t tab) int {
	switch t {
	case tabTasks:
		return m.tasks.Len()
	case tabWeekly:
		return m.weekly.Len()
	case tabDaily:
		return m.daily.Len()
	case tabPosts:
		return m.posts.Len()
	}
	return 0
}

func (m *Model) clampCursors() {
	for t := tab(0); t < tabCount; t++ {
		n := m.length(t)
		if m.cursor[t] >= n {
			m.cursor[t] = max(0, n-1)
		}
	}
}
