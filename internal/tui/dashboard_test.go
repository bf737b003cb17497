package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/fyrsmithlabs/ceo-assistant/internal/stats"
)

var day = time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

// fakeAPI serves fixed lists and fails mutations when fail is set.
type fakeAPI struct {
	mu    sync.Mutex
	fail  error
	calls []string
	dates []string
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.fail
}

func (f *fakeAPI) TasksByDate(_ context.Context, date string) ([]model.Task, error) {
	f.mu.Lock()
	f.dates = append(f.dates, date)
	f.mu.Unlock()
	return []model.Task{
		{Meta: model.Meta{ID: "t1"}, Title: "Finish API integration", Category: model.CategoryProduct, Priority: model.PriorityHigh},
		{Meta: model.Meta{ID: "t2"}, Title: "Prepare presentation", Category: model.CategorySales, Priority: model.PriorityMedium, Completed: true},
	}, nil
}

func (f *fakeAPI) ToggleTask(_ context.Context, id string) (*model.Task, error) {
	if err := f.record("toggle-task " + id); err != nil {
		return nil, err
	}
	return &model.Task{Meta: model.Meta{ID: id}, Title: "server copy", Completed: true}, nil
}

func (f *fakeAPI) DeleteTask(_ context.Context, id string) error {
	return f.record("delete-task " + id)
}

func (f *fakeAPI) GoalsByDate(_ context.Context, cadence model.Cadence, _ string) ([]model.Goal, error) {
	return []model.Goal{{Meta: model.Meta{ID: string(cadence) + "-1"}, Title: "Grow retention"}}, nil
}

func (f *fakeAPI) ToggleGoal(_ context.Context, cadence model.Cadence, id string) (*model.Goal, error) {
	if err := f.record("toggle-goal " + string(cadence) + " " + id); err != nil {
		return nil, err
	}
	return &model.Goal{Meta: model.Meta{ID: id}, Title: "Grow retention", Completed: true}, nil
}

func (f *fakeAPI) DeleteGoal(_ context.Context, cadence model.Cadence, id string) error {
	return f.record("delete-goal " + string(cadence) + " " + id)
}

func (f *fakeAPI) ListPosts(context.Context) ([]model.LinkedInPost, error) {
	return []model.LinkedInPost{{Meta: model.Meta{ID: "p1"}, Title: "Company achievements in Q2", Status: model.PostScheduled, Date: day}}, nil
}

func (f *fakeAPI) UpdatePostStatus(_ context.Context, id, status string) (*model.LinkedInPost, error) {
	if err := f.record("status " + id + " " + status); err != nil {
		return nil, err
	}
	return &model.LinkedInPost{Meta: model.Meta{ID: id}, Title: "Company achievements in Q2", Status: model.PostStatus(status)}, nil
}

func (f *fakeAPI) DeletePost(_ context.Context, id string) error {
	return f.record("delete-post " + id)
}

func (f *fakeAPI) Stats(_ context.Context, date string) (*stats.Summary, error) {
	return &stats.Summary{
		Date:  date,
		Tasks: stats.TaskStats{Total: 2, Completed: 1, Today: 2, TodayCompleted: 1},
		Posts: stats.PostStats{Total: 1, ByStatus: map[string]int64{"scheduled": 1}},
		Trend: []stats.DayCount{{Date: "2024-03-13", Completed: 2}, {Date: date, Completed: 1}},
	}, nil
}

// loaded returns a model after its initial load completed.
func loaded(t *testing.T, api *fakeAPI) Model {
	t.Helper()
	m := NewModel(api, day, 0)
	m.now = func() time.Time { return day.Add(9 * time.Hour) }
	msg := m.load()()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func press(t *testing.T, m Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		msg = tea.KeyMsg{Type: tea.KeyShiftTab}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	updated, _ := m.Update(cmd())
	return updated.(Model)
}

func TestNewModel(t *testing.T) {
	m := NewModel(&fakeAPI{}, day, 5*time.Second)
	assert.Equal(t, 5*time.Second, m.interval)
	assert.True(t, m.loading)
	assert.NotNil(t, m.Init())
}

func TestModel_Load(t *testing.T) {
	api := &fakeAPI{}
	m := loaded(t, api)

	assert.False(t, m.loading)
	assert.Equal(t, 2, m.tasks.Len())
	assert.Equal(t, 1, m.weekly.Len())
	assert.Equal(t, 1, m.daily.Len())
	assert.Equal(t, 1, m.posts.Len())
	require.NotNil(t, m.summary)
	assert.Equal(t, []string{"2024-03-14"}, api.dates)

	view := m.View()
	assert.Contains(t, view, "CEO Assistant")
	assert.Contains(t, view, "Finish API integration")
	assert.Contains(t, view, "Tasks (2)")
}

func TestModel_IgnoresStaleLoad(t *testing.T) {
	api := &fakeAPI{}
	m := NewModel(api, day, 0)
	stale := m.load()

	m, cmd := press(t, m, "]")
	require.NotNil(t, cmd)
	assert.Equal(t, "2024-03-15", m.date())

	updated, _ := m.Update(stale())
	m = updated.(Model)
	assert.True(t, m.loading)
	assert.Equal(t, 0, m.tasks.Len())
}

func TestModel_Tabs(t *testing.T) {
	m := loaded(t, &fakeAPI{})

	m, _ = press(t, m, "tab")
	assert.Equal(t, tabWeekly, m.tab)
	m, _ = press(t, m, "shift+tab")
	m, _ = press(t, m, "shift+tab")
	assert.Equal(t, tabPosts, m.tab)

	m, _ = press(t, m, "tab")
	m, _ = press(t, m, "down")
	m, _ = press(t, m, "down")
	assert.Equal(t, 1, m.cursor[tabTasks])
}

func TestModel_ToggleTask_Optimistic(t *testing.T) {
	api := &fakeAPI{}
	m := loaded(t, api)

	m, cmd := press(t, m, "space")
	first, _ := m.tasks.At(0)
	assert.True(t, first.Completed, "applied before the server replies")

	m = run(t, m, cmd)
	first, _ = m.tasks.At(0)
	assert.Equal(t, "server copy", first.Title)
	assert.NoError(t, m.Err())
	assert.Equal(t, []string{"toggle-task t1"}, api.calls)
}

func TestModel_ToggleTask_RollsBack(t *testing.T) {
	api := &fakeAPI{fail: errors.New("500 Server Error")}
	m := loaded(t, api)

	m, cmd := press(t, m, "space")
	m = run(t, m, cmd)

	first, _ := m.tasks.At(0)
	assert.False(t, first.Completed)
	assert.Equal(t, "Finish API integration", first.Title)
	assert.EqualError(t, m.Err(), "500 Server Error")
	assert.Contains(t, m.View(), "500 Server Error")
}

func TestModel_DeleteTask_RollsBackInPlace(t *testing.T) {
	api := &fakeAPI{fail: errors.New("404 Task not found")}
	m := loaded(t, api)

	m, cmd := press(t, m, "d")
	assert.Equal(t, 1, m.tasks.Len())

	m = run(t, m, cmd)
	require.Equal(t, 2, m.tasks.Len())
	first, _ := m.tasks.At(0)
	assert.Equal(t, "t1", first.ID)
	assert.Error(t, m.Err())
}

func TestModel_FailedMutationAfterDayChange_LeavesNewDayAlone(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"toggle", "space"},
		{"delete", "d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{fail: errors.New("500 Server Error")}
			m := loaded(t, api)

			m, mutate := press(t, m, tt.key)
			require.NotNil(t, mutate)
			m, _ = press(t, m, "]")
			require.Equal(t, "2024-03-15", m.date())

			updated, _ := m.Update(loadedMsg{date: "2024-03-15", summary: &stats.Summary{Date: "2024-03-15"}})
			m = updated.(Model)
			require.Equal(t, 0, m.tasks.Len())

			m = run(t, m, mutate)
			assert.Equal(t, 0, m.tasks.Len())
			assert.EqualError(t, m.Err(), "500 Server Error")
		})
	}
}

func TestModel_FailedToggleAfterReload_DoesNotResurrect(t *testing.T) {
	api := &fakeAPI{fail: errors.New("500 Server Error")}
	m := loaded(t, api)

	m, toggle := press(t, m, "space")
	updated, _ := m.Update(loadedMsg{date: m.date(), tasks: []model.Task{{Meta: model.Meta{ID: "t2"}, Title: "Prepare presentation"}}})
	m = updated.(Model)

	m = run(t, m, toggle)
	require.Equal(t, 1, m.tasks.Len())
	only, _ := m.tasks.At(0)
	assert.Equal(t, "t2", only.ID)
}

func TestModel_DeleteLastRow_ClampsCursor(t *testing.T) {
	m := loaded(t, &fakeAPI{})
	m, _ = press(t, m, "down")
	m, cmd := press(t, m, "d")
	m = run(t, m, cmd)
	assert.Equal(t, 1, m.tasks.Len())
	assert.Equal(t, 0, m.cursor[tabTasks])
}

func TestModel_Goals(t *testing.T) {
	api := &fakeAPI{}
	m := loaded(t, api)

	m, _ = press(t, m, "tab")
	m, cmd := press(t, m, "space")
	g, _ := m.weekly.At(0)
	assert.True(t, g.Completed)
	m = run(t, m, cmd)

	m, _ = press(t, m, "tab")
	m, cmd = press(t, m, "d")
	assert.Equal(t, 0, m.daily.Len())
	m = run(t, m, cmd)
	assert.Equal(t, 0, m.daily.Len())

	assert.Equal(t, []string{"toggle-goal weekly weekly-1", "delete-goal daily daily-1"}, api.calls)
}

func TestModel_PostStatus(t *testing.T) {
	t.Run("advances status", func(t *testing.T) {
		api := &fakeAPI{}
		m := loaded(t, api)
		m, _ = press(t, m, "shift+tab")

		m, cmd := press(t, m, "space")
		p, _ := m.posts.At(0)
		assert.Equal(t, model.PostPosted, p.Status)
		m = run(t, m, cmd)
		p, _ = m.posts.At(0)
		assert.Equal(t, model.PostPosted, p.Status)
		assert.Equal(t, []string{"status p1 posted"}, api.calls)
	})

	t.Run("rolls back", func(t *testing.T) {
		m := loaded(t, &fakeAPI{fail: errors.New("400 Invalid status value (status)")})
		m, _ = press(t, m, "shift+tab")
		m, cmd := press(t, m, "space")
		m = run(t, m, cmd)
		p, _ := m.posts.At(0)
		assert.Equal(t, model.PostScheduled, p.Status)
		assert.Error(t, m.Err())
	})
}

func TestNextStatus(t *testing.T) {
	assert.Equal(t, model.PostPosted, NextStatus(model.PostScheduled))
	assert.Equal(t, model.PostOpen, NextStatus(model.PostPosted))
	assert.Equal(t, model.PostScheduled, NextStatus(model.PostOpen))
	assert.Equal(t, model.PostScheduled, NextStatus("unknown"))
}

func TestModel_DayNavigation(t *testing.T) {
	api := &fakeAPI{}
	m := loaded(t, api)

	m, cmd := press(t, m, "[")
	assert.Equal(t, "2024-03-13", m.date())
	m = run(t, m, cmd)

	m, cmd = press(t, m, "t")
	assert.Equal(t, "2024-03-14", m.date())
	_ = run(t, m, cmd)

	assert.Equal(t, []string{"2024-03-14", "2024-03-13", "2024-03-14"}, api.dates)
}

func TestModel_Quit(t *testing.T) {
	m := loaded(t, &fakeAPI{})
	m, cmd := press(t, m, "q")
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestModel_EmptyList(t *testing.T) {
	m := NewModel(&fakeAPI{}, day, 0)
	m.loading = false
	_, cmd := press(t, m, "space")
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "nothing here yet")
}
