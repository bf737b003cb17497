package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fyrsmithlabs/ceo-assistant/internal/events"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/fyrsmithlabs/ceo-assistant/internal/stats"
)

// Health is the body of /health and /ready.
type Health struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Message is the body of delete and session replies.
type Message struct {
	Message string `json:"message"`
}

// TaskFilter narrows ListTasks. Zero values match everything.
type TaskFilter struct {
	Category  string
	Completed *bool
}

// Health checks liveness.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Ready checks that the server can reach its store.
func (c *Client) Ready(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/ready", nil, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Tasks

func (c *Client) ListTasks(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Completed != nil {
		q.Set("completed", strconv.FormatBool(*f.Completed))
	}
	return many[model.Task](ctx, c, "/api/tasks", q)
}

func (c *Client) TasksByCategory(ctx context.Context, category string) ([]model.Task, error) {
	return many[model.Task](ctx, c, "/api/tasks/category/"+url.PathEscape(category), nil)
}

// TasksByDate lists tasks on the server-local day containing date
// (YYYY-MM-DD).
func (c *Client) TasksByDate(ctx context.Context, date string) ([]model.Task, error) {
	return many[model.Task](ctx, c, "/api/tasks/date/"+url.PathEscape(date), nil)
}

func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return one[model.Task](ctx, c, http.MethodGet, taskPath(id), nil)
}

func (c *Client) CreateTask(ctx context.Context, in model.TaskInput) (*model.Task, error) {
	return one[model.Task](ctx, c, http.MethodPost, "/api/tasks", in)
}

func (c *Client) UpdateTask(ctx context.Context, id string, p model.TaskPatch) (*model.Task, error) {
	return one[model.Task](ctx, c, http.MethodPut, taskPath(id), p)
}

func (c *Client) ToggleTask(ctx context.Context, id string) (*model.Task, error) {
	return one[model.Task](ctx, c, http.MethodPatch, taskPath(id)+"/toggle-completion", nil)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil, nil)
}

func taskPath(id string) string { return "/api/tasks/" + url.PathEscape(id) }

// Goals

func goalBase(cadence model.Cadence) string {
	if cadence == model.Daily {
		return "/api/daily-goals"
	}
	return "/api/weekly-goals"
}

func goalPath(cadence model.Cadence, id string) string {
	return goalBase(cadence) + "/" + url.PathEscape(id)
}

func (c *Client) ListGoals(ctx context.Context, cadence model.Cadence) ([]model.Goal, error) {
	return many[model.Goal](ctx, c, goalBase(cadence), nil)
}

// GoalsByDate lists weekly goals for the week containing date, or daily
// goals for that day.
func (c *Client) GoalsByDate(ctx context.Context, cadence model.Cadence, date string) ([]model.Goal, error) {
	return many[model.Goal](ctx, c, goalBase(cadence)+"/date/"+url.PathEscape(date), nil)
}

func (c *Client) GetGoal(ctx context.Context, cadence model.Cadence, id string) (*model.Goal, error) {
	return one[model.Goal](ctx, c, http.MethodGet, goalPath(cadence, id), nil)
}

func (c *Client) CreateGoal(ctx context.Context, cadence model.Cadence, in model.GoalInput) (*model.Goal, error) {
	return one[model.Goal](ctx, c, http.MethodPost, goalBase(cadence), in)
}

func (c *Client) UpdateGoal(ctx context.Context, cadence model.Cadence, id string, p model.GoalPatch) (*model.Goal, error) {
	return one[model.Goal](ctx, c, http.MethodPut, goalPath(cadence, id), p)
}

func (c *Client) ToggleGoal(ctx context.Context, cadence model.Cadence, id string) (*model.Goal, error) {
	return one[model.Goal](ctx, c, http.MethodPatch, goalPath(cadence, id)+"/toggle-completion", nil)
}

func (c *Client) DeleteGoal(ctx context.Context, cadence model.Cadence, id string) error {
	return c.do(ctx, http.MethodDelete, goalPath(cadence, id), nil, nil, nil)
}

// LinkedIn posts

func postPath(id string) string { return "/api/linkedin-posts/" + url.PathEscape(id) }

func (c *Client) ListPosts(ctx context.Context) ([]model.LinkedInPost, error) {
	return many[model.LinkedInPost](ctx, c, "/api/linkedin-posts", nil)
}

func (c *Client) PostsByStatus(ctx context.Context, status string) ([]model.LinkedInPost, error) {
	return many[model.LinkedInPost](ctx, c, "/api/linkedin-posts/status/"+url.PathEscape(status), nil)
}

func (c *Client) GetPost(ctx context.Context, id string) (*model.LinkedInPost, error) {
	return one[model.LinkedInPost](ctx, c, http.MethodGet, postPath(id), nil)
}

func (c *Client) CreatePost(ctx context.Context, in model.PostInput) (*model.LinkedInPost, error) {
	return one[model.LinkedInPost](ctx, c, http.MethodPost, "/api/linkedin-posts", in)
}

func (c *Client) UpdatePost(ctx context.Context, id string, p model.PostPatch) (*model.LinkedInPost, error) {
	return one[model.LinkedInPost](ctx, c, http.MethodPut, postPath(id), p)
}

func (c *Client) UpdatePostStatus(ctx context.Context, id, status string) (*model.LinkedInPost, error) {
	return one[model.LinkedInPost](ctx, c, http.MethodPatch, postPath(id)+"/status", map[string]string{"status": status})
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, postPath(id), nil, nil, nil)
}

// Dashboard

// Activity returns the caller's most recent events, newest first. A limit
// of zero uses the server default.
func (c *Client) Activity(ctx context.Context, limit int) ([]events.Event, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return many[events.Event](ctx, c, "/api/activity", q)
}

// Stats returns the dashboard summary for date, or today when date is empty.
func (c *Client) Stats(ctx context.Context, date string) (*stats.Summary, error) {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	var out stats.Summary
	if err := c.do(ctx, http.MethodGet, "/api/stats", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func one[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	var out T
	if err := c.do(ctx, method, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func many[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var out []T
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
