// Package demo loads a small sample data set for trying the dashboard
// without real data. The same set is seeded in-process by ceod
// (storage.seed_demo) and over HTTP by "ceoctl seed".
package demo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/ceo-assistant/internal/client"
	"github.com/fyrsmithlabs/ceo-assistant/internal/goal"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/fyrsmithlabs/ceo-assistant/internal/post"
	"github.com/fyrsmithlabs/ceo-assistant/internal/task"
)

// UserID owns the demo data when ceod seeds it at startup.
const UserID = "mock-user-id"

// TaskSeed is a task plus its initial completion state.
type TaskSeed struct {
	Input     model.TaskInput
	Completed bool
}

// GoalSeed is a goal plus its initial completion state.
type GoalSeed struct {
	Input     model.GoalInput
	Completed bool
}

// Set is a complete demo data set.
type Set struct {
	Tasks       []TaskSeed
	WeeklyGoals []GoalSeed
	DailyGoals  []GoalSeed
	Posts       []model.PostInput
}

// Counts reports how many documents a seed created.
type Counts struct {
	Tasks       int `json:"tasks" yaml:"tasks"`
	WeeklyGoals int `json:"weeklyGoals" yaml:"weeklyGoals"`
	DailyGoals  int `json:"dailyGoals" yaml:"dailyGoals"`
	Posts       int `json:"posts" yaml:"posts"`
}

// Data returns the demo set with every item dated today.
func Data(today time.Time) Set {
	day := today.Format(time.DateOnly)
	return Set{
		Tasks: []TaskSeed{
			{Input: model.TaskInput{
				Title:       "Finish API integration",
				Description: "Connect the frontend to the backend API",
				Date:        day,
				Category:    string(model.CategoryProduct),
				Priority:    string(model.PriorityHigh),
			}},
			{Input: model.TaskInput{
				Title:       "Prepare presentation",
				Description: "Create slides for the quarterly review",
				Date:        day,
				Category:    string(model.CategorySales),
				Priority:    string(model.PriorityMedium),
			}, Completed: true},
			{Input: model.TaskInput{
				Title:       "Review marketing campaign",
				Description: "Analyze results from the latest ads",
				Date:        day,
				Category:    string(model.CategoryMarketing),
				Priority:    string(model.PriorityLow),
			}},
		},
		WeeklyGoals: []GoalSeed{
			{Input: model.GoalInput{Title: "Increase customer retention by 5%", Date: day}},
			{Input: model.GoalInput{Title: "Complete platform migration", Date: day}, Completed: true},
		},
		DailyGoals: []GoalSeed{
			{Input: model.GoalInput{Title: "Send follow-up emails", Date: day}},
			{Input: model.GoalInput{Title: "Update website content", Date: day}, Completed: true},
		},
		Posts: []model.PostInput{
			{
				Title:   "Company achievements in Q2",
				Content: "Proud to announce our team has exceeded sales targets by 20% this quarter...",
				Date:    day,
			},
			{
				Title:   "New features released",
				Content: "We are excited to introduce our latest product update with enhanced analytics...",
				Date:    day,
			},
		},
	}
}

// Target receives demo documents.
type Target interface {
	AddTask(ctx context.Context, in model.TaskInput, completed bool) error
	AddGoal(ctx context.Context, cadence model.Cadence, in model.GoalInput, completed bool) error
	AddPost(ctx context.Context, in model.PostInput) error
}

// Seed writes set to target and stops at the first failure.
func Seed(ctx context.Context, target Target, set Set) (Counts, error) {
	var n Counts
	for _, t := range set.Tasks {
		if err := target.AddTask(ctx, t.Input, t.Completed); err != nil {
			return n, fmt.Errorf("failed to seed task %q: %w", t.Input.Title, err)
		}
		n.Tasks++
	}
	for _, g := range set.WeeklyGoals {
		if err := target.AddGoal(ctx, model.Weekly, g.Input, g.Completed); err != nil {
			return n, fmt.Errorf("failed to seed weekly goal %q: %w", g.Input.Title, err)
		}
		n.WeeklyGoals++
	}
	for _, g := range set.DailyGoals {
		if err := target.AddGoal(ctx, model.Daily, g.Input, g.Completed); err != nil {
			return n, fmt.Errorf("failed to seed daily goal %q: %w", g.Input.Title, err)
		}
		n.DailyGoals++
	}
	for _, p := range set.Posts {
		if err := target.AddPost(ctx, p); err != nil {
			return n, fmt.Errorf("failed to seed post %q: %w", p.Title, err)
		}
		n.Posts++
	}
	return n, nil
}

// Services seeds directly through the domain services for one user.
type Services struct {
	UserID      string
	Tasks       task.Service
	WeeklyGoals goal.Service
	DailyGoals  goal.Service
	Posts       post.Service
}

func (s Services) AddTask(ctx context.Context, in model.TaskInput, completed bool) error {
	t, err := s.Tasks.Create(ctx, s.UserID, in)
	if err != nil || !completed {
		return err
	}
	_, err = s.Tasks.ToggleCompletion(ctx, s.UserID, t.ID)
	return err
}

func (s Services) AddGoal(ctx context.Context, cadence model.Cadence, in model.GoalInput, completed bool) error {
	svc := s.WeeklyGoals
	if cadence == model.Daily {
		svc = s.DailyGoals
	}
	if svc == nil {
		return errors.New("no goal service for cadence " + string(cadence))
	}
	g, err := svc.Create(ctx, s.UserID, in)
	if err != nil || !completed {
		return err
	}
	_, err = svc.ToggleCompletion(ctx, s.UserID, g.ID)
	return err
}

func (s Services) AddPost(ctx context.Context, in model.PostInput) error {
	_, err := s.Posts.Create(ctx, s.UserID, in)
	return err
}

// Client seeds through the HTTP API as the client's user.
type Client struct {
	*client.Client
}

func (c Client) AddTask(ctx context.Context, in model.TaskInput, completed bool) error {
	t, err := c.CreateTask(ctx, in)
	if err != nil || !completed {
		return err
	}
	_, err = c.ToggleTask(ctx, t.ID)
	return err
}

func (c Client) AddGoal(ctx context.Context, cadence model.Cadence, in model.GoalInput, completed bool) error {
	g, err := c.CreateGoal(ctx, cadence, in)
	if err != nil || !completed {
		return err
	}
	_, err = c.ToggleGoal(ctx, cadence, g.ID)
	return err
}

func (c Client) AddPost(ctx context.Context, in model.PostInput) error {
	_, err := c.CreatePost(ctx, in)
	return err
}
