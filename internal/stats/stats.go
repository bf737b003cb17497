// Package stats computes the dashboard summary cards.
package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/ceo-assistant/internal/calendar"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/fyrsmithlabs/ceo-assistant/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/ceo-assistant/internal/stats"

// TrendDays is the length of the completion trend.
const TrendDays = 7

// Summary is the dashboard overview for one user and date.
type Summary struct {
	Date        string     `json:"date"`
	Tasks       TaskStats  `json:"tasks"`
	WeeklyGoals GoalStats  `json:"weeklyGoals"`
	DailyGoals  GoalStats  `json:"dailyGoals"`
	Posts       PostStats  `json:"posts"`
	Trend       []DayCount `json:"trend"`
}

// TaskStats counts tasks.
type TaskStats struct {
	Total          int64            `json:"total"`
	Completed      int64            `json:"completed"`
	Today          int64            `json:"today"`
	TodayCompleted int64            `json:"todayCompleted"`
	ByCategory     map[string]int64 `json:"byCategory"`
}

// GoalStats counts goals in one period.
type GoalStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
}

// PostStats counts posts.
type PostStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

// DayCount is the number of tasks dated on one day.
type DayCount struct {
	Date      string `json:"date"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

// Collections groups the collections the summary reads.
type Collections struct {
	Tasks       store.Collection[model.Task]
	WeeklyGoals store.Collection[model.Goal]
	DailyGoals  store.Collection[model.Goal]
	Posts       store.Collection[model.LinkedInPost]
}

// Service computes summaries.
type Service struct {
	cols   Collections
	cal    *calendar.Calendar
	tracer trace.Tracer
}

// NewService creates a stats service.
func NewService(cols Collections, cal *calendar.Calendar) (*Service, error) {
	if cols.Tasks == nil || cols.WeeklyGoals == nil || cols.DailyGoals == nil || cols.Posts == nil {
		return nil, errors.New("all collections are required")
	}
	if cal == nil {
		return nil, errors.New("calendar is required")
	}
	return &Service{cols: cols, cal: cal, tracer: otel.Tracer(instrumentationName)}, nil
}

// Summary computes the dashboard for userID on date. An empty date means
// today. The independent counts run concurrently; the first failure cancels
// the rest.
func (s *Service) Summary(ctx context.Context, userID, date string) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "stats.summary")
	defer span.End()

	day := s.cal.Now()
	if strings.TrimSpace(date) != "" {
		var err error
		if day, err = model.ParseDate(s.cal, date); err != nil {
			return nil, err
		}
	}
	dayFrom, dayTo := s.cal.DayBounds(day)
	weekFrom, weekTo := s.cal.WeekBounds(day)

	sum := &Summary{
		Date:  dayFrom.Format(calendar.DateLayout),
		Tasks: TaskStats{ByCategory: make(map[string]int64, len(model.Categories))},
		Posts: PostStats{ByStatus: make(map[string]int64, len(model.PostStatuses))},
	}
	done := map[string]any{model.FieldCompleted: true}
	g, ctx := errgroup.WithContext(ctx)

	count := func(dst *int64, c interface {
		Count(context.Context, store.Query) (int64, error)
	}, q store.Query) {
		g.Go(func() error {
			n, err := c.Count(ctx, q)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	all := store.Query{UserID: userID}
	today := store.Query{UserID: userID, From: dayFrom, To: dayTo}
	week := store.Query{UserID: userID, From: weekFrom, To: weekTo}

	count(&sum.Tasks.Total, s.cols.Tasks, all)
	count(&sum.Tasks.Completed, s.cols.Tasks, with(all, done))
	count(&sum.Tasks.Today, s.cols.Tasks, today)
	count(&sum.Tasks.TodayCompleted, s.cols.Tasks, with(today, done))

	byCategory := make([]int64, len(model.Categories))
	for i, c := range model.Categories {
		count(&byCategory[i], s.cols.Tasks, with(all, map[string]any{"category": string(c)}))
	}

	count(&sum.WeeklyGoals.Total, s.cols.WeeklyGoals, week)
	count(&sum.WeeklyGoals.Completed, s.cols.WeeklyGoals, with(week, done))
	count(&sum.DailyGoals.Total, s.cols.DailyGoals, today)
	count(&sum.DailyGoals.Completed, s.cols.DailyGoals, with(today, done))

	count(&sum.Posts.Total, s.cols.Posts, all)
	byStatus := make([]int64, len(model.PostStatuses))
	for i, st := range model.PostStatuses {
		count(&byStatus[i], s.cols.Posts, with(all, map[string]any{"status": string(st)}))
	}

	g.Go(func() error {
		trend, err := s.trend(ctx, userID, dayFrom)
		if err != nil {
			return err
		}
		sum.Trend = trend
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	for i, c := range model.Categories {
		sum.Tasks.ByCategory[string(c)] = byCategory[i]
	}
	for i, st := range model.PostStatuses {
		sum.Posts.ByStatus[string(st)] = byStatus[i]
	}

	span.SetAttributes(
		attribute.String("date", sum.Date),
		attribute.Int64("tasks_total", sum.Tasks.Total),
	)
	return sum, nil
}

// trend buckets the tasks of the TrendDays days ending on lastDay.
func (s *Service) trend(ctx context.Context, userID string, lastDay time.Time) ([]DayCount, error) {
	loc := s.cal.Location()
	last := lastDay.In(loc)
	first := time.Date(last.Year(), last.Month(), last.Day()-(TrendDays-1), 0, 0, 0, 0, loc)
	_, to := s.cal.DayBounds(last)

	tasks, err := s.cols.Tasks.Find(ctx, store.Query{UserID: userID, From: first, To: to, Order: store.Oldest})
	if err != nil {
		return nil, err
	}

	out := make([]DayCount, TrendDays)
	index := make(map[string]int, TrendDays)
	for i := range out {
		d := time.Date(first.Year(), first.Month(), first.Day()+i, 0, 0, 0, 0, loc).Format(calendar.DateLayout)
		out[i].Date = d
		index[d] = i
	}
	for _, t := range tasks {
		i, ok := index[t.Date.In(loc).Format(calendar.DateLayout)]
		if !ok {
			continue
		}
		out[i].Total++
		if t.Completed {
			out[i].Completed++
		}
	}
	return out, nil
}

func with(q store.Query, equals map[string]any) store.Query {
	q.Equals = equals
	return q
}
