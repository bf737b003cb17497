// Package task implements the task service: CRUD, category and day queries,
// and completion toggling, all scoped to the calling user.
package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ceo-assistant/internal/calendar"
	"github.com/fyrsmithlabs/ceo-assistant/internal/events"
	"github.com/fyrsmithlabs/ceo-assistant/internal/logging"
	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
	"github.com/fyrsmithlabs/ceo-assistant/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/ceo-assistant/internal/task"

// Filter narrows List. Zero values match everything.
type Filter struct {
	Category  string
	Completed *bool
}

// Service provides task operations.
type Service interface {
	// List returns the user's tasks, newest date first.
	List(ctx context.Context, userID string, f Filter) ([]model.Task, error)

	// ListByCategory returns the user's tasks in category, newest first.
	ListByCategory(ctx context.Context, userID, category string) ([]model.Task, error)

	// ListByDate returns the tasks scheduled on the calendar day of date,
	// oldest first.
	ListByDate(ctx context.Context, userID, date string) ([]model.Task, error)

	// Get retrieves one task.
	Get(ctx context.Context, userID, id string) (model.Task, error)

	// Create validates in and stores a new incomplete task.
	Create(ctx context.Context, userID string, in model.TaskInput) (model.Task, error)

	// Update applies a partial update.
	Update(ctx context.Context, userID, id string, p model.TaskPatch) (model.Task, error)

	// Delete removes a task.
	Delete(ctx context.Context, userID, id string) error

	// ToggleCompletion flips the completed flag.
	ToggleCompletion(ctx context.Context, userID, id string) (model.Task, error)
}

// service implements the Service interface.
type service struct {
	tasks     store.Collection[model.Task]
	publisher events.Publisher
	cal       *calendar.Calendar
	logger    *logging.Logger

	tracer          trace.Tracer
	meter           metric.Meter
	mutationCounter metric.Int64Counter
}

// NewService creates a task service.
func NewService(tasks store.Collection[model.Task], pub events.Publisher, cal *calendar.Calendar, logger *logging.Logger) (Service, error) {
	if tasks == nil {
		return nil, errors.New("task collection is required")
	}
	if cal == nil {
		return nil, errors.New("calendar is required")
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &service{
		tasks:     tasks,
		publisher: pub,
		cal:       cal,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		meter:     otel.Meter(instrumentationName),
	}

	s.initMetrics()

	return s, nil
}

// initMetrics initializes OpenTelemetry metrics.
func (s *service) initMetrics() {
	var err error

	s.mutationCounter, err = s.meter.Int64Counter(
		"ceo.task.mutations_total",
		metric.WithDescription("Total number of task mutations"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		s.logger.Warn(context.Background(), "failed to create mutation counter", zap.Error(err))
	}
}

func (s *service) List(ctx context.Context, userID string, f Filter) ([]model.Task, error) {
	ctx, span := s.tracer.Start(ctx, "task.list")
	defer span.End()

	q := store.Query{UserID: userID}
	if f.Category != "" {
		c, err := model.ParseCategory(f.Category)
		if err != nil {
			return nil, err
		}
		q.Equals = map[string]any{"category": string(c)}
	}
	if f.Completed != nil {
		if q.Equals == nil {
			q.Equals = map[string]any{}
		}
		q.Equals[model.FieldCompleted] = *f.Completed
	}
	return s.find(ctx, span, q)
}

func (s *service) ListByCategory(ctx context.Context, userID, category string) ([]model.Task, error) {
	ctx, span := s.tracer.Start(ctx, "task.list_by_category")
	defer span.End()
	span.SetAttributes(attribute.String("category", category))

	c, err := model.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, span, store.Query{
		UserID: userID,
		Equals: map[string]any{"category": string(c)},
	})
}

func (s *service) ListByDate(ctx context.Context, userID, date string) ([]model.Task, error) {
	ctx, span := s.tracer.Start(ctx, "task.list_by_date")
	defer span.End()
	span.SetAttributes(attribute.String("date", date))

	day, err := model.ParseDate(s.cal, date)
	if err != nil {
		return nil, err
	}
	from, to := s.cal.DayBounds(day)
	return s.find(ctx, span, store.Query{UserID: userID, From: from, To: to, Order: store.Oldest})
}

func (s *service) find(ctx context.Context, span trace.Span, q store.Query) ([]model.Task, error) {
	tasks, err := s.tasks.Find(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	span.SetAttributes(attribute.Int("result_count", len(tasks)))
	return tasks, nil
}

func (s *service) Get(ctx context.Context, userID, id string) (model.Task, error) {
	ctx, span := s.tracer.Start(ctx, "task.get")
	defer span.End()
	span.SetAttributes(attribute.String("task_id", id))

	t, err := s.tasks.Get(ctx, store.ByID(userID, id))
	if err != nil {
		span.RecordError(err)
		return model.Task{}, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return t, nil
}

func (s *service) Create(ctx context.Context, userID string, in model.TaskInput) (model.Task, error) {
	ctx, span := s.tracer.Start(ctx, "task.create")
	defer span.End()

	t, err := in.Build(userID, s.cal)
	if err != nil {
		return model.Task{}, err
	}
	now := s.cal.Now()
	t.ID = uuid.New().String()
	t.CreatedAt, t.UpdatedAt = now, now

	if err := s.tasks.Insert(ctx, t); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.Task{}, fmt.Errorf("failed to save task: %w", err)
	}

	s.record(ctx, t, events.ActionCreated)
	s.logger.Info(ctx, "created task",
		zap.String("id", t.ID),
		zap.String("category", string(t.Category)),
		zap.String("priority", string(t.Priority)),
	)

	span.SetAttributes(attribute.String("task_id", t.ID))
	return t, nil
}

func (s *service) Update(ctx context.Context, userID, id string, p model.TaskPatch) (model.Task, error) {
	ctx, span := s.tracer.Start(ctx, "task.update")
	defer span.End()
	span.SetAttributes(attribute.String("task_id", id))

	fields, err := p.Fields(s.cal)
	if err != nil {
		return model.Task{}, err
	}
	return s.update(ctx, span, userID, id, fields, events.ActionUpdated)
}

func (s *service) ToggleCompletion(ctx context.Context, userID, id string) (model.Task, error) {
	ctx, span := s.tracer.Start(ctx, "task.toggle")
	defer span.End()
	span.SetAttributes(attribute.String("task_id", id))

	t, err := s.tasks.Get(ctx, store.ByID(userID, id))
	if err != nil {
		span.RecordError(err)
		return model.Task{}, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return s.update(ctx, span, userID, id, store.Fields{model.FieldCompleted: !t.Completed}, events.ActionToggled)
}

func (s *service) update(ctx context.Context, span trace.Span, userID, id string, fields store.Fields, action events.Action) (model.Task, error) {
	t, err := s.tasks.Update(ctx, store.ByID(userID, id), fields)
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, store.ErrNotFound) {
			span.SetStatus(codes.Error, err.Error())
		}
		return model.Task{}, fmt.Errorf("failed to update task %s: %w", id, err)
	}
	s.record(ctx, t, action)
	return t, nil
}

func (s *service) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "task.delete")
	defer span.End()
	span.SetAttributes(attribute.String("task_id", id))

	t, err := s.tasks.Get(ctx, store.ByID(userID, id))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to get task %s: %w", id, err)
	}
	if err := s.tasks.Delete(ctx, store.ByID(userID, id)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}

	s.record(ctx, t, events.ActionDeleted)
	s.logger.Info(ctx, "deleted task", zap.String("id", id))
	return nil
}

// record counts the mutation and publishes its event. Publish failures are
// logged only.
func (s *service) record(ctx context.Context, t model.Task, action events.Action) {
	if s.mutationCounter != nil {
		s.mutationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", string(action)),
		))
	}
	e := events.New(t.UserID, events.KindTask, action, t.ID, t.Title, s.cal.Now())
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn(ctx, "failed to publish task event",
			zap.String("id", t.ID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}
