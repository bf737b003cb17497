// Package goal implements weekly and daily goals. Both cadences share one
// service type; each instance owns its own collection.
package goal

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const instrumentationName = "github.com/fyrsmithlabs/ceo-assistant/internal/goal"

// Service provides goal operations for one cadence.
type Service interface {
	// Cadence reports which goals this service manages.
	Cadence() model.Cadence

	// List returns the user's goals, newest date first.
	List(ctx context.Context, userID string) ([]model.Goal, error)

	// ListByDate returns the goals in the period containing date: the
	// Monday-based week for weekly goals, the calendar day for daily goals.
	// Results are oldest first.
	ListByDate(ctx context.Context, userID, date string) ([]model.Goal, error)

	Get(ctx context.Context, userID, id string) (model.Goal, error)
	Create(ctx context.Context, userID string, in model.GoalInput) (model.Goal, error)
	Update(ctx context.Context, userID, id string, p model.GoalPatch) (model.Goal, error)
	Delete(ctx context.Context, userID, id string) error
	ToggleCompletion(ctx context.Context, userID, id string) (model.Goal, error)
}

type service struct {
	cadence   model.Cadence
	kind      events.Kind
	goals     store.Collection[model.Goal]
	publisher events.Publisher
	cal       *calendar.Calendar
	logger    *logging.Logger

	tracer          trace.Tracer
	mutationCounter metric.Int64Counter
}

// NewService creates a goal service for cadence backed by goals.
func NewService(cadence model.Cadence, goals store.Collection[model.Goal], pub events.Publisher, cal *calendar.Calendar, logger *logging.Logger) (Service, error) {
	var kind events.Kind
	switch cadence {
	case model.Weekly:
		kind = events.KindWeeklyGoal
	case model.Daily:
		kind = events.KindDailyGoal
	default:
		return nil, fmt.Errorf("unknown goal cadence %q", cadence)
	}
	if goals == nil {
		return nil, errors.New("goal collection is required")
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
		cadence:   cadence,
		kind:      kind,
		goals:     goals,
		publisher: pub,
		cal:       cal,
		logger:    logger.With(zap.String("cadence", string(cadence))),
		tracer:    otel.Tracer(instrumentationName),
	}

	var err error
	s.mutationCounter, err = otel.Meter(instrumentationName).Int64Counter(
		"ceo.goal.mutations_total",
		metric.WithDescription("Total number of goal mutations"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		s.logger.Warn(context.Background(), "failed to create mutation counter", zap.Error(err))
	}

	return s, nil
}

func (s *service) Cadence() model.Cadence { return s.cadence }

func (s *service) start(ctx context.Context, op string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "goal."+op)
	span.SetAttributes(attribute.String("cadence", string(s.cadence)))
	return ctx, span
}

func (s *service) List(ctx context.Context, userID string) ([]model.Goal, error) {
	ctx, span := s.start(ctx, "list")
	defer span.End()
	return s.find(ctx, span, store.Query{UserID: userID})
}

func (s *service) ListByDate(ctx context.Context, userID, date string) ([]model.Goal, error) {
	ctx, span := s.start(ctx, "list_by_date")
	defer span.End()
	span.SetAttributes(attribute.String("date", date))

	day, err := model.ParseDate(s.cal, date)
	if err != nil {
		return nil, err
	}
	from, to := s.period(day)
	return s.find(ctx, span, store.Query{UserID: userID, From: from, To: to, Order: store.Oldest})
}

// period returns the window a goal dated day belongs to.
func (s *service) period(day time.Time) (time.Time, time.Time) {
	if s.cadence == model.Weekly {
		return s.cal.WeekBounds(day)
	}
	return s.cal.DayBounds(day)
}

func (s *service) find(ctx context.Context, span trace.Span, q store.Query) ([]model.Goal, error) {
	goals, err := s.goals.Find(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list %s goals: %w", s.cadence, err)
	}
	span.SetAttributes(attribute.Int("result_count", len(goals)))
	return goals, nil
}

func (s *service) Get(ctx context.Context, userID, id string) (model.Goal, error) {
	ctx, span := s.start(ctx, "get")
	defer span.End()
	span.SetAttributes(attribute.String("goal_id", id))

	g, err := s.goals.Get(ctx, store.ByID(userID, id))
	if err != nil {
		span.RecordError(err)
		return model.Goal{}, fmt.Errorf("failed to get %s goal %s: %w", s.cadence, id, err)
	}
	return g, nil
}

func (s *service) Create(ctx context.Context, userID string, in model.GoalInput) (model.Goal, error) {
	ctx, span := s.start(ctx, "create")
	defer span.End()

	g, err := in.Build(userID, s.cal)
	if err != nil {
		return model.Goal{}, err
	}
	now := s.cal.Now()
	g.ID = uuid.New().String()
	g.CreatedAt, g.UpdatedAt = now, now

	if err := s.goals.Insert(ctx, g); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.Goal{}, fmt.Errorf("failed to save %s goal: %w", s.cadence, err)
	}

	s.record(ctx, g, events.ActionCreated)
	s.logger.Info(ctx, "created goal", zap.String("id", g.ID))

	span.SetAttributes(attribute.String("goal_id", g.ID))
	return g, nil
}

func (s *service) Update(ctx context.Context, userID, id string, p model.GoalPatch) (model.Goal, error) {
	ctx, span := s.start(ctx, "update")
	defer span.End()
	span.SetAttributes(attribute.String("goal_id", id))

	fields, err := p.Fields(s.cal)
	if err != nil {
		return model.Goal{}, err
	}
	return s.update(ctx, span, userID, id, fields, events.ActionUpdated)
}

func (s *service) ToggleCompletion(ctx context.Context, userID, id string) (model.Goal, error) {
	ctx, span := s.start(ctx, "toggle")
	defer span.End()
	span.SetAttributes(attribute.String("goal_id", id))

	g, err := s.goals.Get(ctx, store.ByID(userID, id))
	if err != nil {
		span.RecordError(err)
		return model.Goal{}, fmt.Errorf("failed to get %s goal %s: %w", s.cadence, id, err)
	}
	return s.update(ctx, span, userID, id, store.Fields{model.FieldCompleted: !g.Completed}, events.ActionToggled)
}

func (s *service) update(ctx context.Context, span trace.Span, userID, id string, fields store.Fields, action events.Action) (model.Goal, error) {
	g, err := s.goals.Update(ctx, store.ByID(userID, id), fields)
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, store.ErrNotFound) {
			span.SetStatus(codes.Error, err.Error())
		}
		return model.Goal{}, fmt.Errorf("failed to update %s goal %s: %w", s.cadence, id, err)
	}
	s.record(ctx, g, action)
	return g, nil
}

func (s *service) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.start(ctx, "delete")
	defer span.End()
	span.SetAttributes(attribute.String("goal_id", id))

	g, err := s.goals.Get(ctx, store.ByID(userID, id))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to get %s goal %s: %w", s.cadence, id, err)
	}
	if err := s.goals.Delete(ctx, store.ByID(userID, id)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete %s goal %s: %w", s.cadence, id, err)
	}

	s.record(ctx, g, events.ActionDeleted)
	s.logger.Info(ctx, "deleted goal", zap.String("id", id))
	return nil
}

func (s *service) record(ctx context.Context, g model.Goal, action events.Action) {
	if s.mutationCounter != nil {
		s.mutationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("cadence", string(s.cadence)),
			attribute.String("action", string(action)),
		))
	}
	e := events.New(g.UserID, s.kind, action, g.ID, g.Title, s.cal.Now())
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn(ctx, "failed to publish goal event",
			zap.String("id", g.ID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}
