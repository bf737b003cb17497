// Package post schedules LinkedIn posts and tracks their publication
// status.
package post

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

const instrumentationName = "github.com/fyrsmithlabs/ceo-assistant/internal/post"

const fieldStatus = "status"

// Service provides LinkedIn post operations.
type Service interface {
	// List returns the user's posts, newest date first.
	List(ctx context.Context, userID string) ([]model.LinkedInPost, error)

	// ListByStatus returns the user's posts with status, newest first.
	ListByStatus(ctx context.Context, userID, status string) ([]model.LinkedInPost, error)

	Get(ctx context.Context, userID, id string) (model.LinkedInPost, error)
	Create(ctx context.Context, userID string, in model.PostInput) (model.LinkedInPost, error)
	Update(ctx context.Context, userID, id string, p model.PostPatch) (model.LinkedInPost, error)
	Delete(ctx context.Context, userID, id string) error

	// UpdateStatus moves a post to status.
	UpdateStatus(ctx context.Context, userID, id, status string) (model.LinkedInPost, error)
}

type service struct {
	posts     store.Collection[model.LinkedInPost]
	publisher events.Publisher
	cal       *calendar.Calendar
	logger    *logging.Logger

	tracer          trace.Tracer
	meter           metric.Meter
	mutationCounter metric.Int64Counter
}

// NewService creates a post service.
func NewService(posts store.Collection[model.LinkedInPost], pub events.Publisher, cal *calendar.Calendar, logger *logging.Logger) (Service, error) {
	if posts == nil {
		return nil, errors.New("post collection is required")
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
		posts:     posts,
		publisher: pub,
		cal:       cal,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		meter:     otel.Meter(instrumentationName),
	}

	s.initMetrics()

	return s, nil
}

func (s *service) initMetrics() {
	var err error

	s.mutationCounter, err = s.meter.Int64Counter(
		"ceo.post.mutations_total",
		metric.WithDescription("Total number of LinkedIn post mutations"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		s.logger.Warn(context.Background(), "failed to create mutation counter", zap.Error(err))
	}
}

func (s *service) List(ctx context.Context, userID string) ([]model.LinkedInPost, error) {
	ctx, span := s.tracer.Start(ctx, "post.list")
	defer span.End()
	return s.find(ctx, span, store.Query{UserID: userID})
}

func (s *service) ListByStatus(ctx context.Context, userID, status string) ([]model.LinkedInPost, error) {
	ctx, span := s.tracer.Start(ctx, "post.list_by_status")
	defer span.End()
	span.SetAttributes(attribute.String("status", status))

	st, err := model.ParsePostStatus(status)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, span, store.Query{
		UserID: userID,
		Equals: map[string]any{fieldStatus: string(st)},
	})
}

func (s *service) find(ctx context.Context, span trace.Span, q store.Query) ([]model.LinkedInPost, error) {
	posts, err := s.posts.Find(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	span.SetAttributes(attribute.Int("result_count", len(posts)))
	return posts, nil
}

func (s *service) Get(ctx context.Context, userID, id string) (model.LinkedInPost, error) {
	ctx, span := s.tracer.Start(ctx, "post.get")
	defer span.End()
	span.SetAttributes(attribute.String("post_id", id))

	p, err := s.posts.Get(ctx, store.ByID(userID, id))
	if err != nil {
		span.RecordError(err)
		return model.LinkedInPost{}, fmt.Errorf("failed to get post %s: %w", id, err)
	}
	return p, nil
}

func (s *service) Create(ctx context.Context, userID string, in model.PostInput) (model.LinkedInPost, error) {
	ctx, span := s.tracer.Start(ctx, "post.create")
	defer span.End()

	p, err := in.Build(userID, s.cal)
	if err != nil {
		return model.LinkedInPost{}, err
	}
	now := s.cal.Now()
	p.ID = uuid.New().String()
	p.CreatedAt, p.UpdatedAt = now, now

	if err := s.posts.Insert(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.LinkedInPost{}, fmt.Errorf("failed to save post: %w", err)
	}

	s.record(ctx, p, events.ActionCreated)
	s.logger.Info(ctx, "scheduled post",
		zap.String("id", p.ID),
		zap.String("status", string(p.Status)),
		zap.Time("date", p.Date),
	)

	span.SetAttributes(attribute.String("post_id", p.ID))
	return p, nil
}

func (s *service) Update(ctx context.Context, userID, id string, patch model.PostPatch) (model.LinkedInPost, error) {
	ctx, span := s.tracer.Start(ctx, "post.update")
	defer span.End()
	span.SetAttributes(attribute.String("post_id", id))

	fields, err := patch.Fields(s.cal)
	if err != nil {
		return model.LinkedInPost{}, err
	}
	return s.update(ctx, span, userID, id, fields, events.ActionUpdated)
}

func (s *service) UpdateStatus(ctx context.Context, userID, id, status string) (model.LinkedInPost, error) {
	ctx, span := s.tracer.Start(ctx, "post.update_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("post_id", id),
		attribute.String("status", status),
	)

	st, err := model.ParsePostStatus(status)
	if err != nil {
		return model.LinkedInPost{}, err
	}
	return s.update(ctx, span, userID, id, store.Fields{fieldStatus: string(st)}, events.ActionStatusChanged)
}

func (s *service) update(ctx context.Context, span trace.Span, userID, id string, fields store.Fields, action events.Action) (model.LinkedInPost, error) {
	p, err := s.posts.Update(ctx, store.ByID(userID, id), fields)
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, store.ErrNotFound) {
			span.SetStatus(codes.Error, err.Error())
		}
		return model.LinkedInPost{}, fmt.Errorf("failed to update post %s: %w", id, err)
	}
	s.record(ctx, p, action)
	return p, nil
}

func (s *service) Delete(ctx context.Context, userID, id string) error {
	ctx, span := s.tracer.Start(ctx, "post.delete")
	defer span.End()
	span.SetAttributes(attribute.String("post_id", id))

	p, err := s.posts.Get(ctx, store.ByID(userID, id))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to get post %s: %w", id, err)
	}
	if err := s.posts.Delete(ctx, store.ByID(userID, id)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete post %s: %w", id, err)
	}

	s.record(ctx, p, events.ActionDeleted)
	s.logger.Info(ctx, "deleted post", zap.String("id", id))
	return nil
}

func (s *service) record(ctx context.Context, p model.LinkedInPost, action events.Action) {
	if s.mutationCounter != nil {
		s.mutationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", string(action)),
		))
	}
	e := events.New(p.UserID, events.KindPost, action, p.ID, p.Title, s.cal.Now())
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn(ctx, "failed to publish post event",
			zap.String("id", p.ID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}
