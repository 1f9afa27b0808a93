package leader

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zentra/emojimatch/internal/models"
	"github.com/zentra/emojimatch/internal/services/websocket"
	"github.com/zentra/emojimatch/internal/utils"
	"github.com/zentra/emojimatch/pkg/storage"
)

var (
	ErrLeaderNotFound     = errors.New("leader not found")
	ErrInvalidPage        = errors.New("page must be at least 1 and pageSize between 1 and 100")
	ErrStorageUnavailable = errors.New("dataset storage is not configured")
)

const exportPrefix = "leaders"

// maxOffset bounds the row offset a page request may reach
const maxOffset = math.MaxInt32

// DatasetStore saves JSON datasets by object name
type DatasetStore interface {
	SaveJSON(ctx context.Context, object string, v any) (string, error)
}

// EventPublisher pushes change notifications to connected clients
type EventPublisher interface {
	Publish(ctx context.Context, topic, eventType string, data any)
}

// Page is one slice of the leaderboard in id order
type Page struct {
	Leaders  []models.Leader
	Total    int64
	Page     int
	PageSize int
}

type Service struct {
	store    Store
	datasets DatasetStore
	events   EventPublisher
	now      func() time.Time
}

func NewService(store Store, datasets DatasetStore, events EventPublisher) *Service {
	return &Service{
		store:    store,
		datasets: datasets,
		events:   events,
		now:      time.Now,
	}
}

// ListLeaders returns a page of entries. Entries are not ranked.
func (s *Service) ListLeaders(ctx context.Context, page, pageSize int) (*Page, error) {
	if page < 1 || pageSize < 1 || pageSize > utils.MaxPageSize {
		return nil, ErrInvalidPage
	}
	if page-1 > maxOffset/pageSize {
		return nil, ErrInvalidPage
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	leaders, err := s.store.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	return &Page{Leaders: leaders, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *Service) GetLeader(ctx context.Context, id int64) (*models.Leader, error) {
	return s.store.Get(ctx, id)
}

// SubmitLeader records a finished run
func (s *Service) SubmitLeader(ctx context.Context, sub models.LeaderSubmission) (*models.Leader, error) {
	if err := utils.ValidationFailure(utils.Validate(sub)); err != nil {
		return nil, err
	}

	l, err := s.store.Insert(ctx, sub)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("leaderId", l.ID).Str("username", l.Username).Msg("Leader recorded")
	s.publish(ctx, websocket.EventTypeLeaderCreate, l)
	return l, nil
}

func (s *Service) DeleteLeader(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, websocket.EventTypeLeaderDelete, map[string]int64{"id": id})
	return nil
}

// ExportToObject writes every entry as a dataset object. An empty name gets
// a timestamped default.
func (s *Service) ExportToObject(ctx context.Context, object string) (string, error) {
	if s.datasets == nil {
		return "", ErrStorageUnavailable
	}
	if object == "" {
		object = storage.TimestampedName(exportPrefix, s.now())
	}

	leaders, err := s.store.All(ctx)
	if err != nil {
		return "", err
	}
	return s.datasets.SaveJSON(ctx, object, leaders)
}

func (s *Service) publish(ctx context.Context, eventType string, data any) {
	if s.events != nil {
		s.events.Publish(ctx, websocket.TopicLeaders, eventType, data)
	}
}
