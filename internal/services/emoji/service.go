package emoji

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zentra/emojimatch/internal/models"
	"github.com/zentra/emojimatch/internal/services/websocket"
	"github.com/zentra/emojimatch/internal/utils"
	"github.com/zentra/emojimatch/pkg/storage"
)

var (
	ErrEmojiNotFound      = errors.New("emoji not found")
	ErrEmojiExists        = errors.New("an emoji with that id already exists")
	ErrDuplicateID        = errors.New("dataset contains duplicate emoji ids")
	ErrEmptyDataset       = errors.New("dataset contains no emojis")
	ErrEmptyPatch         = errors.New("patch must set show or checked")
	ErrStorageUnavailable = errors.New("dataset storage is not configured")
)

const exportPrefix = "emojis"

// DatasetStore loads and saves JSON datasets by object name
type DatasetStore interface {
	LoadJSON(ctx context.Context, object string, v any) error
	SaveJSON(ctx context.Context, object string, v any) (string, error)
}

// EventPublisher pushes change notifications to connected clients
type EventPublisher interface {
	Publish(ctx context.Context, topic, eventType string, data any)
}

type Service struct {
	store    Store
	cache    CatalogCache
	datasets DatasetStore
	events   EventPublisher
	now      func() time.Time
}

// NewService wires the catalog. cache, datasets and events may be nil.
func NewService(store Store, cache CatalogCache, datasets DatasetStore, events EventPublisher) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		datasets: datasets,
		events:   events,
		now:      time.Now,
	}
}

// ListEmojis returns the catalog ordered by index, then id
func (s *Service) ListEmojis(ctx context.Context) ([]models.Emoji, error) {
	var generation int64
	if s.cache != nil {
		emojis, gen, ok := s.cache.Get(ctx)
		if ok {
			return emojis, nil
		}
		generation = gen
	}

	emojis, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	// A mutation that lands during List bumps the generation, so this
	// snapshot is not cached
	if s.cache != nil {
		s.cache.Set(ctx, generation, emojis)
	}
	return emojis, nil
}

func (s *Service) GetEmoji(ctx context.Context, id int64) (*models.Emoji, error) {
	return s.store.Get(ctx, id)
}

// CreateEmoji adds a single emoji to the catalog
func (s *Service) CreateEmoji(ctx context.Context, in models.EmojiInput) (*models.Emoji, error) {
	if err := utils.ValidationFailure(utils.Validate(in)); err != nil {
		return nil, err
	}

	e := in.ToEmoji()
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}

	s.changed(ctx, websocket.EventTypeEmojiCreate, e)
	return &e, nil
}

// ImportDataset validates every record and replaces the catalog with them
func (s *Service) ImportDataset(ctx context.Context, inputs []models.EmojiInput) (int, error) {
	if len(inputs) == 0 {
		return 0, ErrEmptyDataset
	}
	if details := utils.ValidateEach(inputs); len(details) > 0 {
		return 0, &utils.ValidationError{Details: details}
	}

	emojis := make([]models.Emoji, 0, len(inputs))
	seen := make(map[int64]bool, len(inputs))
	for _, in := range inputs {
		e := in.ToEmoji()
		if seen[e.ID] {
			return 0, fmt.Errorf("%w: %d", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = true
		emojis = append(emojis, e)
	}

	if err := s.store.ReplaceAll(ctx, emojis); err != nil {
		return 0, err
	}

	s.changed(ctx, websocket.EventTypeEmojiCatalogReplace, map[string]int{"count": len(emojis)})
	log.Info().Int("count", len(emojis)).Msg("Emoji catalog replaced")
	return len(emojis), nil
}

// UpdateFlags changes the show/checked state of one emoji
func (s *Service) UpdateFlags(ctx context.Context, id int64, patch models.EmojiFlagsPatch) (*models.Emoji, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	e, err := s.store.SetFlags(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.changed(ctx, websocket.EventTypeEmojiUpdate, e)
	return e, nil
}

// ClearCatalog discards every emoji
func (s *Service) ClearCatalog(ctx context.Context) error {
	if err := s.store.DeleteAll(ctx); err != nil {
		return err
	}
	s.changed(ctx, websocket.EventTypeEmojiCatalogClear, nil)
	return nil
}

// ImportFromObject loads a dataset object and replaces the catalog with it
func (s *Service) ImportFromObject(ctx context.Context, object string) (int, error) {
	if s.datasets == nil {
		return 0, ErrStorageUnavailable
	}

	var inputs []models.EmojiInput
	if err := s.datasets.LoadJSON(ctx, object, &inputs); err != nil {
		return 0, err
	}
	return s.ImportDataset(ctx, inputs)
}

// ExportToObject writes the current catalog as a dataset object. An empty
// name gets a timestamped default.
func (s *Service) ExportToObject(ctx context.Context, object string) (string, error) {
	if s.datasets == nil {
		return "", ErrStorageUnavailable
	}
	if object == "" {
		object = storage.TimestampedName(exportPrefix, s.now())
	}

	emojis, err := s.store.List(ctx)
	if err != nil {
		return "", err
	}
	return s.datasets.SaveJSON(ctx, object, emojis)
}

// SeedIfEmpty imports object when the catalog has no rows yet
func (s *Service) SeedIfEmpty(ctx context.Context, object string) (int, error) {
	if object == "" {
		return 0, nil
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Debug().Int64("count", count).Msg("Emoji catalog already populated, skipping seed")
		return 0, nil
	}

	n, err := s.ImportFromObject(ctx, object)
	if err != nil {
		return 0, fmt.Errorf("failed to seed emojis from %s: %w", object, err)
	}
	return n, nil
}

func (s *Service) changed(ctx context.Context, eventType string, data any) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	if s.events != nil {
		s.events.Publish(ctx, websocket.TopicEmojis, eventType, data)
	}
}
