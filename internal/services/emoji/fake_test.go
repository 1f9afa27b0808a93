package emoji

import (
	"context"
	"sort"
	"sync"

	"github.com/zentra/emojimatch/internal/models"
)

// FakeStore is an in-memory Store. Set Err to make every call fail.
type FakeStore struct {
	mu     sync.Mutex
	emojis map[int64]models.Emoji
	Err    error
	Lists  int
}

func NewFakeStore(seed ...models.Emoji) *FakeStore {
	f := &FakeStore{emojis: make(map[int64]models.Emoji)}
	for _, e := range seed {
		f.emojis[e.ID] = e
	}
	return f
}

func (f *FakeStore) List(ctx context.Context) ([]models.Emoji, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Lists++
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]models.Emoji, 0, len(f.emojis))
	for _, e := range f.emojis {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *FakeStore) Get(ctx context.Context, id int64) (*models.Emoji, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	e, ok := f.emojis[id]
	if !ok {
		return nil, ErrEmojiNotFound
	}
	return &e, nil
}

func (f *FakeStore) Create(ctx context.Context, e models.Emoji) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.emojis[e.ID]; ok {
		return ErrEmojiExists
	}
	f.emojis[e.ID] = e
	return nil
}

func (f *FakeStore) ReplaceAll(ctx context.Context, emojis []models.Emoji) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.emojis = make(map[int64]models.Emoji, len(emojis))
	for _, e := range emojis {
		f.emojis[e.ID] = e
	}
	return nil
}

func (f *FakeStore) SetFlags(ctx context.Context, id int64, patch models.EmojiFlagsPatch) (*models.Emoji, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	e, ok := f.emojis[id]
	if !ok {
		return nil, ErrEmojiNotFound
	}
	e = patch.Apply(e)
	f.emojis[id] = e
	return &e, nil
}

func (f *FakeStore) DeleteAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.emojis = make(map[int64]models.Emoji)
	return nil
}

func (f *FakeStore) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	return int64(len(f.emojis)), nil
}

// FakeCache mirrors the generation guard of RedisCatalogCache
type FakeCache struct {
	emojis      []models.Emoji
	warm        bool
	generation  int64
	Invalidated int
}

func (c *FakeCache) Get(ctx context.Context) ([]models.Emoji, int64, bool) {
	return c.emojis, c.generation, c.warm
}

func (c *FakeCache) Set(ctx context.Context, generation int64, emojis []models.Emoji) {
	if generation != c.generation {
		return
	}
	c.emojis = emojis
	c.warm = true
}

func (c *FakeCache) Invalidate(ctx context.Context) {
	c.emojis = nil
	c.warm = false
	c.generation++
	c.Invalidated++
}

// hookStore runs afterList once List has read the catalog, to interleave a
// write with a cache fill
type hookStore struct {
	*FakeStore
	afterList func()
}

func (h *hookStore) List(ctx context.Context) ([]models.Emoji, error) {
	emojis, err := h.FakeStore.List(ctx)
	if h.afterList != nil {
		fn := h.afterList
		h.afterList = nil
		fn()
	}
	return emojis, err
}

type publishedEvent struct {
	Topic string
	Type  string
	Data  any
}

type FakePublisher struct {
	Events []publishedEvent
}

func (p *FakePublisher) Publish(ctx context.Context, topic, eventType string, data any) {
	p.Events = append(p.Events, publishedEvent{Topic: topic, Type: eventType, Data: data})
}

// FakeDatasets keeps objects as already-encoded values keyed by name
type FakeDatasets struct {
	LoadJSONFn func(ctx context.Context, object string, v any) error
	Saved      map[string]any
}

func (d *FakeDatasets) LoadJSON(ctx context.Context, object string, v any) error {
	return d.LoadJSONFn(ctx, object, v)
}

func (d *FakeDatasets) SaveJSON(ctx context.Context, object string, v any) (string, error) {
	if d.Saved == nil {
		d.Saved = make(map[string]any)
	}
	d.Saved[object] = v
	return object, nil
}
