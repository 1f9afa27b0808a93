package leader

import (
	"context"
	"sort"
	"sync"

	"github.com/zentra/emojimatch/internal/models"
)

// FakeStore is an in-memory Store that hands out ids like a sequence
type FakeStore struct {
	mu      sync.Mutex
	leaders map[int64]models.Leader
	nextID  int64
	Err     error
}

func NewFakeStore(seed ...models.Leader) *FakeStore {
	f := &FakeStore{leaders: make(map[int64]models.Leader), nextID: 1}
	for _, l := range seed {
		f.leaders[l.ID] = l
		if l.ID >= f.nextID {
			f.nextID = l.ID + 1
		}
	}
	return f
}

func (f *FakeStore) sorted() []models.Leader {
	out := make([]models.Leader, 0, len(f.leaders))
	for _, l := range f.leaders {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *FakeStore) List(ctx context.Context, limit, offset int) ([]models.Leader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	all := f.sorted()
	if offset >= len(all) {
		return []models.Leader{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *FakeStore) All(ctx context.Context) ([]models.Leader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.sorted(), nil
}

func (f *FakeStore) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return 0, f.Err
	}
	return int64(len(f.leaders)), nil
}

func (f *FakeStore) Get(ctx context.Context, id int64) (*models.Leader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	l, ok := f.leaders[id]
	if !ok {
		return nil, ErrLeaderNotFound
	}
	return &l, nil
}

func (f *FakeStore) Insert(ctx context.Context, sub models.LeaderSubmission) (*models.Leader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	l := sub.WithID(f.nextID)
	f.nextID++
	f.leaders[l.ID] = l
	return &l, nil
}

func (f *FakeStore) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.leaders[id]; !ok {
		return ErrLeaderNotFound
	}
	delete(f.leaders, id)
	return nil
}

type publishedEvent struct {
	Topic string
	Type  string
	Data  any
}

type FakePublisher struct {
	Events []publishedEvent
}

func (f *FakePublisher) Publish(ctx context.Context, topic, eventType string, data any) {
	f.Events = append(f.Events, publishedEvent{Topic: topic, Type: eventType, Data: data})
}

type FakeDatasets struct {
	Saved map[string]any
	Err   error
}

func (f *FakeDatasets) SaveJSON(ctx context.Context, object string, v any) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	if f.Saved == nil {
		f.Saved = make(map[string]any)
	}
	f.Saved[object] = v
	return object, nil
}
