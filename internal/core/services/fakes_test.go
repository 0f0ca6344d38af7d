package services

import (
	"context"
	"sync"
	"time"

	"github.com/RemiBp/choice-app-backend-sub000/internal/core/domain"
)

// Fakes en mémoire pour les ports driven. Les primitives d'ensemble
// reproduisent la sémantique $addToSet/$pull pour que les tests
// d'idempotence portent sur de vrais états.

type fakeStore struct {
	mu   sync.Mutex
	name string
	docs map[string]domain.RawDocument

	findErr   error
	addErr    error
	removeErr error

	recentDocs  []domain.RawDocument
	recentErr   error
	recentDelay time.Duration

	searchDocs []domain.RawDocument
	searchErr  error

	count    int64
	countErr error

	findCalls int
	addCalls  int
}

func newFakeStore(name string) *fakeStore {
	return &fakeStore{name: name, docs: map[string]domain.RawDocument{}}
}

func (f *fakeStore) put(id string, raw domain.RawDocument) *fakeStore {
	f.docs[id] = raw
	return f
}

func (f *fakeStore) Name() string { return f.name }

func (f *fakeStore) FindByID(_ context.Context, id string) (domain.RawDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	raw, ok := f.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return raw, nil
}

func (f *fakeStore) Recent(ctx context.Context, _ int64) ([]domain.RawDocument, error) {
	if f.recentDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.recentDelay):
		}
	}
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.recentDocs, nil
}

func (f *fakeStore) Search(_ context.Context, _ string, _ int64) ([]domain.RawDocument, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchDocs, nil
}

func (f *fakeStore) Count(_ context.Context, _ string) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

func (f *fakeStore) AddToSet(_ context.Context, id string, set domain.InteractionSet, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	if f.addErr != nil {
		return f.addErr
	}
	raw, ok := f.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	raw[string(set)] = appendIfAbsent(asStrings(raw[string(set)]), userID)
	return nil
}

func (f *fakeStore) RemoveFromSet(_ context.Context, id string, set domain.InteractionSet, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	raw, ok := f.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	var out []any
	for _, v := range asStrings(raw[string(set)]) {
		if v != userID {
			out = append(out, v)
		}
	}
	raw[string(set)] = out
	return nil
}

func (f *fakeStore) setMembers(id string, set domain.InteractionSet) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := asStrings(f.docs[id][string(set)])
	out := make([]string, 0, len(members))
	for _, m := range members {
		if s, ok := m.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asStrings(v any) []any {
	if items, ok := v.([]any); ok {
		return items
	}
	return nil
}

func appendIfAbsent(items []any, member string) []any {
	for _, it := range items {
		if it == member {
			return items
		}
	}
	return append(items, member)
}

type fakeUsers struct {
	mu    sync.Mutex
	lists map[string]map[string][]string // userID -> field -> ids

	addErr    error
	removeErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{lists: map[string]map[string][]string{}}
}

func (f *fakeUsers) FindByID(_ context.Context, userID string) (domain.RawDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fields, ok := f.lists[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	raw := domain.RawDocument{"_id": userID}
	for field, ids := range fields {
		raw[field] = ids
	}
	return raw, nil
}

func (f *fakeUsers) AddToList(_ context.Context, userID, field, entityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	if f.lists[userID] == nil {
		f.lists[userID] = map[string][]string{}
	}
	for _, id := range f.lists[userID][field] {
		if id == entityID {
			return nil
		}
	}
	f.lists[userID][field] = append(f.lists[userID][field], entityID)
	return nil
}

func (f *fakeUsers) RemoveFromList(_ context.Context, userID, field, entityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	var out []string
	for _, id := range f.lists[userID][field] {
		if id != entityID {
			out = append(out, id)
		}
	}
	if f.lists[userID] == nil {
		f.lists[userID] = map[string][]string{}
	}
	f.lists[userID][field] = out
	return nil
}

func (f *fakeUsers) list(userID, field string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lists[userID][field]...)
}

type fakePublisher struct {
	mu            sync.Mutex
	applied       []domain.InteractionEvent
	mirrorFailed  []domain.MirrorRepair
	appliedErr    error
	mirrorPubErr  error
}

func (f *fakePublisher) PublishInteractionApplied(_ context.Context, evt domain.InteractionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appliedErr != nil {
		return f.appliedErr
	}
	f.applied = append(f.applied, evt)
	return nil
}

func (f *fakePublisher) PublishMirrorFailed(_ context.Context, task domain.MirrorRepair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mirrorPubErr != nil {
		return f.mirrorPubErr
	}
	f.mirrorFailed = append(f.mirrorFailed, task)
	return nil
}

type fakeQueue struct {
	mu         sync.Mutex
	tasks      []domain.MirrorRepair
	enqueueErr error
	pendingErr error
}

func (f *fakeQueue) Enqueue(_ context.Context, task domain.MirrorRepair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeQueue) Pending(_ context.Context, limit int64) ([]domain.MirrorRepair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pendingErr != nil {
		return nil, f.pendingErr
	}
	n := int64(len(f.tasks))
	if n > limit {
		n = limit
	}
	return append([]domain.MirrorRepair(nil), f.tasks[:n]...), nil
}

func (f *fakeQueue) Remove(_ context.Context, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.MirrorRepair
	for _, t := range f.tasks {
		if t.ID != taskID {
			out = append(out, t)
		}
	}
	f.tasks = out
	return nil
}

func (f *fakeQueue) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// newTestEngine câble un moteur sur les quatre fakes dans l'ordre de
// priorité legacy.
func newTestEngine(posts, restos, events, producers *fakeStore) (*Engine, *fakeUsers, *fakePublisher, *fakeQueue) {
	users := newFakeUsers()
	pub := &fakePublisher{}
	queue := &fakeQueue{}
	engine := NewEngine([]Source{
		{Store: posts, Kind: domain.KindPost},
		{Store: restos, Kind: domain.KindRestaurant},
		{Store: events, Kind: domain.KindLeisureEvent},
		{Store: producers, Kind: domain.KindLeisureProducer},
	}, users, pub, queue, Options{FanoutTimeout: 200 * time.Millisecond})
	return engine, users, pub, queue
}
