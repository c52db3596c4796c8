package memory

import (
	"context"
	"maps"
	"sort"
	"time"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create stages an outbox event.
func (r *OutboxRepository) Create(_ context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	t := asTx(tx)
	c := *event
	c.Payload = maps.Clone(event.Payload)
	return t.stage(func() {
		t.outbox = append(t.outbox, &c)
	})
}

// GetUnpublished returns the oldest unpublished events.
func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.store.mu.RLock()
	pending := make([]*domain.OutboxEvent, 0)
	for _, ev := range r.store.outbox {
		if !ev.Published {
			c := *ev
			pending = append(pending, &c)
		}
	}
	r.store.mu.RUnlock()

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return paginate(pending, limit, 0), nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, ev := range r.store.outbox {
		if ev.ID == id {
			at := publishedAt
			ev.Published = true
			ev.PublishedAt = &at
			return nil
		}
	}
	return nil
}

// DeletePublished drops published events older than before.
func (r *OutboxRepository) DeletePublished(_ context.Context, before time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.outbox[:0]
	for _, ev := range r.store.outbox {
		if ev.Published && ev.PublishedAt != nil && ev.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, ev)
	}
	r.store.outbox = kept
	return nil
}
