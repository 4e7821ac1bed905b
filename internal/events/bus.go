// Package events is the in-process fan-out for things other sessions care
// about: logins, booking status changes and slot blocking. Subscribers are the
// websocket hub and, when configured, a Kafka sink.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Kind string

const (
	BusinessLogin  Kind = "business.login"
	BusinessLogout Kind = "business.logout"
	AdminLogin     Kind = "admin.login"
	AdminLogout    Kind = "admin.logout"
	StaffLogin     Kind = "staff.login"
	StaffLogout    Kind = "staff.logout"

	BookingCreated       Kind = "booking.created"
	BookingStatusChanged Kind = "booking.status_changed"
	BookingCompleted     Kind = "booking.completed"

	SlotsBlocked   Kind = "slots.blocked"
	SlotsUnblocked Kind = "slots.unblocked"

	LocationRequestReviewed Kind = "location_request.reviewed"
)

type Event struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	BusinessID int64     `json:"business_id,omitempty"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(kind Kind, businessID int64, payload any) Event {
	return Event{
		Kind:       kind,
		BusinessID: businessID,
		Payload:    payload,
	}
}

// Handler must not block; slow consumers should queue internally.
type Handler func(ctx context.Context, e Event)

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type Bus struct {
	mu       sync.RWMutex
	handlers map[uint64]Handler
	nextID   uint64
	logger   *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		handlers: make(map[uint64]Handler),
		logger:   logger,
	}
}

// Subscribe registers h and returns a func that removes it again.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	b.logger.Debug("Publishing event",
		zap.String("kind", string(e.Kind)),
		zap.Int64("business_id", e.BusinessID),
		zap.Int("subscribers", len(handlers)))

	for _, h := range handlers {
		h(ctx, e)
	}
}

// Nop discards everything. Used where no bus is wired, e.g. in tests.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
