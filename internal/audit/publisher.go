package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"credentia/pkg/domain"
)

// Publisher captures structured audit events. Persistence to the store is
// synchronous so tests can assert on event presence; delivery to external
// sinks rides an inbox channel and is fire-and-forget.
type Publisher struct {
	store Store
	inbox chan<- Event
}

// NewPublisher builds a publisher over a store. inbox may be nil when no
// external sink is wired.
func NewPublisher(store Store, inbox chan<- Event) *Publisher {
	return &Publisher{store: store, inbox: inbox}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.inbox != nil {
		// Never block a domain operation on a slow sink.
		select {
		case p.inbox <- event:
		default:
		}
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, actor domain.Address) ([]Event, error) {
	return p.store.ListByActor(ctx, actor)
}
