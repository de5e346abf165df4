package notification

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"smartcity/internal/events"
)

// Dispatcher turns workflow events into notification rows. It implements
// events.Dispatcher.
type Dispatcher struct {
	repo Repository
}

func NewDispatcher(repo Repository) *Dispatcher {
	return &Dispatcher{repo: repo}
}

// Dispatch renders every event and stores the resulting rows in one batch.
// Events without a recipient are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, evts []events.Event) error {
	rows := make([]Notification, 0, len(evts))
	for _, e := range evts {
		if e.Recipient == uuid.Nil {
			log.Printf("notification: dropping event without recipient type=%s", e.Type)
			continue
		}
		title, message, err := Render(e)
		if err != nil {
			return err
		}
		n := Notification{
			UserID:  e.Recipient,
			Type:    e.Type,
			Title:   title,
			Message: message,
		}
		if err := n.SetData(e.Data); err != nil {
			return fmt.Errorf("encode %s payload: %w", e.Type, err)
		}
		rows = append(rows, n)
	}

	if err := d.repo.CreateBatch(ctx, rows); err != nil {
		return fmt.Errorf("store %d notifications: %w", len(rows), err)
	}
	return nil
}
