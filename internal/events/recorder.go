package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Recorder is an in-memory Dispatcher. It keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Dispatch(_ context.Context, evts []Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, evts...)
	return nil
}

func (r *Recorder) All() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.All() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) For(recipient uuid.UUID) []Event {
	var out []Event
	for _, e := range r.All() {
		if e.Recipient == recipient {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
