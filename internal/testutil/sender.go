package testutil

import (
	"context"
	"sync"

	"github.com/nhle/collab-todo/internal/notify"
)

// RecordingSender is a notify.Sender that keeps every message in memory.
// Setting Err makes every Send fail without recording.
type RecordingSender struct {
	mu       sync.Mutex
	messages []notify.Message

	Err error
}

// Send records msg or returns Err.
func (r *RecordingSender) Send(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *RecordingSender) Messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recently recorded message.
func (r *RecordingSender) Last() (notify.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return notify.Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}
