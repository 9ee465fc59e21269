// Package optimistic implements the client-side send reconciliation
// contract: a send is shown immediately as a provisional entry, then either
// replaced wholesale by the server-confirmed entity or removed on failure.
package optimistic

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle of one send. Pending is the only non-terminal state
// and every send makes exactly one transition out of it.
type State int

const (
	StatePending State = iota
	StateConfirmed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrDuplicateTempID = errors.New("temporary id already staged")
	ErrUnknownSend     = errors.New("no pending send with that id")
)

// Entry is one element of the reconciled message list. While pending it
// carries the provisional payload under TempID; once confirmed it carries
// the server entity under ServerID and the temporary id is gone for good.
type Entry struct {
	TempID   string
	ServerID string
	State    State
	Payload  any
}

// Outbox reconciles optimistic sends against server acknowledgments. It is
// safe for concurrent use; the UI layer snapshots it after every change.
type Outbox struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*Entry
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{entries: make(map[string]*Entry)}
}

// Stage records a provisional send before the network round-trip starts. The
// temporary id must be locally unique; it is never persisted.
func (o *Outbox) Stage(tempID string, payload any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.entries[tempID]; ok {
		return ErrDuplicateTempID
	}
	o.entries[tempID] = &Entry{TempID: tempID, State: StatePending, Payload: payload}
	o.order = append(o.order, tempID)
	return nil
}

// Confirm replaces the provisional entry with the server-assigned entity.
// The temporary id is discarded; only the confirmed form remains.
func (o *Outbox) Confirm(tempID, serverID string, entity any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.entries[tempID]
	if !ok || entry.State != StatePending {
		return ErrUnknownSend
	}
	entry.TempID = ""
	entry.ServerID = serverID
	entry.State = StateConfirmed
	entry.Payload = entity
	delete(o.entries, tempID)
	o.entries[serverID] = entry
	for i, id := range o.order {
		if id == tempID {
			o.order[i] = serverID
			break
		}
	}
	return nil
}

// Fail removes the provisional entry entirely. There is no retry state; a
// failed send requires the user to send again.
func (o *Outbox) Fail(tempID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.entries[tempID]
	if !ok || entry.State != StatePending {
		return ErrUnknownSend
	}
	entry.State = StateFailed
	delete(o.entries, tempID)
	for i, id := range o.order {
		if id == tempID {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return nil
}

// Snapshot returns the current message list in staging order: confirmed
// entities and still-pending provisionals, failures absent.
func (o *Outbox) Snapshot() []Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Entry, 0, len(o.order))
	for _, id := range o.order {
		if entry, ok := o.entries[id]; ok {
			out = append(out, *entry)
		}
	}
	return out
}

// Pending reports whether a provisional entry with the temporary id exists.
func (o *Outbox) Pending(tempID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.entries[tempID]
	return ok && entry.State == StatePending
}
