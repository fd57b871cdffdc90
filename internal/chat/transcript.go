package chat

import (
	"github.com/google/uuid"

	"github.com/sagealpha/sagecli/internal/api"
)

// State is the controller's finite state. The rendering layer is a pure
// projection of it: Limited disables input until the upgrade path is taken.
type State int

const (
	StateIdle State = iota
	StateSending
	StateLimited
)

func (s State) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateLimited:
		return "limited"
	default:
		return "idle"
	}
}

// Role tags a transcript entry with its author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status is the lifecycle tag of a transcript entry. Pending entries are
// transient placeholders awaiting a backend result; at most one exists per
// outstanding request and it is removed, never mutated, when the result
// lands.
type Status int

const (
	StatusResolved Status = iota
	StatusPending
	StatusFailed
)

// Entry is one line of the displayed transcript. Content is empty exactly
// when Intelligence is populated; Ticker accompanies Intelligence.
type Entry struct {
	ID           string
	Role         Role
	Status       Status
	Content      string
	Attachments  []api.Attachment
	Intelligence *api.Intelligence
	Ticker       string
	UsageLimit   bool
}

// Pending reports whether the entry is a thinking placeholder.
func (e Entry) Pending() bool {
	return e.Status == StatusPending
}

// EventKind discriminates controller events.
type EventKind int

const (
	EventEntryAppended EventKind = iota
	EventEntryResolved
	EventStateChanged
)

// Event is delivered to the OnEvent observer after each transcript or state
// change.
type Event struct {
	Kind  EventKind
	Entry Entry
	State State
}

func newEntryID() string {
	return uuid.NewString()
}
