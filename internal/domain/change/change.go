// Package change defines the notification broadcast after an event mutation.
package change

// Kind identifies what happened to an event.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

// Name is the message name pushed to subscribers for every change.
const Name = "event"

// Change is an immutable notification that an event was mutated. It does
// not carry the record; subscribers re-fetch to learn current state.
type Change struct {
	Kind    Kind
	Payload string // optional label; defaults to the kind
}

// New returns a Change of the given kind.
func New(kind Kind) Change {
	return Change{Kind: kind}
}

// Data returns the message body pushed to subscribers.
func (c Change) Data() string {
	if c.Payload != "" {
		return c.Payload
	}
	return string(c.Kind)
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindCreated, KindUpdated, KindDeleted:
		return true
	}
	return false
}
