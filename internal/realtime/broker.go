// Package realtime fans member-record changes out to live subscribers.
//
// Events carry only the member ID and the kind of change. Subscribers re-read
// the member from storage on every event, so a dropped or coalesced event
// never leaves them with a stale snapshot for longer than the next one.
package realtime

import (
	"context"
)

// ChangeKind describes what happened to a member record.
type ChangeKind string

const (
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Event is a change notification for one member record.
type Event struct {
	MemberID string     `json:"member_id"`
	Kind     ChangeKind `json:"kind"`
}

// Broker publishes member change events and delivers them to subscribers.
type Broker interface {
	// Publish notifies every subscriber of ev.MemberID.
	Publish(ctx context.Context, ev Event) error

	// Subscribe returns a channel of events for memberID. The channel is
	// closed once ctx is done.
	Subscribe(ctx context.Context, memberID string) (<-chan Event, error)

	// Close releases the broker's resources.
	Close() error
}

// subscriberBuffer bounds how far a slow subscriber may fall behind before events are dropped.
const subscriberBuffer = 16
