// Package engine isolates the rest of the module from the real-time media
// engine's API shape. All engine calls are treated as possibly-failing I/O:
// failures return an error or surface as an EventError, never panic.
package engine

import "context"

type EventType string

const (
	EventJoined      EventType = "joined"
	EventUserJoined  EventType = "user_joined"
	EventUserOffline EventType = "user_offline"
	EventError       EventType = "error"
)

// Event is one engine lifecycle notification.
type Event struct {
	Type   EventType
	UID    int64
	Reason string
	Code   int
}

// Role is the engine-level role a participant joins a channel with.
type Role string

const (
	RoleBroadcaster Role = "broadcaster"
	RoleAudience    Role = "audience"
)

// Publishes reports whether the role sends media into the channel, which is
// what gates the microphone permission precondition.
func (r Role) Publishes() bool { return r == RoleBroadcaster }

// PermissionChecker answers whether an OS-level capability is granted. The
// coordinator must satisfy it before any publishing join.
type PermissionChecker interface {
	Microphone(ctx context.Context) error
}

// Granted is a PermissionChecker that always allows, used where the host
// platform has no permission model (CLI, tests).
type Granted struct{}

func (Granted) Microphone(context.Context) error { return nil }
