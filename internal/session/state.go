package session

import (
	"time"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/engine"
)

// State is the coordinator lifecycle position. Transitions only move forward
// for a given session instance; Ended and Failed are terminal.
type State int

const (
	StateIdle State = iota
	StateFetchingCredential
	StateJoining
	StateConnected
	StateEnding
	StateEnded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingCredential:
		return "fetching_credential"
	case StateJoining:
		return "joining"
	case StateConnected:
		return "connected"
	case StateEnding:
		return "ending"
	case StateEnded:
		return "ended"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

func (s State) Terminal() bool { return s == StateEnded || s == StateFailed }

// Role is the application-level part a local identity plays in a session.
type Role string

const (
	RoleHost     Role = "host"
	RoleAudience Role = "audience"
	RoleCaller   Role = "caller"
	RoleReceiver Role = "receiver"
)

// EngineRole maps the application role onto the engine's publish/subscribe
// distinction. Everyone but a stream audience publishes audio.
func (r Role) EngineRole() engine.Role {
	if r == RoleAudience {
		return engine.RoleAudience
	}
	return engine.RoleBroadcaster
}

// Session identifies one live/call instance, owned exclusively by the
// coordinator that created it.
type Session struct {
	ID            string
	Role          Role
	LocalIdentity int64
	StartedAt     time.Time
	EndedAt       *time.Time
}

// RemoteParticipant is one currently-connected remote party. Membership
// changes only via engine events.
type RemoteParticipant struct {
	UID      int64
	JoinedAt time.Time
}

// Update is the single notification shape the UI layer observes. Err is
// non-nil only on the transition into StateFailed.
type Update struct {
	State State
	Err   error
}
