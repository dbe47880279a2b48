package liveerr

import "fmt"

// Stage labels where in the session lifecycle a SessionError occurred.
type Stage string

const (
	StageCredential Stage = "credential"
	StageJoin       Stage = "join"
	StageRuntime    Stage = "runtime"
)

// AuthError means no usable local credential exists; the user must
// re-authenticate before retrying.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "not authenticated"
	}
	return "not authenticated: " + e.Reason
}

// NetworkError wraps a transport-level failure. Safe to retry manually.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network: %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError means the backend rejected the request (4xx/5xx). The
// backend-provided message is surfaced when present.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server rejected request (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server rejected request (%d)", e.Status)
}

// PermissionError means an OS-level permission was denied. The user must
// grant it in settings; never retried automatically.
type PermissionError struct {
	Permission string
}

func (e *PermissionError) Error() string { return e.Permission + " permission denied" }

// SessionError is a failure in the session lifecycle, tagged with the stage
// it occurred at.
type SessionError struct {
	Stage Stage
	Err   error
}

func (e *SessionError) Error() string { return fmt.Sprintf("session %s stage: %v", e.Stage, e.Err) }
func (e *SessionError) Unwrap() error { return e.Err }
