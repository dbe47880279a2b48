package credstore

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoCredential = errors.New("no stored credential")

// Store is the injected credential capability. The bearer token the backend
// collaborators authenticate with is read from here, never from a global.
type Store interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}

// Memory is an in-memory Store, used by tests and short-lived processes.
type Memory struct {
	mu    sync.Mutex
	token string
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Get() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNoCredential
	}
	return m.token, nil
}

func (m *Memory) Set(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

// Expired reports whether tok is a JWT whose exp claim has passed. The
// signature is not checked here; only the server can do that. A token that
// does not parse as a JWT or carries no exp claim is treated as non-expiring.
func Expired(tok string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}
