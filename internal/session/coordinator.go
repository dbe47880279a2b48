package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/engine"
	"github.com/CodeCraftersgcuf/gympadday-live/internal/liveerr"
	"github.com/CodeCraftersgcuf/gympadday-live/internal/livetypes"
)

var ErrNotConnected = errors.New("session: not connected")

const defaultJoinTimeout = 20 * time.Second

// TokenProvider fetches a channel-bound session credential from the backend.
type TokenProvider interface {
	VideoCallToken(ctx context.Context, channel string, uid int64) (livetypes.Credential, error)
}

// Engine is the coordinator's view of the media engine adapter.
type Engine interface {
	Initialize(ctx context.Context, appID, profile string) error
	Join(ctx context.Context, channel, token string, uid int64, role engine.Role) error
	Leave(ctx context.Context) error
	Release()
	SetSpeakerphone(on bool) error
	MuteMicrophone(muted bool) error
	Events() <-chan engine.Event
	Done() <-chan struct{}
}

// ChatStopper is the slice of the chat poller the coordinator needs for
// teardown.
type ChatStopper interface {
	Stop()
}

// Params configures one Start attempt.
type Params struct {
	Channel string
	UID     int64
	Role    Role

	AppID   string
	Profile string

	// JoinTimeout bounds both the credential fetch and the engine join.
	// Zero means the 20s default.
	JoinTimeout time.Duration

	// OnUpdate observes every state transition. Updates are delivered one
	// at a time in transition order; a terminal update is always last.
	OnUpdate func(Update)

	// Chat, when set, is stopped once the session reaches a terminal state.
	Chat ChatStopper
}

// Coordinator drives one session from creation to teardown, exactly once.
// Start is idempotent while not idle; End is safe from any state and
// releases the engine exactly once. Stale asynchronous callbacks from a
// superseded attempt are discarded via a generation check.
type Coordinator struct {
	tokens TokenProvider
	eng    Engine
	perms  engine.PermissionChecker

	mu        sync.Mutex
	state     State
	gen       uint64
	sess      *Session
	remotes   map[int64]time.Time
	params    Params
	released  bool
	lastErr   error
	pending   []Update
	notifying bool
}

func NewCoordinator(tokens TokenProvider, eng Engine, perms engine.PermissionChecker) *Coordinator {
	if perms == nil {
		perms = engine.Granted{}
	}
	return &Coordinator{
		tokens:  tokens,
		eng:     eng,
		perms:   perms,
		state:   StateIdle,
		remotes: make(map[int64]time.Time),
	}
}

// Start begins the join flow. A second call while not idle is a no-op: at
// most one engine join is ever issued per coordinator.
func (c *Coordinator) Start(ctx context.Context, p Params) error {
	c.mu.Lock()
	if c.state != StateIdle {
		st := c.state
		c.mu.Unlock()
		log.Debug().Str("module", "session").Stringer("state", st).Msg("start ignored, session not idle")
		return nil
	}
	if p.JoinTimeout <= 0 {
		p.JoinTimeout = defaultJoinTimeout
	}
	c.gen++
	gen := c.gen
	c.params = p
	c.sess = &Session{
		ID:            p.Channel,
		Role:          p.Role,
		LocalIdentity: p.UID,
		StartedAt:     time.Now().UTC(),
	}
	c.state = StateFetchingCredential
	c.pending = append(c.pending, Update{State: StateFetchingCredential})
	c.mu.Unlock()

	transitionsTotal.WithLabelValues(StateFetchingCredential.String()).Inc()
	c.flush()

	go c.run(ctx, gen, p)
	return nil
}

func (c *Coordinator) run(ctx context.Context, gen uint64, p Params) {
	if p.Role.EngineRole().Publishes() {
		if err := c.perms.Microphone(ctx); err != nil {
			c.fail(gen, &liveerr.PermissionError{Permission: "microphone"})
			return
		}
	}

	fctx, cancel := context.WithTimeout(ctx, p.JoinTimeout)
	cred, err := c.tokens.VideoCallToken(fctx, p.Channel, p.UID)
	cancel()
	if err != nil {
		c.fail(gen, &liveerr.SessionError{Stage: liveerr.StageCredential, Err: err})
		return
	}
	// A credential minted for another channel must never be used here.
	if cred.Channel != p.Channel {
		c.fail(gen, &liveerr.SessionError{
			Stage: liveerr.StageCredential,
			Err:   fmt.Errorf("credential bound to channel %q, want %q", cred.Channel, p.Channel),
		})
		return
	}

	if !c.transition(gen, StateFetchingCredential, StateJoining, nil) {
		return
	}

	if err := c.eng.Initialize(ctx, p.AppID, p.Profile); err != nil {
		c.fail(gen, &liveerr.SessionError{Stage: liveerr.StageJoin, Err: err})
		return
	}
	jctx, cancel := context.WithTimeout(ctx, p.JoinTimeout)
	err = c.eng.Join(jctx, cred.Channel, cred.Token, p.UID, p.Role.EngineRole())
	cancel()
	if err != nil {
		c.fail(gen, &liveerr.SessionError{Stage: liveerr.StageJoin, Err: err})
		return
	}

	// A join resolving after the user already left must not re-open anything.
	if !c.transition(gen, StateJoining, StateConnected, nil) {
		return
	}
	go c.pump(gen)
}

// pump consumes engine events while the session is connected.
func (c *Coordinator) pump(gen uint64) {
	for {
		select {
		case ev := <-c.eng.Events():
			switch ev.Type {
			case engine.EventUserJoined:
				c.addRemote(gen, ev.UID)
			case engine.EventUserOffline:
				if c.dropRemote(gen, ev.UID) {
					// Everyone else left; the session is over.
					log.Info().Str("module", "session").Int64("uid", ev.UID).Msg("last remote left, ending session")
					c.End()
					return
				}
			case engine.EventError:
				c.fail(gen, &liveerr.SessionError{
					Stage: liveerr.StageRuntime,
					Err:   fmt.Errorf("engine error %d: %s", ev.Code, ev.Reason),
				})
				return
			}
		case <-c.eng.Done():
			return
		}
		c.mu.Lock()
		stale := gen != c.gen || c.state.Terminal()
		c.mu.Unlock()
		if stale {
			return
		}
	}
}

// End is safe to call from any state and always moves toward Ended. Repeated
// calls are no-ops; the engine release runs exactly once.
func (c *Coordinator) End() {
	c.mu.Lock()
	if c.state == StateIdle || c.state == StateEnding || c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	c.state = StateEnding
	needRelease := !c.released
	c.released = true
	c.pending = append(c.pending, Update{State: StateEnding})
	c.mu.Unlock()

	transitionsTotal.WithLabelValues(StateEnding.String()).Inc()
	c.flush()

	if needRelease {
		c.teardown()
	}

	c.mu.Lock()
	if gen != c.gen || c.state != StateEnding {
		c.mu.Unlock()
		return
	}
	c.state = StateEnded
	now := time.Now().UTC()
	if c.sess != nil {
		c.sess.EndedAt = &now
	}
	chat := c.params.Chat
	c.pending = append(c.pending, Update{State: StateEnded})
	c.mu.Unlock()

	if chat != nil {
		chat.Stop()
	}
	transitionsTotal.WithLabelValues(StateEnded.String()).Inc()
	c.flush()
}

// fail moves to the terminal Failed state, running the same cleanup as
// ending. Stale generations are discarded.
func (c *Coordinator) fail(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen || c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	c.state = StateFailed
	c.lastErr = err
	now := time.Now().UTC()
	if c.sess != nil {
		c.sess.EndedAt = &now
	}
	needRelease := !c.released
	c.released = true
	chat := c.params.Chat
	c.pending = append(c.pending, Update{State: StateFailed, Err: err})
	c.mu.Unlock()

	log.Error().Str("module", "session").Err(err).Msg("session failed")
	failuresTotal.WithLabelValues(failureStage(err)).Inc()
	transitionsTotal.WithLabelValues(StateFailed.String()).Inc()

	if needRelease {
		c.teardown()
	}
	if chat != nil {
		chat.Stop()
	}
	c.flush()
}

// teardown leaves the channel and releases the engine handle. Callers
// guarantee it runs at most once per coordinator.
func (c *Coordinator) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := c.eng.Leave(ctx); err != nil {
		log.Warn().Str("module", "session").Err(err).Msg("engine leave failed")
	}
	cancel()
	c.eng.Release()
}

// transition applies next only when the generation still matches and the
// current state is from. Out-of-order callbacks fall through here.
func (c *Coordinator) transition(gen uint64, from, next State, err error) bool {
	c.mu.Lock()
	if gen != c.gen || c.state != from {
		c.mu.Unlock()
		return false
	}
	c.state = next
	c.pending = append(c.pending, Update{State: next, Err: err})
	c.mu.Unlock()

	transitionsTotal.WithLabelValues(next.String()).Inc()
	c.flush()
	return true
}

// flush delivers queued updates one at a time in transition order. Updates
// are enqueued while c.mu is held by the same critical section that changed
// the state, so delivery order matches state order even when End races the
// run goroutine. Whoever finds the queue unclaimed drains it; everyone else
// leaves their update for the current drainer.
func (c *Coordinator) flush() {
	c.mu.Lock()
	if c.notifying {
		c.mu.Unlock()
		return
	}
	c.notifying = true
	for len(c.pending) > 0 {
		u := c.pending[0]
		c.pending = c.pending[1:]
		cb := c.params.OnUpdate
		c.mu.Unlock()
		if cb != nil {
			cb(u)
		}
		c.mu.Lock()
	}
	c.notifying = false
	c.mu.Unlock()
}

func (c *Coordinator) addRemote(gen uint64, uid int64) {
	c.mu.Lock()
	if gen == c.gen && c.state == StateConnected {
		c.remotes[uid] = time.Now().UTC()
	}
	c.mu.Unlock()
}

// dropRemote removes uid and reports whether that emptied a previously
// non-empty participant set while connected.
func (c *Coordinator) dropRemote(gen uint64, uid int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != StateConnected {
		return false
	}
	if _, ok := c.remotes[uid]; !ok {
		return false
	}
	delete(c.remotes, uid)
	return len(c.remotes) == 0
}

// MuteMicrophone toggles the local microphone while connected.
func (c *Coordinator) MuteMicrophone(muted bool) error {
	c.mu.Lock()
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}
	return c.eng.MuteMicrophone(muted)
}

// SetSpeakerphone toggles audio routing while connected.
func (c *Coordinator) SetSpeakerphone(on bool) error {
	c.mu.Lock()
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}
	return c.eng.SetSpeakerphone(on)
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error that moved the coordinator to Failed, if any.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Session returns a copy of the current session, or nil before Start.
func (c *Coordinator) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return nil
	}
	s := *c.sess
	return &s
}

// RemoteParticipants snapshots the connected remote parties.
func (c *Coordinator) RemoteParticipants() []RemoteParticipant {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]RemoteParticipant, 0, len(c.remotes))
	for uid, at := range c.remotes {
		out = append(out, RemoteParticipant{UID: uid, JoinedAt: at})
	}
	return out
}

func failureStage(err error) string {
	var se *liveerr.SessionError
	if errors.As(err, &se) {
		return string(se.Stage)
	}
	var pe *liveerr.PermissionError
	if errors.As(err, &pe) {
		return "permission"
	}
	return "unknown"
}
