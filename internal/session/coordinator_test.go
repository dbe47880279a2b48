package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/engine"
	"github.com/CodeCraftersgcuf/gympadday-live/internal/liveerr"
	"github.com/CodeCraftersgcuf/gympadday-live/internal/livetypes"
)

type fakeTokens struct {
	cred    livetypes.Credential
	err     error
	calls   int32
	blockCh chan struct{}
}

func (f *fakeTokens) VideoCallToken(ctx context.Context, channel string, uid int64) (livetypes.Credential, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.blockCh != nil {
		select {
		case <-f.blockCh:
		case <-ctx.Done():
			return livetypes.Credential{}, ctx.Err()
		}
	}
	if f.err != nil {
		return livetypes.Credential{}, f.err
	}
	if f.cred.Channel == "" {
		return livetypes.Credential{Token: "tok", Channel: channel, UID: uid}, nil
	}
	return f.cred, nil
}

type fakeEngine struct {
	joinErr error
	joinCh  chan struct{} // when set, Join blocks until closed

	joins    int32
	leaves   int32
	releases int32

	events chan engine.Event
	done   chan struct{}
	once   sync.Once
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		events: make(chan engine.Event, 16),
		done:   make(chan struct{}),
	}
}

func (f *fakeEngine) Initialize(ctx context.Context, appID, profile string) error { return nil }

func (f *fakeEngine) Join(ctx context.Context, channel, token string, uid int64, role engine.Role) error {
	atomic.AddInt32(&f.joins, 1)
	if f.joinCh != nil {
		select {
		case <-f.joinCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.joinErr
}

func (f *fakeEngine) Leave(ctx context.Context) error { atomic.AddInt32(&f.leaves, 1); return nil }
func (f *fakeEngine) Release() {
	f.once.Do(func() { close(f.done) })
	atomic.AddInt32(&f.releases, 1)
}
func (f *fakeEngine) SetSpeakerphone(on bool) error { return nil }
func (f *fakeEngine) MuteMicrophone(muted bool) error { return nil }
func (f *fakeEngine) Events() <-chan engine.Event { return f.events }
func (f *fakeEngine) Done() <-chan struct{} { return f.done }

// recorder captures the update stream for assertions.
type recorder struct {
	mu     sync.Mutex
	states []State
	ch     chan Update
}

func newRecorder() *recorder { return &recorder{ch: make(chan Update, 32)} }

func (r *recorder) onUpdate(u Update) {
	r.mu.Lock()
	r.states = append(r.states, u.State)
	r.mu.Unlock()
	r.ch <- u
}

func (r *recorder) waitFor(t *testing.T, want State) Update {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case u := <-r.ch:
			if u.State == want {
				return u
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %s; saw %v", want, r.seen())
		}
	}
}

func (r *recorder) seen() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.states))
	copy(out, r.states)
	return out
}

func params(rec *recorder) Params {
	return Params{
		Channel:  "ch-1",
		UID:      42,
		Role:     RoleHost,
		OnUpdate: rec.onUpdate,
	}
}

func TestHappyPathStateSequence(t *testing.T) {
	eng := newFakeEngine()
	rec := newRecorder()
	c := NewCoordinator(&fakeTokens{}, eng, nil)

	if err := c.Start(context.Background(), params(rec)); err != nil {
		t.Fatalf("start: %v", err)
	}
	rec.waitFor(t, StateConnected)

	want := []State{StateFetchingCredential, StateJoining, StateConnected}
	got := rec.seen()
	for i, st := range want {
		if i >= len(got) || got[i] != st {
			t.Fatalf("state sequence mismatch: want %v, got %v", want, got)
		}
	}
	if n := atomic.LoadInt32(&eng.joins); n != 1 {
		t.Fatalf("expected exactly 1 join, got %d", n)
	}

	c.End()
	rec.waitFor(t, StateEnded)
	if n := atomic.LoadInt32(&eng.leaves); n != 1 {
		t.Fatalf("expected 1 leave, got %d", n)
	}
	if n := atomic.LoadInt32(&eng.releases); n != 1 {
		t.Fatalf("expected 1 release, got %d", n)
	}
}

func TestStartIsIdempotentWhileActive(t *testing.T) {
	tokens := &fakeTokens{}
	eng := newFakeEngine()
	rec := newRecorder()
	c := NewCoordinator(tokens, eng, nil)

	c.Start(context.Background(), params(rec))
	rec.waitFor(t, StateConnected)

	for i := 0; i < 3; i++ {
		if err := c.Start(context.Background(), params(rec)); err != nil {
			t.Fatalf("repeated start: %v", err)
		}
	}
	if n := atomic.LoadInt32(&eng.joins); n != 1 {
		t.Fatalf("repeated start must not re-join: got %d joins", n)
	}
	if n := atomic.LoadInt32(&tokens.calls); n != 1 {
		t.Fatalf("repeated start must not re-fetch credential: got %d fetches", n)
	}
	c.End()
}

func TestCredentialFailureNeverJoins(t *testing.T) {
	tokens := &fakeTokens{err: &liveerr.ServerError{Status: 401, Message: "expired"}}
	eng := newFakeEngine()
	rec := newRecorder()
	c := NewCoordinator(tokens, eng, nil)

	c.Start(context.Background(), params(rec))
	u := rec.waitFor(t, StateFailed)

	var se *liveerr.SessionError
	if !errors.As(u.Err, &se) || se.Stage != liveerr.StageCredential {
		t.Fatalf("expected SessionError at credential stage, got %v", u.Err)
	}
	if n := atomic.LoadInt32(&eng.joins); n != 0 {
		t.Fatalf("join must never be called on credential failure, got %d", n)
	}
	if n := atomic.LoadInt32(&eng.releases); n != 1 {
		t.Fatalf("engine must still be released on failure, got %d releases", n)
	}

	got := rec.seen()
	want := []State{StateFetchingCredential, StateFailed}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("state sequence mismatch: want %v, got %v", want, got)
	}
}

func TestEndTwiceReleasesOnce(t *testing.T) {
	eng := newFakeEngine()
	rec := newRecorder()
	c := NewCoordinator(&fakeTokens{}, eng, nil)

	c.Start(context.Background(), params(rec))
	rec.waitFor(t, StateConnected)

	c.End()
	c.End()
	rec.waitFor(t, StateEnded)
	c.End()

	if n := atomic.LoadInt32(&eng.releases); n != 1 {
		t.Fatalf("expected exactly 1 release, got %d", n)
	}
}

func TestStaleJoinSuccessAfterEnd(t *testing.T) {
	eng := newFakeEngine()
	eng.joinCh = make(chan struct{})
	rec := newRecorder()
	c := NewCoordinator(&fakeTokens{}, eng, nil)

	c.Start(context.Background(), params(rec))
	rec.waitFor(t, StateJoining)

	c.End()
	rec.waitFor(t, StateEnded)

	// Let the in-flight join resolve now that the session is already over.
	close(eng.joinCh)
	time.Sleep(50 * time.Millisecond)

	if st := c.State(); st != StateEnded {
		t.Fatalf("stale join must not change state, got %s", st)
	}
	for _, st := range rec.seen() {
		if st == StateConnected {
			t.Fatalf("stale join must not reach connected: %v", rec.seen())
		}
	}
	if n := atomic.LoadInt32(&eng.releases); n != 1 {
		t.Fatalf("stale join must not re-open resources, got %d releases", n)
	}
}

func TestRemoteDrainEndsSession(t *testing.T) {
	eng := newFakeEngine()
	rec := newRecorder()
	c := NewCoordinator(&fakeTokens{}, eng, nil)

	c.Start(context.Background(), params(rec))
	rec.waitFor(t, StateConnected)

	eng.events <- engine.Event{Type: engine.EventUserJoined, UID: 7}
	waitUntil(t, func() bool { return len(c.RemoteParticipants()) == 1 })

	eng.events <- engine.Event{Type: engine.EventUserOffline, UID: 7, Reason: "quit"}
	rec.waitFor(t, StateEnded)

	if n := atomic.LoadInt32(&eng.leaves); n != 1 {
		t.Fatalf("expected 1 leave, got %d", n)
	}
	if n := atomic.LoadInt32(&eng.releases); n != 1 {
		t.Fatalf("expected 1 release, got %d", n)
	}
	got := rec.seen()
	tail := got[len(got)-2:]
	if tail[0] != StateEnding || tail[1] != StateEnded {
		t.Fatalf("expected ending then ended at the tail, got %v", got)
	}
}

func TestRuntimeEngineErrorFails(t *testing.T) {
	eng := newFakeEngine()
	rec := newRecorder()
	c := NewCoordinator(&fakeTokens{}, eng, nil)

	c.Start(context.Background(), params(rec))
	rec.waitFor(t, StateConnected)

	eng.events <- engine.Event{Type: engine.EventError, Code: 17, Reason: "media transport lost"}
	u := rec.waitFor(t, StateFailed)

	var se *liveerr.SessionError
	if !errors.As(u.Err, &se) || se.Stage != liveerr.StageRuntime {
		t.Fatalf("expected runtime-stage SessionError, got %v", u.Err)
	}
	if n := atomic.LoadInt32(&eng.releases); n != 1 {
		t.Fatalf("expected 1 release, got %d", n)
	}
}

type deniedMic struct{}

func (deniedMic) Microphone(context.Context) error { return errors.New("denied by user") }

func TestMicrophoneDenialFailsBeforeJoin(t *testing.T) {
	tokens := &fakeTokens{}
	eng := newFakeEngine()
	rec := newRecorder()
	c := NewCoordinator(tokens, eng, deniedMic{})

	c.Start(context.Background(), params(rec))
	u := rec.waitFor(t, StateFailed)

	var pe *liveerr.PermissionError
	if !errors.As(u.Err, &pe) {
		t.Fatalf("expected PermissionError, got %v", u.Err)
	}
	if n := atomic.LoadInt32(&eng.joins); n != 0 {
		t.Fatalf("must not join after permission denial, got %d joins", n)
	}
}

func TestAudienceSkipsMicrophoneCheck(t *testing.T) {
	eng := newFakeEngine()
	rec := newRecorder()
	c := NewCoordinator(&fakeTokens{}, eng, deniedMic{})

	p := params(rec)
	p.Role = RoleAudience
	c.Start(context.Background(), p)
	rec.waitFor(t, StateConnected)
	c.End()
}

func TestCredentialChannelMismatchFails(t *testing.T) {
	tokens := &fakeTokens{cred: livetypes.Credential{Token: "tok", Channel: "other-channel", UID: 42}}
	eng := newFakeEngine()
	rec := newRecorder()
	c := NewCoordinator(tokens, eng, nil)

	c.Start(context.Background(), params(rec))
	u := rec.waitFor(t, StateFailed)

	var se *liveerr.SessionError
	if !errors.As(u.Err, &se) || se.Stage != liveerr.StageCredential {
		t.Fatalf("expected credential-stage failure, got %v", u.Err)
	}
	if n := atomic.LoadInt32(&eng.joins); n != 0 {
		t.Fatalf("mismatched credential must not be used to join, got %d joins", n)
	}
}

func TestJoinTimeoutFails(t *testing.T) {
	eng := newFakeEngine()
	eng.joinCh = make(chan struct{}) // never closed, join hangs
	rec := newRecorder()
	c := NewCoordinator(&fakeTokens{}, eng, nil)

	p := params(rec)
	p.JoinTimeout = 50 * time.Millisecond
	c.Start(context.Background(), p)
	u := rec.waitFor(t, StateFailed)

	var se *liveerr.SessionError
	if !errors.As(u.Err, &se) || se.Stage != liveerr.StageJoin {
		t.Fatalf("expected join-stage failure on timeout, got %v", u.Err)
	}
}

type fakeChat struct{ stops int32 }

func (f *fakeChat) Stop() { atomic.AddInt32(&f.stops, 1) }

func TestTeardownStopsChat(t *testing.T) {
	eng := newFakeEngine()
	rec := newRecorder()
	c := NewCoordinator(&fakeTokens{}, eng, nil)

	fc := &fakeChat{}
	p := params(rec)
	p.Chat = fc
	c.Start(context.Background(), p)
	rec.waitFor(t, StateConnected)

	c.End()
	rec.waitFor(t, StateEnded)
	if n := atomic.LoadInt32(&fc.stops); n != 1 {
		t.Fatalf("expected chat stopped once on teardown, got %d", n)
	}
}

func TestTerminalUpdateDeliveredLast(t *testing.T) {
	// End racing a join completing at the same moment must never deliver
	// connected to the callback after ending or ended.
	for i := 0; i < 50; i++ {
		eng := newFakeEngine()
		eng.joinCh = make(chan struct{})
		rec := newRecorder()
		c := NewCoordinator(&fakeTokens{}, eng, nil)

		c.Start(context.Background(), params(rec))
		rec.waitFor(t, StateJoining)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); close(eng.joinCh) }()
		go func() { defer wg.Done(); c.End() }()
		wg.Wait()
		rec.waitFor(t, StateEnded)
		time.Sleep(5 * time.Millisecond)

		states := rec.seen()
		if states[len(states)-1] != StateEnded {
			t.Fatalf("iteration %d: terminal update not last: %v", i, states)
		}
		endingAt := -1
		for j, st := range states {
			if st == StateEnding {
				endingAt = j
			}
			if endingAt >= 0 && j > endingAt && st == StateConnected {
				t.Fatalf("iteration %d: connected delivered after ending: %v", i, states)
			}
		}
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition never became true")
}
