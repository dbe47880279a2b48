package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/rs/zerolog/log"
	ws "nhooyr.io/websocket"
)

var (
	ErrNotJoined = errors.New("engine: not joined to a channel")
	ErrReleased  = errors.New("engine: released")
)

// frame is the wire shape exchanged with the engine gateway.
type frame struct {
	Type    string `json:"type"`
	UID     int64  `json:"uid,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Enabled bool   `json:"enabled"`
}

// WS is the websocket-signaled engine client. One WS instance owns at most
// one gateway connection; Release must be called before a new instance is
// created, the engine is a process-wide scarce resource.
type WS struct {
	gatewayURL string

	mu    sync.Mutex
	conn  *ws.Conn
	appID string

	events chan Event
	done   chan struct{}

	releaseOnce sync.Once
}

func NewWS(gatewayURL string) *WS {
	return &WS{
		gatewayURL: gatewayURL,
		events:     make(chan Event, 16),
		done:       make(chan struct{}),
	}
}

func (e *WS) Initialize(ctx context.Context, appID, profile string) error {
	e.mu.Lock()
	e.appID = appID
	e.mu.Unlock()
	log.Debug().Str("module", "engine").Str("profile", profile).Msg("engine initialized")
	return nil
}

// Events delivers engine lifecycle notifications. The channel is never
// closed; consumers should also select on Done.
func (e *WS) Events() <-chan Event { return e.events }

// Done is closed once Release has run.
func (e *WS) Done() <-chan struct{} { return e.done }

// Join connects to the gateway and waits for the joined acknowledgement.
func (e *WS) Join(ctx context.Context, channel, token string, uid int64, role Role) error {
	q := url.Values{}
	q.Set("channel", channel)
	q.Set("uid", fmt.Sprint(uid))
	q.Set("role", string(role))
	q.Set("token", token)

	conn, _, err := ws.Dial(ctx, e.gatewayURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("engine join: %w", err)
	}

	// First frame must acknowledge the join or report a rejection.
	_, data, err := conn.Read(ctx)
	if err != nil {
		conn.Close(ws.StatusNormalClosure, "join failed")
		return fmt.Errorf("engine join: %w", err)
	}
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		conn.Close(ws.StatusProtocolError, "bad frame")
		return fmt.Errorf("engine join: %w", err)
	}
	if f.Type != string(EventJoined) {
		conn.Close(ws.StatusNormalClosure, "rejected")
		return fmt.Errorf("engine join rejected: %s (code %d)", f.Message, f.Code)
	}

	e.mu.Lock()
	select {
	case <-e.done:
		// Release ran while the ack was in flight. Adopting the connection
		// now would re-open the engine after teardown.
		e.mu.Unlock()
		conn.Close(ws.StatusNormalClosure, "released")
		return fmt.Errorf("engine join: %w", ErrReleased)
	default:
	}
	e.conn = conn
	e.mu.Unlock()

	e.emit(Event{Type: EventJoined, UID: uid})
	go e.readLoop(conn)
	return nil
}

func (e *WS) readLoop(conn *ws.Conn) {
	ctx := context.Background()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			select {
			case <-e.done:
				// released locally, not an error
			default:
				e.emit(Event{Type: EventError, Reason: err.Error()})
			}
			return
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Warn().Str("module", "engine").Err(err).Msg("dropping malformed gateway frame")
			continue
		}
		switch f.Type {
		case string(EventUserJoined):
			e.emit(Event{Type: EventUserJoined, UID: f.UID})
		case string(EventUserOffline):
			e.emit(Event{Type: EventUserOffline, UID: f.UID, Reason: f.Reason})
		case string(EventError):
			e.emit(Event{Type: EventError, Code: f.Code, Reason: f.Message})
		}
	}
}

func (e *WS) emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

func (e *WS) Leave(ctx context.Context) error {
	e.mu.Lock()
	conn := e.conn
	e.conn = nil
	e.mu.Unlock()
	if conn == nil {
		return nil
	}
	_ = e.send(ctx, conn, frame{Type: "leave"})
	return conn.Close(ws.StatusNormalClosure, "leave")
}

// Release tears the connection down and unblocks consumers. Safe to call
// more than once and from any state.
func (e *WS) Release() {
	e.releaseOnce.Do(func() {
		close(e.done)
		e.mu.Lock()
		conn := e.conn
		e.conn = nil
		e.mu.Unlock()
		if conn != nil {
			_ = conn.Close(ws.StatusNormalClosure, "released")
		}
		log.Debug().Str("module", "engine").Msg("engine released")
	})
}

func (e *WS) SetSpeakerphone(on bool) error {
	return e.control(frame{Type: "speakerphone", Enabled: on})
}

func (e *WS) MuteMicrophone(muted bool) error {
	return e.control(frame{Type: "mute", Enabled: muted})
}

func (e *WS) control(f frame) error {
	e.mu.Lock()
	conn := e.conn
	e.mu.Unlock()
	if conn == nil {
		return ErrNotJoined
	}
	return e.send(context.Background(), conn, f)
}

func (e *WS) send(ctx context.Context, conn *ws.Conn, f frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return conn.Write(ctx, ws.MessageText, b)
}
