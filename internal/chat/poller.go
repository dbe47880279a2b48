// Package chat polls the live-chat history of one session on a fixed
// interval and emits each message exactly once.
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/livetypes"
)

const defaultInterval = time.Second

// Fetcher is the slice of the backend client the poller uses.
type Fetcher interface {
	FetchChats(ctx context.Context, streamID string) ([]livetypes.ChatMessage, error)
	SendChat(ctx context.Context, streamID string, msg livetypes.ChatSend) error
}

// Poller repeatedly fetches the message list for one stream, merges by id,
// and emits only newly-seen messages. Transient fetch errors are logged and
// skipped; polling stops only via Stop or context cancellation.
type Poller struct {
	fetch    Fetcher
	interval time.Duration

	mu       sync.Mutex
	streamID string
	started  bool
	seen     map[string]struct{}

	out  chan livetypes.ChatMessage
	poke chan struct{}
	stop chan struct{}

	stopOnce sync.Once
}

func NewPoller(fetch Fetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		fetch:    fetch,
		interval: interval,
		seen:     make(map[string]struct{}),
		out:      make(chan livetypes.ChatMessage, 64),
		poke:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Messages delivers newly-seen chat messages in arrival order. Closed after
// Stop once the poll loop drains.
func (p *Poller) Messages() <-chan livetypes.ChatMessage { return p.out }

// Start begins polling for streamID. A second call is a no-op.
func (p *Poller) Start(ctx context.Context, streamID string) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.streamID = streamID
	p.mu.Unlock()
	go p.loop(ctx, streamID)
}

func (p *Poller) loop(ctx context.Context, streamID string) {
	defer close(p.out)
	p.poll(ctx, streamID)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, streamID)
		case <-p.poke:
			p.poll(ctx, streamID)
		}
	}
}

func (p *Poller) poll(ctx context.Context, streamID string) {
	msgs, err := p.fetch.FetchChats(ctx, streamID)
	if err != nil {
		// Transient: next tick tries again.
		pollsTotal.WithLabelValues("error").Inc()
		log.Warn().Str("module", "chat").Str("stream", streamID).Err(err).Msg("chat poll failed")
		return
	}
	pollsTotal.WithLabelValues("ok").Inc()
	for _, m := range msgs {
		p.mu.Lock()
		_, dup := p.seen[m.ID]
		if !dup {
			p.seen[m.ID] = struct{}{}
		}
		p.mu.Unlock()
		if dup {
			continue
		}
		messagesEmitted.Inc()
		select {
		case p.out <- m:
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Send posts a chat/gift message and triggers an immediate out-of-cycle
// refresh so the sender sees it without waiting for the next tick.
func (p *Poller) Send(ctx context.Context, msg livetypes.ChatSend) error {
	p.mu.Lock()
	streamID := p.streamID
	p.mu.Unlock()
	if err := p.fetch.SendChat(ctx, streamID, msg); err != nil {
		sendsTotal.WithLabelValues("error").Inc()
		return err
	}
	sendsTotal.WithLabelValues("ok").Inc()
	select {
	case p.poke <- struct{}{}:
	default:
	}
	return nil
}

// Stop cancels polling permanently. Idempotent.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}
