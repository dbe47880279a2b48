package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/chat"
	"github.com/CodeCraftersgcuf/gympadday-live/internal/engine"
	"github.com/CodeCraftersgcuf/gympadday-live/internal/session"
)

// runLive drives one session from join to teardown, printing state changes
// and, when chatStreamID is set, the live chat. Blocks until the session
// reaches a terminal state or ctx is cancelled.
func runLive(ctx context.Context, e env, channel string, role session.Role, chatStreamID string) error {
	uid, err := e.localUID()
	if err != nil {
		return err
	}

	eng := engine.NewWS(e.cfg.Backend.GatewayURL)
	coord := session.NewCoordinator(e.api, eng, engine.Granted{})

	var poller *chat.Poller
	if chatStreamID != "" {
		poller = chat.NewPoller(e.api, time.Duration(e.cfg.Live.PollIntervalMS)*time.Millisecond)
	}

	done := make(chan struct{})
	var closeOnce sync.Once
	params := session.Params{
		Channel:     channel,
		UID:         uid,
		Role:        role,
		AppID:       e.cfg.Live.AppID,
		Profile:     e.cfg.Live.Profile,
		JoinTimeout: time.Duration(e.cfg.Live.JoinTimeoutSeconds) * time.Second,
		OnUpdate: func(u session.Update) {
			if u.Err != nil {
				fmt.Printf("* session %s: %v\n", u.State, u.Err)
			} else {
				fmt.Printf("* session %s\n", u.State)
			}
			if u.State.Terminal() {
				closeOnce.Do(func() { close(done) })
			}
		},
	}
	if poller != nil {
		params.Chat = poller
	}

	if err := coord.Start(ctx, params); err != nil {
		return err
	}

	if poller != nil {
		poller.Start(ctx, chatStreamID)
		go func() {
			for m := range poller.Messages() {
				if m.Type == "gift" {
					fmt.Printf("  %d sent a gift (%d coins)\n", m.SenderID, m.Amount)
					continue
				}
				fmt.Printf("  %d: %s\n", m.SenderID, m.Body)
			}
		}()
	}

	select {
	case <-ctx.Done():
		coord.End()
		<-done
	case <-done:
	}
	return coord.Err()
}
