package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	ws "nhooyr.io/websocket"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/enginetoken"
)

type gatewayFrame struct {
	Type    string `json:"type"`
	UID     int64  `json:"uid,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Enabled bool   `json:"enabled"`
}

// Gateway simulates the media engine's channel plane: participants join a
// channel over websocket and see each other's presence events. At most one
// connection per (channel, uid); a replacement closes the previous one.
type Gateway struct {
	secret string

	mu    sync.Mutex
	rooms map[string]map[int64]*ws.Conn
}

func NewGateway(secret string) *Gateway {
	return &Gateway{secret: secret, rooms: make(map[string]map[int64]*ws.Conn)}
}

func (g *Gateway) Handle(c *gin.Context) {
	channel := c.Query("channel")
	token := c.Query("token")
	uid, err := strconv.ParseInt(c.Query("uid"), 10, 64)
	if err != nil || channel == "" {
		c.String(http.StatusBadRequest, "channel and numeric uid are required")
		return
	}
	tokUID, _, err := enginetoken.Validate(g.secret, token, channel, time.Now())
	if err != nil || tokUID != uid {
		c.String(http.StatusForbidden, "invalid channel token")
		return
	}

	conn, err := ws.Accept(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Str("module", "gateway").Err(err).Msg("websocket accept failed")
		return
	}

	ctx := context.Background()
	peers := g.register(channel, uid, conn)

	// Ack the join, then replay current membership to the joiner.
	g.send(ctx, conn, gatewayFrame{Type: "joined", UID: uid})
	for _, peer := range peers {
		g.send(ctx, conn, gatewayFrame{Type: "user_joined", UID: peer})
	}
	g.broadcast(ctx, channel, uid, gatewayFrame{Type: "user_joined", UID: uid})
	log.Info().Str("module", "gateway").Str("channel", channel).Int64("uid", uid).Msg("participant joined")

	reason := "quit"
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var f gatewayFrame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		if f.Type == "leave" {
			reason = "leave"
			break
		}
		// mute/speakerphone controls are local to the participant; nothing
		// to fan out in the simulation.
	}

	g.unregister(channel, uid, conn)
	g.broadcast(ctx, channel, uid, gatewayFrame{Type: "user_offline", UID: uid, Reason: reason})
	conn.Close(ws.StatusNormalClosure, "bye")
	log.Info().Str("module", "gateway").Str("channel", channel).Int64("uid", uid).Str("reason", reason).Msg("participant left")
}

// register adds the connection and returns the uids already present.
func (g *Gateway) register(channel string, uid int64, conn *ws.Conn) []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	room := g.rooms[channel]
	if room == nil {
		room = make(map[int64]*ws.Conn)
		g.rooms[channel] = room
	}
	if old, ok := room[uid]; ok && old != nil {
		_ = old.Close(ws.StatusNormalClosure, "replaced")
	}
	peers := make([]int64, 0, len(room))
	for id := range room {
		if id != uid {
			peers = append(peers, id)
		}
	}
	room[uid] = conn
	return peers
}

func (g *Gateway) unregister(channel string, uid int64, conn *ws.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if room, ok := g.rooms[channel]; ok {
		if room[uid] == conn {
			delete(room, uid)
		}
		if len(room) == 0 {
			delete(g.rooms, channel)
		}
	}
}

func (g *Gateway) broadcast(ctx context.Context, channel string, from int64, f gatewayFrame) {
	g.mu.Lock()
	conns := make([]*ws.Conn, 0)
	for uid, c := range g.rooms[channel] {
		if uid != from {
			conns = append(conns, c)
		}
	}
	g.mu.Unlock()
	for _, c := range conns {
		g.send(ctx, c, f)
	}
}

func (g *Gateway) send(ctx context.Context, conn *ws.Conn, f gatewayFrame) {
	b, err := json.Marshal(f)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	_ = conn.Write(wctx, ws.MessageText, b)
	cancel()
}

// Participants reports how many connections a channel currently has.
func (g *Gateway) Participants(channel string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms[channel])
}
