package livetypes

import "time"

// Credential authorizes one identity to join one channel. It is short-lived
// and must never be reused for a different channel.
type Credential struct {
	Token   string `json:"token"`
	Channel string `json:"channel"`
	UID     int64  `json:"uid"`
}

// ChatMessage is one chat or gift entry in a live session. Immutable once
// received; deduplicated by ID across poll cycles.
type ChatMessage struct {
	ID        string    `json:"id"`
	StreamID  string    `json:"stream_id"`
	SenderID  int64     `json:"sender_id"`
	Type      string    `json:"type"` // "message" | "gift"
	Body      string    `json:"message"`
	Amount    int       `json:"amount,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSend is the outgoing body for posting a chat or gift message.
type ChatSend struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Amount  int    `json:"amount,omitempty"`
}

// StreamSummary is one entry of the live-stream list.
type StreamSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Channel string `json:"agora_channel"`
	Host    User   `json:"user"`
}

type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CallInfo is the metadata returned when a call is started.
type CallInfo struct {
	ID        string    `json:"id"`
	CallerID  int64     `json:"caller_id"`
	Receiver  int64     `json:"receiver_id"`
	Channel   string    `json:"channel_name"`
	Type      string    `json:"type"` // "audio" | "video"
	StartedAt time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// IncomingCall is the push-notification payload routed to the answer screen.
type IncomingCall struct {
	CallerID   int64  `json:"caller_id"`
	CallID     string `json:"call_id"`
	CallType   string `json:"call_type"`
	CallerName string `json:"caller_name"`
	Channel    string `json:"channel_name"`
}
