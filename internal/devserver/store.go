package devserver

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/livetypes"
)

var (
	ErrStreamNotFound = errors.New("stream not found")
	ErrCallNotFound   = errors.New("call not found")
)

// Store holds the devserver's in-memory world: streams, chat history, calls
// and device tokens.
type Store struct {
	mu      sync.RWMutex
	streams map[string]livetypes.StreamSummary
	order   []string
	chats   map[string][]livetypes.ChatMessage
	calls   map[string]*livetypes.CallInfo
	devices map[int64]string
	users   map[string]int64
	nextUID int64
}

func NewStore() *Store {
	return &Store{
		streams: make(map[string]livetypes.StreamSummary),
		chats:   make(map[string][]livetypes.ChatMessage),
		calls:   make(map[string]*livetypes.CallInfo),
		devices: make(map[int64]string),
		users:   make(map[string]int64),
		nextUID: 1000,
	}
}

// UserID returns a stable numeric id for a username, allocating on first use.
func (s *Store) UserID(username string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.users[username]; ok {
		return id
	}
	s.nextUID++
	s.users[username] = s.nextUID
	return s.nextUID
}

func (s *Store) CreateStream(title, channel string, host livetypes.User) livetypes.StreamSummary {
	st := livetypes.StreamSummary{
		ID:      uuid.New().String(),
		Title:   title,
		Channel: channel,
		Host:    host,
	}
	s.mu.Lock()
	s.streams[st.ID] = st
	s.order = append(s.order, st.ID)
	s.chats[st.ID] = []livetypes.ChatMessage{}
	s.mu.Unlock()
	return st
}

func (s *Store) GetStream(id string) (livetypes.StreamSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.streams[id]
	return st, ok
}

func (s *Store) ListStreams() []livetypes.StreamSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]livetypes.StreamSummary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.streams[id])
	}
	return out
}

func (s *Store) AppendChat(streamID string, senderID int64, in livetypes.ChatSend) (livetypes.ChatMessage, error) {
	msg := livetypes.ChatMessage{
		ID:        uuid.New().String(),
		StreamID:  streamID,
		SenderID:  senderID,
		Type:      in.Type,
		Body:      in.Message,
		Amount:    in.Amount,
		CreatedAt: time.Now().UTC(),
	}
	if msg.Type == "" {
		msg.Type = "message"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.streams[streamID]; !ok {
		return livetypes.ChatMessage{}, ErrStreamNotFound
	}
	s.chats[streamID] = append(s.chats[streamID], msg)
	return msg, nil
}

func (s *Store) ListChats(streamID string) ([]livetypes.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.streams[streamID]; !ok {
		return nil, ErrStreamNotFound
	}
	src := s.chats[streamID]
	out := make([]livetypes.ChatMessage, len(src))
	copy(out, src)
	return out, nil
}

func (s *Store) StartCall(callerID, receiverID int64, channel, callType string) livetypes.CallInfo {
	info := livetypes.CallInfo{
		ID:        uuid.New().String(),
		CallerID:  callerID,
		Receiver:  receiverID,
		Channel:   channel,
		Type:      callType,
		StartedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.calls[channel] = &info
	s.mu.Unlock()
	return info
}

func (s *Store) EndCall(channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.calls[channel]
	if !ok {
		return ErrCallNotFound
	}
	if call.EndedAt == nil {
		now := time.Now().UTC()
		call.EndedAt = &now
	}
	return nil
}

func (s *Store) SetDeviceToken(userID int64, token string) {
	s.mu.Lock()
	s.devices[userID] = token
	s.mu.Unlock()
}
