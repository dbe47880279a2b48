package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/credstore"
	"github.com/CodeCraftersgcuf/gympadday-live/internal/liveerr"
	"github.com/CodeCraftersgcuf/gympadday-live/internal/livetypes"
)

// Client wraps the GymPadday REST backend. Every call is bearer-authenticated
// with the credential read from the injected store; a missing or expired
// credential surfaces as *liveerr.AuthError before any request is made.
type Client struct {
	http  *http.Client
	creds credstore.Store
	base  string
	now   func() time.Time
}

func NewClient(baseURL string, creds credstore.Store) *Client {
	return &Client{
		http:  &http.Client{},
		creds: creds,
		base:  baseURL,
		now:   time.Now,
	}
}

// VideoCallToken fetches a channel-bound session credential. Implements the
// token provider contract used by the session coordinator.
func (c *Client) VideoCallToken(ctx context.Context, channel string, uid int64) (livetypes.Credential, error) {
	q := url.Values{}
	q.Set("channel", channel)
	q.Set("uid", fmt.Sprint(uid))
	var parsed struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/video-call/token?"+q.Encode(), nil, &parsed); err != nil {
		return livetypes.Credential{}, err
	}
	if parsed.Token == "" {
		return livetypes.Credential{}, &liveerr.ServerError{Status: http.StatusOK, Message: "empty token"}
	}
	return livetypes.Credential{Token: parsed.Token, Channel: channel, UID: uid}, nil
}

func (c *Client) StartCall(ctx context.Context, receiverID int64, channel, callType string) (livetypes.CallInfo, error) {
	body := map[string]any{
		"receiver_id":  receiverID,
		"channel_name": channel,
		"type":         callType,
	}
	var info livetypes.CallInfo
	if err := c.doJSON(ctx, http.MethodPost, "/start-call", body, &info); err != nil {
		return livetypes.CallInfo{}, err
	}
	return info, nil
}

func (c *Client) EndCall(ctx context.Context, channel string) error {
	return c.doJSON(ctx, http.MethodPost, "/end-daily-call", map[string]any{"channel_name": channel}, nil)
}

func (c *Client) LiveStreams(ctx context.Context) ([]livetypes.StreamSummary, error) {
	var out []livetypes.StreamSummary
	if err := c.doJSON(ctx, http.MethodGet, "/live-streams", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateLiveStream(ctx context.Context, title, channel string) (livetypes.StreamSummary, error) {
	body := map[string]any{"title": title, "agora_channel": channel}
	var out livetypes.StreamSummary
	if err := c.doJSON(ctx, http.MethodPost, "/live-streams", body, &out); err != nil {
		return livetypes.StreamSummary{}, err
	}
	return out, nil
}

func (c *Client) JoinLiveStream(ctx context.Context, streamID string) error {
	return c.doJSON(ctx, http.MethodPost, "/live-streams/"+url.PathEscape(streamID)+"/join", nil, nil)
}

func (c *Client) FetchChats(ctx context.Context, streamID string) ([]livetypes.ChatMessage, error) {
	var parsed struct {
		Data []livetypes.ChatMessage `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/live-streams/"+url.PathEscape(streamID)+"/chats", nil, &parsed); err != nil {
		return nil, err
	}
	return parsed.Data, nil
}

func (c *Client) SendChat(ctx context.Context, streamID string, msg livetypes.ChatSend) error {
	return c.doJSON(ctx, http.MethodPost, "/live-streams/"+url.PathEscape(streamID)+"/chats", msg, nil)
}

func (c *Client) RegisterDeviceToken(ctx context.Context, token, platform string) error {
	body := map[string]any{"token": token, "platform": platform}
	return c.doJSON(ctx, http.MethodPost, "/device-token", body, nil)
}

// doJSON runs one authenticated request and decodes the JSON response into
// out when out is non-nil. A missing local credential maps to AuthError
// before any request is made, transport failures to NetworkError, 401 to
// AuthError, and other non-2xx to ServerError carrying the backend message.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	tok, err := c.creds.Get()
	if err != nil {
		if errors.Is(err, credstore.ErrNoCredential) {
			return &liveerr.AuthError{Reason: "no stored credential"}
		}
		return &liveerr.AuthError{Reason: err.Error()}
	}
	if credstore.Expired(tok, c.now()) {
		return &liveerr.AuthError{Reason: "stored credential expired"}
	}

	var rdr io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
		rdr = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &liveerr.NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &liveerr.AuthError{Reason: "backend rejected credential"}
	}
	if resp.StatusCode/100 != 2 {
		return &liveerr.ServerError{Status: resp.StatusCode, Message: serverMessage(resp.Body)}
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// serverMessage pulls the human-readable message from an error body, trying
// the shapes the backend is known to emit.
func serverMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(b, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return string(bytes.TrimSpace(b))
}
