// Package push handles device-token registration and routing of incoming
// push payloads to the right handler.
package push

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/livetypes"
)

var ErrUnknownPayload = errors.New("push: unknown payload type")

// Registrar is the slice of the backend client that records device tokens.
type Registrar interface {
	RegisterDeviceToken(ctx context.Context, token, platform string) error
}

// Register announces this device's push token to the backend.
func Register(ctx context.Context, r Registrar, token, platform string) error {
	if err := r.RegisterDeviceToken(ctx, token, platform); err != nil {
		return err
	}
	log.Info().Str("module", "push").Str("platform", platform).Msg("device token registered")
	return nil
}

// Router dispatches decoded push payloads. Unset handlers drop their
// payload type.
type Router struct {
	OnIncomingCall func(livetypes.IncomingCall)
}

// Route decodes one notification data payload (string-keyed, as delivered
// by the push transport) and invokes the matching handler.
func (r *Router) Route(data map[string]string) error {
	switch data["type"] {
	case "incoming_call":
		call, err := ParseIncomingCall(data)
		if err != nil {
			return err
		}
		if r.OnIncomingCall != nil {
			r.OnIncomingCall(call)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPayload, data["type"])
	}
}

// ParseIncomingCall extracts the call-answering payload.
func ParseIncomingCall(data map[string]string) (livetypes.IncomingCall, error) {
	callerID, err := strconv.ParseInt(data["caller_id"], 10, 64)
	if err != nil {
		return livetypes.IncomingCall{}, fmt.Errorf("push: bad caller_id %q", data["caller_id"])
	}
	if data["call_id"] == "" {
		return livetypes.IncomingCall{}, errors.New("push: missing call_id")
	}
	if data["channel_name"] == "" {
		return livetypes.IncomingCall{}, errors.New("push: missing channel_name")
	}
	return livetypes.IncomingCall{
		CallerID:   callerID,
		CallID:     data["call_id"],
		CallType:   data["call_type"],
		CallerName: data["caller_name"],
		Channel:    data["channel_name"],
	}, nil
}
