package push

import (
	"errors"
	"testing"

	"github.com/CodeCraftersgcuf/gympadday-live/internal/livetypes"
)

func TestParseIncomingCall(t *testing.T) {
	call, err := ParseIncomingCall(map[string]string{
		"caller_id":    "42",
		"call_id":      "c-1",
		"call_type":    "video",
		"caller_name":  "sam",
		"channel_name": "call-abc",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if call.CallerID != 42 || call.CallID != "c-1" || call.CallType != "video" || call.CallerName != "sam" {
		t.Fatalf("unexpected payload: %+v", call)
	}
	if call.Channel != "call-abc" {
		t.Fatalf("expected channel call-abc, got %q", call.Channel)
	}
}

func TestParseIncomingCallRejectsBadPayload(t *testing.T) {
	if _, err := ParseIncomingCall(map[string]string{"caller_id": "nope", "call_id": "c", "channel_name": "ch"}); err == nil {
		t.Fatalf("expected error for non-numeric caller_id")
	}
	if _, err := ParseIncomingCall(map[string]string{"caller_id": "42", "channel_name": "ch"}); err == nil {
		t.Fatalf("expected error for missing call_id")
	}
	if _, err := ParseIncomingCall(map[string]string{"caller_id": "42", "call_id": "c"}); err == nil {
		t.Fatalf("expected error for missing channel_name")
	}
}

func TestRouterDispatchesIncomingCall(t *testing.T) {
	var got livetypes.IncomingCall
	r := &Router{}
	r.OnIncomingCall = func(c livetypes.IncomingCall) { got = c }

	err := r.Route(map[string]string{
		"type":         "incoming_call",
		"caller_id":    "1",
		"call_id":      "c-9",
		"channel_name": "call-9",
	})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if got.CallID != "c-9" || got.Channel != "call-9" {
		t.Fatalf("handler not invoked with payload, got %+v", got)
	}
}

func TestRouterRejectsUnknownType(t *testing.T) {
	r := &Router{}
	err := r.Route(map[string]string{"type": "marketing_blast"})
	if !errors.Is(err, ErrUnknownPayload) {
		t.Fatalf("expected ErrUnknownPayload, got %v", err)
	}
}
