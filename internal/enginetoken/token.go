package enginetoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenFormat  = errors.New("invalid channel token format")
	ErrTokenSig     = errors.New("invalid channel token signature")
	ErrTokenExp     = errors.New("channel token expired")
	ErrTokenChannel = errors.New("channel token bound to a different channel")
)

// Mint builds a channel token for one identity and expiry.
// Format: base64url(channel + "." + uid + "." + exp_unix + "." + hex(hmac_sha256(secret, channel+"."+uid+"."+exp)))
func Mint(secret, channel string, uid, expUnix int64) string {
	msg := channel + "." + strconv.FormatInt(uid, 10) + "." + strconv.FormatInt(expUnix, 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	sig := hex.EncodeToString(mac.Sum(nil))
	return base64.RawURLEncoding.EncodeToString([]byte(msg + "." + sig))
}

// Validate parses and validates a channel token. Returns the embedded uid
// and expiry. expectChannel, when non-empty, must match the bound channel.
func Validate(secret, token, expectChannel string, now time.Time) (int64, int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, 0, ErrTokenFormat
	}
	parts := strings.Split(string(b), ".")
	if len(parts) != 4 {
		return 0, 0, ErrTokenFormat
	}
	channel, uidStr, expStr, sigHex := parts[0], parts[1], parts[2], parts[3]
	uid, err := strconv.ParseInt(uidStr, 10, 64)
	if err != nil {
		return 0, 0, ErrTokenFormat
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return 0, 0, ErrTokenFormat
	}
	if expectChannel != "" && channel != expectChannel {
		return 0, 0, ErrTokenChannel
	}
	msg := channel + "." + uidStr + "." + expStr
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	want := mac.Sum(nil)
	got, err := hex.DecodeString(sigHex)
	if err != nil {
		return 0, 0, ErrTokenFormat
	}
	// constant-time compare
	if !hmac.Equal(want, got) {
		return 0, 0, ErrTokenSig
	}
	if now.Unix() > exp {
		return 0, 0, ErrTokenExp
	}
	return uid, exp, nil
}
