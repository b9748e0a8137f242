package qrtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const version = "v1"

// Payload is the check-in context embedded in a session QR code.
type Payload struct {
	SessionID string
	Date      string // YYYY-MM-DD, the calendar date the code was issued for
}

// Signer creates and validates signed check-in tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner constructs a signer with the provided secret and TTL.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate returns a compact signed token carrying the payload.
func (s *Signer) Generate(p Payload) (string, error) {
	if p.SessionID == "" || p.Date == "" {
		return "", fmt.Errorf("session id and date required")
	}
	if len(s.secret) == 0 {
		return "", fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedSession := base64.RawURLEncoding.EncodeToString([]byte(p.SessionID))
	encodedDate := base64.RawURLEncoding.EncodeToString([]byte(p.Date))
	body := strings.Join([]string{version, encodedSession, encodedDate, fmt.Sprintf("%d", expiresAt.Unix())}, ".")
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(body))
	signature := hex.EncodeToString(mac.Sum(nil))
	return body + "." + signature, nil
}

// Parse validates a token and returns the embedded payload.
func (s *Signer) Parse(token string) (Payload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 5 {
		return Payload{}, fmt.Errorf("invalid token format")
	}
	if parts[0] != version {
		return Payload{}, fmt.Errorf("unsupported token version %q", parts[0])
	}

	body := strings.Join(parts[:4], ".")
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(body))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(parts[4])) {
		return Payload{}, fmt.Errorf("invalid token signature")
	}

	rawSession, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Payload{}, fmt.Errorf("decode session id: %w", err)
	}
	rawDate, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return Payload{}, fmt.Errorf("decode date: %w", err)
	}

	var expUnix int64
	if _, err := fmt.Sscanf(parts[3], "%d", &expUnix); err != nil {
		return Payload{}, fmt.Errorf("invalid timestamp")
	}
	if time.Now().After(time.Unix(expUnix, 0)) {
		return Payload{}, fmt.Errorf("token expired")
	}

	return Payload{SessionID: string(rawSession), Date: string(rawDate)}, nil
}
