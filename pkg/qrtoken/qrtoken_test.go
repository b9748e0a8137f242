package qrtoken

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	signer := NewSigner("secret", time.Hour)

	token, err := signer.Generate(Payload{SessionID: "sess-1", Date: "2026-03-14"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v1."))

	payload, err := signer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", payload.SessionID)
	assert.Equal(t, "2026-03-14", payload.Date)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	signer := NewSigner("secret", time.Hour)

	token, err := signer.Generate(Payload{SessionID: "sess-1", Date: "2026-03-14"})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[1] = parts[1] + "x"
	_, err = signer.Parse(strings.Join(parts, "."))
	assert.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewSigner("secret-a", time.Hour).Generate(Payload{SessionID: "sess-1", Date: "2026-03-14"})
	require.NoError(t, err)

	_, err = NewSigner("secret-b", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	signer := NewSigner("secret", time.Nanosecond)

	token, err := signer.Generate(Payload{SessionID: "sess-1", Date: "2026-03-14"})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = signer.Parse(token)
	assert.ErrorContains(t, err, "expired")
}

func TestParseRejectsGarbage(t *testing.T) {
	signer := NewSigner("secret", time.Hour)

	for _, raw := range []string{"", "v1", "not.a.token", "v2.a.b.0.sig"} {
		_, err := signer.Parse(raw)
		assert.Error(t, err, raw)
	}
}
