package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func newTestVerifier(secret string) *Verifier {
	return NewVerifier(secret, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestVerifier_Verify(t *testing.T) {
	const secret = "my-secret-key"
	body := []byte(`{"action":"opened","number":7}`)
	valid := sign(secret, body)

	mutatedBody := append([]byte{}, body...)
	mutatedBody[2] ^= 0x01

	mutatedSig := []byte(valid)
	last := len(mutatedSig) - 1
	if mutatedSig[last] == 'a' {
		mutatedSig[last] = 'b'
	} else {
		mutatedSig[last] = 'a'
	}

	tests := []struct {
		name      string
		body      []byte
		signature string
		want      bool
	}{
		{"valid signature", body, valid, true},
		{"mutated body", mutatedBody, valid, false},
		{"mutated signature", body, string(mutatedSig), false},
		{"absent signature", body, "", false},
		{"missing algorithm prefix", body, valid[len("sha256="):], false},
		{"wrong algorithm", body, "sha1=" + valid[len("sha256="):], false},
		{"not hex", body, "sha256=zzzz", false},
		{"signed with other secret", body, sign("other", body), false},
	}

	v := newTestVerifier(secret)
	assert.False(t, v.OpenMode())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Verify(tt.body, tt.signature))
		})
	}
}

func TestVerifier_OpenModeAcceptsEverything(t *testing.T) {
	v := newTestVerifier("")

	assert.True(t, v.OpenMode())
	assert.True(t, v.Verify([]byte("anything"), ""))
	assert.True(t, v.Verify([]byte("anything"), "sha256=garbage"))
}
