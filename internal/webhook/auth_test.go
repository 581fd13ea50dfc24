package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestVerifyToken_AcceptedHeaderVariants(t *testing.T) {
	a := NewAuthenticator("secret-token", "", zap.NewNop())

	for _, name := range []string{"X-Callback-Token", "X-Callbacktoken", "Callback-Token", "x-callback-token"} {
		t.Run(name, func(t *testing.T) {
			h := http.Header{}
			h.Set(name, "secret-token")
			assert.NoError(t, a.VerifyToken(h))
		})
	}
}

func TestVerifyToken_Rejections(t *testing.T) {
	a := NewAuthenticator("secret-token", "", zap.NewNop())

	t.Run("missing token", func(t *testing.T) {
		err := a.VerifyToken(http.Header{})
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong token", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-Callback-Token", "wrong")
		err := a.VerifyToken(h)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token in unrelated header", func(t *testing.T) {
		h := http.Header{}
		h.Set("Authorization", "secret-token")
		err := a.VerifyToken(h)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"id":"inv_1","status":"PAID"}`)

	t.Run("valid signature", func(t *testing.T) {
		a := NewAuthenticator("tok", "sig-secret", zap.NewNop())
		h := http.Header{}
		h.Set(SignatureHeader, sign("sig-secret", body))
		assert.NoError(t, a.VerifySignature(h, body))
	})

	t.Run("tampered body", func(t *testing.T) {
		a := NewAuthenticator("tok", "sig-secret", zap.NewNop())
		h := http.Header{}
		h.Set(SignatureHeader, sign("sig-secret", body))
		err := a.VerifySignature(h, []byte(`{"id":"inv_1","status":"EXPIRED"}`))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		a := NewAuthenticator("tok", "sig-secret", zap.NewNop())
		h := http.Header{}
		h.Set(SignatureHeader, sign("other-secret", body))
		err := a.VerifySignature(h, body)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("no secret configured skips verification", func(t *testing.T) {
		a := NewAuthenticator("tok", "", zap.NewNop())
		h := http.Header{}
		h.Set(SignatureHeader, "garbage")
		assert.NoError(t, a.VerifySignature(h, body))
	})

	t.Run("secret configured but header absent", func(t *testing.T) {
		a := NewAuthenticator("tok", "sig-secret", zap.NewNop())
		assert.NoError(t, a.VerifySignature(http.Header{}, body))
	})
}

func TestToken(t *testing.T) {
	h := http.Header{}
	h.Set("Callback-Token", "fallback")
	h.Set("X-Callback-Token", "primary")
	assert.Equal(t, "primary", Token(h))

	assert.Equal(t, "", Token(http.Header{}))
}
