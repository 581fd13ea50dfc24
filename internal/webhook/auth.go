package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"go.uber.org/zap"

	"github.com/paywatch/subscription-service/pkg/errors"
)

// Authentication failures surfaced to the webhook endpoint.
var (
	ErrInvalidToken     = errors.NewAppError(errors.ErrUnauthenticated, "Invalid token", nil)
	ErrInvalidSignature = errors.NewAppError(errors.ErrUnauthenticated, "Invalid signature", nil)
)

// tokenHeaders are the header names the gateway has been observed using for
// the callback token across integration versions. http.Header.Get is
// case-insensitive, so these cover the case variants too.
var tokenHeaders = []string{
	"X-Callback-Token",
	"X-Callbacktoken",
	"Callback-Token",
}

// SignatureHeader carries the optional hex-encoded HMAC-SHA256 of the raw
// request body.
const SignatureHeader = "X-Callback-Signature"

// Authenticator validates webhook deliveries against the shared callback
// token and, when configured, an HMAC body signature.
type Authenticator struct {
	callbackToken   string
	signatureSecret string
	logger          *zap.Logger
}

func NewAuthenticator(callbackToken, signatureSecret string, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		callbackToken:   callbackToken,
		signatureSecret: signatureSecret,
		logger:          logger,
	}
}

// Token returns the callback token from the first accepted header variant
// that carries one.
func Token(header http.Header) string {
	for _, name := range tokenHeaders {
		if token := header.Get(name); token != "" {
			return token
		}
	}
	return ""
}

// VerifyToken checks the callback token. This check fails closed: a missing
// or mismatched token rejects the delivery.
func (a *Authenticator) VerifyToken(header http.Header) error {
	token := Token(header)
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.callbackToken)) != 1 {
		a.logger.Warn("invalid webhook token received",
			zap.Int("token_length", len(token)))
		return ErrInvalidToken
	}
	return nil
}

// VerifySignature checks the HMAC-SHA256 body signature when a signature
// secret is configured and the delivery carries one. Unlike the token
// check, signature verification fails open when no secret is configured;
// that is a deliberate policy, logged so it is visible in production.
func (a *Authenticator) VerifySignature(header http.Header, body []byte) error {
	if a.signatureSecret == "" {
		a.logger.Warn("webhook signature secret not configured, skipping signature verification")
		return nil
	}

	signature := header.Get(SignatureHeader)
	if signature == "" {
		return nil
	}

	mac := hmac.New(sha256.New, []byte(a.signatureSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		a.logger.Warn("invalid webhook signature received")
		return ErrInvalidSignature
	}
	return nil
}
