package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTokenInvalid         = errors.New("auth: invalid token")
	ErrTokenExpired         = errors.New("auth: token expired")
	ErrTokenOther           = errors.New("auth: token error")
	ErrTokenMissingSecret   = errors.New("auth: missing signing secret")
	ErrTokenInvalidValidity = errors.New("auth: non-positive validity window")
)

// BearerScheme is the literal marker prepended to every token before it
// travels in the Authorization header or the same-named cookie.
const BearerScheme = "Bearer."

// TokenPayload is the set of claims embedded inside a signed access token.
// IssuedAt is fixed at login and never changes for the life of a SessionID;
// ExpiresAt and LastActive move forward together on every reissue.
type TokenPayload struct {
	Email      string `json:"email"`
	SessionID  string `json:"session_id"`
	IssuedAt   int64  `json:"iat"`
	ExpiresAt  int64  `json:"exp"`
	LastActive int64  `json:"last_active"`
}

type tokenHeader struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ"`
}

// TokenCodec issues and verifies HMAC-SHA256 signed tokens. Tokens are fully
// self-contained; the codec holds no per-session state beyond the secret.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec builds a codec signing with the given secret.
func NewTokenCodec(secret []byte) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, ErrTokenMissingSecret
	}
	return &TokenCodec{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}, nil
}

// SetNowFunc allows injecting a deterministic clock (useful for tests).
func (c *TokenCodec) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		fn = time.Now
	}
	c.now = fn
}

// Issue creates a token for a freshly authenticated principal: new session
// id, iat = exp anchor = now, exp = now + validFor.
func (c *TokenCodec) Issue(email string, validFor time.Duration) (string, TokenPayload, error) {
	if validFor <= 0 {
		return "", TokenPayload{}, ErrTokenInvalidValidity
	}
	now := c.now().Unix()
	payload := TokenPayload{
		Email:      email,
		SessionID:  uuid.NewString(),
		IssuedAt:   now,
		ExpiresAt:  now + int64(validFor/time.Second),
		LastActive: now,
	}
	raw, err := c.encode(payload)
	return raw, payload, err
}

// Reissue mints a replacement token preserving the email, session id, and
// original issue time, sliding the expiry window forward from now.
func (c *TokenCodec) Reissue(payload TokenPayload, validFor time.Duration) (string, TokenPayload, error) {
	if validFor <= 0 {
		return "", TokenPayload{}, ErrTokenInvalidValidity
	}
	now := c.now().Unix()
	payload.ExpiresAt = now + int64(validFor/time.Second)
	payload.LastActive = now
	raw, err := c.encode(payload)
	return raw, payload, err
}

// Verify checks the signature and, when checkExpiry is set, the expiry
// claim. Failures map to exactly one of three sentinels: ErrTokenInvalid for
// a malformed token or signature mismatch, ErrTokenExpired for a correctly
// signed token past its expiry, ErrTokenOther for anything else.
func (c *TokenCodec) Verify(raw string, checkExpiry bool) (TokenPayload, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return TokenPayload{}, ErrTokenInvalid
	}

	// Strict decoding rejects non-canonical trailing bits; without it a
	// flipped final character could still decode to the same signature.
	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[2])
	if err != nil {
		return TokenPayload{}, ErrTokenInvalid
	}
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(parts[0] + "." + parts[1]))
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return TokenPayload{}, ErrTokenInvalid
	}

	// Signature is good from here on; decode problems are "other" errors.
	headerJSON, err := base64.RawURLEncoding.Strict().DecodeString(parts[0])
	if err != nil {
		return TokenPayload{}, ErrTokenOther
	}
	var header tokenHeader
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return TokenPayload{}, ErrTokenOther
	}
	if header.Algorithm != "HS256" {
		return TokenPayload{}, ErrTokenOther
	}

	payloadJSON, err := base64.RawURLEncoding.Strict().DecodeString(parts[1])
	if err != nil {
		return TokenPayload{}, ErrTokenOther
	}
	var payload TokenPayload
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return TokenPayload{}, ErrTokenOther
	}

	if checkExpiry && c.now().Unix() > payload.ExpiresAt {
		return TokenPayload{}, ErrTokenExpired
	}

	return payload, nil
}

func (c *TokenCodec) encode(payload TokenPayload) (string, error) {
	headerSeg, err := encodeSegment(tokenHeader{Algorithm: "HS256", Type: "JWT"})
	if err != nil {
		return "", err
	}
	payloadSeg, err := encodeSegment(payload)
	if err != nil {
		return "", err
	}

	signingInput := headerSeg + "." + payloadSeg
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(signingInput))
	return signingInput + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}

func encodeSegment(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// BearerToken prepends the scheme marker for transport.
func BearerToken(raw string) string {
	return BearerScheme + raw
}

// StripBearer removes the scheme marker when present; tokens submitted bare
// pass through unchanged.
func StripBearer(token string) string {
	return strings.TrimPrefix(token, BearerScheme)
}

// TokenErrorMessage maps a verification failure to its client-facing text.
func TokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return TokenExpiredMsg
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalidMsg
	default:
		return TokenOtherErrMsg
	}
}
