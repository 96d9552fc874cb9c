package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

var ErrTrackerMissingCodec = errors.New("auth: tracker requires a token codec")

// SessionState is the terminal state reached for one request.
type SessionState int

const (
	// StateNoToken: no candidate token anywhere on the request. Not an
	// error; the caller simply never logged in.
	StateNoToken SessionState = iota
	// StateTokenInvalid: a token was supplied but is malformed, carries a
	// bad signature, or failed to decode.
	StateTokenInvalid
	// StateTokenExpired: a correctly signed token past its expiry.
	StateTokenExpired
	// StateTokenValid: signature and expiry both check out.
	StateTokenValid
)

// Verdict is the tracker's output for one request.
type Verdict struct {
	State SessionState
	// Payload of the verified token; meaningful only in StateTokenValid.
	Payload TokenPayload
	// RefreshedToken is the replacement token minted on a valid request
	// (sliding expiration), without the scheme marker.
	RefreshedToken string
	// TokenErr and Message are set when a supplied token failed
	// verification; absent for StateNoToken.
	TokenErr error
	Message  string
}

// Authenticated reports whether the request carries a live session.
func (v Verdict) Authenticated() bool { return v.State == StateTokenValid }

// ContinuityConfig wires the dependencies for ContinuityTracker.
type ContinuityConfig struct {
	Codec      *TokenCodec
	Identities *IdentityStore
	Validity   time.Duration
	Logger     *slog.Logger
}

// ContinuityTracker decides, per request, whether the caller is
// authenticated, and extends the session window when they are. The candidate
// token comes from the Authorization header first, then from the
// identity-store channel addressed by the identity cookie.
type ContinuityTracker struct {
	codec      *TokenCodec
	identities *IdentityStore
	validity   time.Duration
	logger     *slog.Logger
}

// NewContinuityTracker builds a tracker.
func NewContinuityTracker(cfg ContinuityConfig) (*ContinuityTracker, error) {
	if cfg.Codec == nil {
		return nil, ErrTrackerMissingCodec
	}
	validity := cfg.Validity
	if validity <= 0 {
		validity = 30 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ContinuityTracker{
		codec:      cfg.Codec,
		identities: cfg.Identities,
		validity:   validity,
		logger:     logger,
	}, nil
}

// Evaluate runs the per-request state machine and, on a valid token,
// immediately reissues it and propagates the replacement to the identity
// channel. The refreshed token also rides on the returned verdict for the
// response layer to pick up.
func (t *ContinuityTracker) Evaluate(ctx context.Context, r *http.Request) Verdict {
	raw, found := t.extractToken(ctx, r)
	if !found {
		return Verdict{State: StateNoToken}
	}

	payload, err := t.codec.Verify(StripBearer(raw), true)
	if err != nil {
		return Verdict{
			State:    stateForTokenError(err),
			TokenErr: err,
			Message:  TokenErrorMessage(err),
		}
	}

	refreshed, updated, err := t.codec.Reissue(payload, t.validity)
	if err != nil {
		// Reissue failing on a just-verified payload means the tracker is
		// misconfigured; treat the request as carrying a broken token.
		return Verdict{State: StateTokenInvalid, TokenErr: ErrTokenOther, Message: TokenOtherErrMsg}
	}

	t.propagate(ctx, r, refreshed)

	return Verdict{State: StateTokenValid, Payload: updated, RefreshedToken: refreshed}
}

// extractToken returns the candidate token: Authorization header first, then
// the identity channel.
func (t *ContinuityTracker) extractToken(ctx context.Context, r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		return header, true
	}

	if t.identities == nil {
		return "", false
	}
	cookie, err := r.Cookie(IdentityCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	token, err := t.identities.Load(ctx, cookie.Value)
	if err != nil {
		return "", false
	}
	return token, true
}

// propagate writes the refreshed token back to the identity channel for the
// caller's identity key, when one is present. A write failure never fails
// the request; the header/cookie path still delivers the new token.
func (t *ContinuityTracker) propagate(ctx context.Context, r *http.Request, token string) {
	if t.identities == nil {
		return
	}
	cookie, err := r.Cookie(IdentityCookieName)
	if err != nil || cookie.Value == "" {
		return
	}
	if err := t.identities.Save(ctx, cookie.Value, BearerToken(token), t.validity); err != nil {
		t.logger.Warn("identity store refresh failed", "error", err)
	}
}

func stateForTokenError(err error) SessionState {
	if errors.Is(err, ErrTokenExpired) {
		return StateTokenExpired
	}
	return StateTokenInvalid
}
