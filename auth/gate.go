package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/adeilh/go-empdir/httpx"
)

var ErrGateMissingTracker = errors.New("auth: gate requires a continuity tracker")

// Context keys for request-scoped values attached by the gate.
const (
	contextKeyRefreshedToken = "auth.refreshed_token"
	contextKeyPayload        = "auth.payload"
)

// GateSkipper decides which requests bypass the gate entirely.
type GateSkipper func(*http.Request) bool

// GateConfig wires the dependencies for the request gate.
type GateConfig struct {
	Tracker *ContinuityTracker
	Skipper GateSkipper
	Logger  *slog.Logger
}

// Browsers probe for a favicon regardless of authentication state; gating it
// just produces a stray redirect.
func defaultGateSkipper(r *http.Request) bool {
	return r.URL.Path == "/favicon.ico"
}

// RequestGate returns the middleware that authorizes every inbound request.
// A supplied-but-broken token short-circuits to a 401 JSON body; otherwise
// the redirect/response policy decides between passing through, bouncing an
// authenticated caller off the login surface, and redirecting an
// unauthenticated caller to it with the redirect context attached as
// short-lived cookies. On pass-through the refreshed token is parked in
// request scope and appended to the response header and client-readable
// cookie once the wrapped handler has run.
func RequestGate(cfg GateConfig) (echo.MiddlewareFunc, error) {
	if cfg.Tracker == nil {
		return nil, ErrGateMissingTracker
	}
	skipper := cfg.Skipper
	if skipper == nil {
		skipper = defaultGateSkipper
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if skipper(r) {
				return next(c)
			}

			verdict := cfg.Tracker.Evaluate(r.Context(), r)
			action := Decide(verdict, CategorizeRoute(r.URL.Path))

			switch action.Kind {
			case ActionUnauthorized:
				logger.Warn("rejected token",
					"path", r.URL.Path,
					"error", action.TokenErr,
				)
				// Clear any stale redirect context so it cannot leak into an
				// unrelated future request from the same client.
				c.SetCookie(RemoveLoginRedirectCookie(r))
				c.SetCookie(RemoveOriginalContentTypeCookie(r))
				return c.JSON(http.StatusUnauthorized,
					httpx.NewApiStatus(http.StatusUnauthorized, action.Message))

			case ActionRedirectHome:
				c.SetCookie(BuildOriginalContentTypeCookie(r, r.Header.Get(echo.HeaderContentType)))
				return c.Redirect(http.StatusSeeOther, action.Location)

			case ActionRedirectLogin:
				c.SetCookie(BuildOriginalContentTypeCookie(r, r.Header.Get(echo.HeaderContentType)))
				c.SetCookie(BuildLoginRedirectCookie(r, action.Reason))
				return c.Redirect(http.StatusSeeOther, action.Location)
			}

			if verdict.Authenticated() {
				c.Set(contextKeyRefreshedToken, verdict.RefreshedToken)
				c.Set(contextKeyPayload, verdict.Payload)

				// Decoration runs right before the response is first
				// written, after the wrapped handler has produced it.
				bearer := BearerToken(verdict.RefreshedToken)
				c.Response().Before(func() {
					c.Response().Header().Set("Authorization", bearer)
					c.SetCookie(BuildAuthorizationCookie(r, bearer))
				})
			}
			return next(c)
		}
	}, nil
}

// RefreshedTokenFromContext returns the replacement token the gate minted
// for this request, without the scheme marker.
func RefreshedTokenFromContext(c echo.Context) (string, bool) {
	token, ok := c.Get(contextKeyRefreshedToken).(string)
	return token, ok && token != ""
}

// PayloadFromContext returns the verified token payload for this request.
func PayloadFromContext(c echo.Context) (TokenPayload, bool) {
	payload, ok := c.Get(contextKeyPayload).(TokenPayload)
	return payload, ok
}
