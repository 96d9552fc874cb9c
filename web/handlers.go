package web

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adeilh/go-empdir/auth"
	"github.com/adeilh/go-empdir/httpx"
)

// formContentType is what a missing or blank original content type defaults
// to when rendering redirect outcomes.
const formContentType = echo.MIMEApplicationForm

// LoginSuccessData is the data section of a successful JSON login response.
type LoginSuccessData struct {
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginSuccessResponse is the JSON envelope returned to programmatic clients
// on successful login. ApiStatus fields flatten into the top level.
type LoginSuccessResponse struct {
	httpx.ApiStatus
	Data LoginSuccessData `json:"data"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// AuthHandlers serves the login page, login submission, logout, and the home
// page.
type AuthHandlers struct {
	verifier   *auth.CredentialVerifier
	codec      *auth.TokenCodec
	identities *auth.IdentityStore
	renderer   *Renderer
	validity   time.Duration
	logger     *slog.Logger
}

// AuthHandlersConfig wires the collaborators for AuthHandlers.
type AuthHandlersConfig struct {
	Verifier   *auth.CredentialVerifier
	Codec      *auth.TokenCodec
	Identities *auth.IdentityStore
	Renderer   *Renderer
	Validity   time.Duration
	Logger     *slog.Logger
}

func NewAuthHandlers(cfg AuthHandlersConfig) (*AuthHandlers, error) {
	if cfg.Verifier == nil || cfg.Codec == nil || cfg.Identities == nil || cfg.Renderer == nil {
		return nil, errors.New("web: auth handlers require verifier, codec, identities, and renderer")
	}
	validity := cfg.Validity
	if validity <= 0 {
		validity = 30 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlers{
		verifier:   cfg.Verifier,
		codec:      cfg.Codec,
		identities: cfg.Identities,
		renderer:   cfg.Renderer,
		validity:   validity,
		logger:     logger,
	}, nil
}

// LoginPage serves GET /ui/login. When the request arrived via a gate
// redirect, the redirect-context cookies decide between a JSON ApiStatus and
// the HTML page with an embedded message. Both cookies are consumed at most
// once and removed in every branch.
func (h *AuthHandlers) LoginPage(c echo.Context) error {
	r := c.Request()

	message := ""
	if cookie, err := r.Cookie(auth.CookieRedirectMessage); err == nil {
		message = cookie.Value
	}
	originalContentType := ""
	if cookie, err := r.Cookie(auth.CookieOriginalContentType); err == nil {
		originalContentType = cookie.Value
	}

	c.SetCookie(auth.RemoveLoginRedirectCookie(r))
	c.SetCookie(auth.RemoveOriginalContentTypeCookie(r))

	if message == "" {
		html, err := h.renderer.Render("login.html", nil)
		if err != nil {
			return err
		}
		return c.HTML(httpx.StatusOK, html)
	}

	// Redirected here after a denial. The original caller decides the shape
	// of the answer; absent a content type the HTML surface wins.
	if isJSONContentType(originalContentType) {
		return c.JSON(httpx.StatusUnauthorized, httpx.NewApiStatus(httpx.StatusUnauthorized, message))
	}

	html, err := h.renderer.Render("login.html", map[string]any{"Message": message})
	if err != nil {
		return err
	}
	return c.HTML(httpx.StatusUnauthorized, html)
}

// Login serves POST /api/login. The body is urlencoded or JSON, selected by
// Content-Type; the failure and success shapes follow the same split.
func (h *AuthHandlers) Login(c echo.Context) error {
	r := c.Request()
	contentType := r.Header.Get(echo.HeaderContentType)

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(httpx.StatusBadRequest, httpx.NewApiStatus(httpx.StatusBadRequest, "invalid request body"))
	}

	if err := h.verifier.Authenticate(r.Context(), req.Email, req.Password); err != nil {
		if isJSONContentType(contentType) {
			return c.JSON(httpx.StatusUnauthorized, httpx.NewApiStatus(httpx.StatusUnauthorized, auth.LoginFailureMsg))
		}
		c.SetCookie(auth.BuildLoginRedirectCookie(r, auth.LoginFailureMsg))
		c.SetCookie(auth.BuildOriginalContentTypeCookie(r, contentType))
		return c.Redirect(httpx.StatusSeeOther, auth.LoginPagePath)
	}

	token, payload, err := h.codec.Issue(req.Email, h.validity)
	if err != nil {
		return err
	}
	bearer := auth.BearerToken(token)

	identityKey := h.identities.NewKey()
	if err := h.identities.Save(r.Context(), identityKey, bearer, h.validity); err != nil {
		// The header and cookie still carry the token; only browser
		// continuity degrades.
		h.logger.Warn("identity save failed", "error", err)
	}

	c.Response().Header().Set(echo.HeaderAuthorization, bearer)
	c.SetCookie(auth.BuildAuthorizationCookie(r, bearer))
	c.SetCookie(auth.BuildIdentityCookie(r, identityKey))

	if isJSONContentType(contentType) {
		return c.JSON(httpx.StatusOK, LoginSuccessResponse{
			ApiStatus: httpx.NewApiStatus(httpx.StatusOK, "").WithSessionID(payload.SessionID),
			Data: LoginSuccessData{
				Email:       payload.Email,
				AccessToken: bearer,
				TokenType:   "bearer",
			},
		})
	}

	html, err := h.renderer.Render("home.html", map[string]any{"Email": payload.Email})
	if err != nil {
		return err
	}
	return c.HTML(httpx.StatusOK, html)
}

// Logout serves POST /api/logout: drops the identity record, clears the
// token cookies, and sends the caller back to the login page.
func (h *AuthHandlers) Logout(c echo.Context) error {
	r := c.Request()

	if cookie, err := r.Cookie(auth.IdentityCookieName); err == nil && cookie.Value != "" {
		if err := h.identities.Drop(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("identity drop failed", "error", err)
		}
	}

	c.SetCookie(auth.RemoveAuthorizationCookie(r))
	c.SetCookie(auth.RemoveIdentityCookie(r))
	return c.Redirect(httpx.StatusSeeOther, auth.LoginPagePath)
}

// HomePage serves GET /ui/home.
func (h *AuthHandlers) HomePage(c echo.Context) error {
	vars := map[string]any{}
	if payload, ok := auth.PayloadFromContext(c); ok {
		vars["Email"] = payload.Email
	}
	html, err := h.renderer.Render("home.html", vars)
	if err != nil {
		return err
	}
	return c.HTML(httpx.StatusOK, html)
}

func isJSONContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), echo.MIMEApplicationJSON)
}
