package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adeilh/go-empdir/auth"
	"github.com/adeilh/go-empdir/cache"
	"github.com/adeilh/go-empdir/directory"
	"github.com/adeilh/go-empdir/httpx"
)

const (
	testEmail    = "chirstian.koblick.10004@gmail.com"
	testPassword = "password"
)

// memCache is an in-memory cache.Store for tests.
type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{items: make(map[string][]byte)}
}

func (s *memCache) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.items[key]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), value...)
	return nil
}

func (s *memCache) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return cache.ErrNotFound
	}
	delete(s.items, key)
	return nil
}

func (s *memCache) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.items[key]
	return string(value), ok
}

type fakeCredentialStore struct {
	creds map[string]auth.Credential
}

func (s *fakeCredentialStore) GetCredentialByEmail(_ context.Context, email string) (auth.Credential, error) {
	cred, ok := s.creds[email]
	if !ok {
		return auth.Credential{}, auth.ErrNoSuchAccount
	}
	return cred, nil
}

type fakeDirectory struct {
	mu         sync.Mutex
	employees  []directory.Employee
	err        error
	lastSearch directory.EmployeeSearch
}

func (d *fakeDirectory) SearchEmployees(_ context.Context, search directory.EmployeeSearch) ([]directory.Employee, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastSearch = search
	if d.err != nil {
		return nil, d.err
	}
	return d.employees, nil
}

func (d *fakeDirectory) searched() directory.EmployeeSearch {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSearch
}

// appFixture assembles the full request pipeline: gate middleware, route
// table, real codec and renderer, fakes for storage.
type appFixture struct {
	codec   *auth.TokenCodec
	cache   *memCache
	dir     *fakeDirectory
	handler http.Handler
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()

	hasher := auth.NewArgon2idHasher(
		auth.WithArgon2Time(1),
		auth.WithArgon2Memory(8*1024),
		auth.WithArgon2Threads(1),
		auth.WithArgon2KeyLen(16),
	)
	hash, err := hasher.Hash(context.Background(), []byte(testPassword))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	creds := &fakeCredentialStore{creds: map[string]auth.Credential{
		testEmail: {Email: testEmail, PasswordHash: hash},
	}}
	verifier, err := auth.NewCredentialVerifier(creds, hasher, nil)
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}

	codec, err := auth.NewTokenCodec([]byte("0123456789abcdef"))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	store := newMemCache()
	identities := auth.NewIdentityStore(store, auth.IdentityStoreOptions{})
	tracker, err := auth.NewContinuityTracker(auth.ContinuityConfig{
		Codec:      codec,
		Identities: identities,
		Validity:   time.Minute,
	})
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	gate, err := auth.RequestGate(auth.GateConfig{Tracker: tracker})
	if err != nil {
		t.Fatalf("gate: %v", err)
	}

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	authHandlers, err := NewAuthHandlers(AuthHandlersConfig{
		Verifier:   verifier,
		Codec:      codec,
		Identities: identities,
		Renderer:   renderer,
		Validity:   time.Minute,
	})
	if err != nil {
		t.Fatalf("auth handlers: %v", err)
	}
	dir := &fakeDirectory{}
	employees, err := NewEmployeeHandlers(dir, renderer, nil)
	if err != nil {
		t.Fatalf("employee handlers: %v", err)
	}

	server := httpx.NewServer(httpx.AppendMiddlewares(gate))
	server.RegisterRoutes(Router{Auth: authHandlers, Employees: employees}.Register)

	return &appFixture{codec: codec, cache: store, dir: dir, handler: server.Handler()}
}

func (f *appFixture) do(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	return rec
}

// bearer issues a fresh token for the test principal, scheme marker included.
func (f *appFixture) bearer(t *testing.T) string {
	t.Helper()
	raw, _, err := f.codec.Issue(testEmail, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return auth.BearerToken(raw)
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func requireRemoved(t *testing.T, rec *httptest.ResponseRecorder, name string) {
	t.Helper()
	cookie := findCookie(rec, name)
	if cookie == nil {
		t.Fatalf("cookie %q not in response", name)
	}
	if cookie.MaxAge != -1 {
		t.Fatalf("cookie %q not expired", name)
	}
}

func TestLoginPageFresh(t *testing.T) {
	f := newAppFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/ui/login", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `action="/api/login"`) {
		t.Fatal("login form missing")
	}
	if strings.Contains(rec.Body.String(), `class="error"`) {
		t.Fatal("fresh page must carry no error message")
	}
	requireRemoved(t, rec, auth.CookieRedirectMessage)
	requireRemoved(t, rec, auth.CookieOriginalContentType)
}

func TestLoginPageAfterRedirect(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		wantJSON    bool
	}{
		{"html caller", echo.MIMEApplicationForm, false},
		{"json caller", echo.MIMEApplicationJSON, true},
		{"no recorded content type", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newAppFixture(t)

			r := httptest.NewRequest(http.MethodGet, "/ui/login", nil)
			r.AddCookie(&http.Cookie{Name: auth.CookieRedirectMessage, Value: auth.UnauthorisedAccessMsg})
			if tc.contentType != "" {
				r.AddCookie(&http.Cookie{Name: auth.CookieOriginalContentType, Value: tc.contentType})
			}
			rec := f.do(r)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if tc.wantJSON {
				var body httpx.ApiStatus
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("unmarshal %q: %v", rec.Body.String(), err)
				}
				if body.Code != http.StatusUnauthorized || body.Message != auth.UnauthorisedAccessMsg {
					t.Fatalf("body = %+v", body)
				}
			} else if !strings.Contains(rec.Body.String(), auth.UnauthorisedAccessMsg) {
				t.Fatalf("message missing from page: %q", rec.Body.String())
			}
			requireRemoved(t, rec, auth.CookieRedirectMessage)
			requireRemoved(t, rec, auth.CookieOriginalContentType)
		})
	}
}

func TestLoginJSONSuccess(t *testing.T) {
	f := newAppFixture(t)

	body := `{"email":"` + testEmail + `","password":"` + testPassword + `"}`
	r := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := f.do(r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}

	var resp LoginSuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal %q: %v", rec.Body.String(), err)
	}
	if resp.Code != http.StatusOK {
		t.Fatalf("code = %d", resp.Code)
	}
	if resp.SessionID == "" {
		t.Fatal("session_id missing")
	}
	if resp.Data.Email != testEmail || resp.Data.TokenType != "bearer" {
		t.Fatalf("data = %+v", resp.Data)
	}
	if !strings.HasPrefix(resp.Data.AccessToken, auth.BearerScheme) {
		t.Fatalf("access_token = %q, want scheme marker", resp.Data.AccessToken)
	}
	payload, err := f.codec.Verify(auth.StripBearer(resp.Data.AccessToken), true)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if payload.Email != testEmail || payload.SessionID != resp.SessionID {
		t.Fatalf("payload = %+v, session_id = %q", payload, resp.SessionID)
	}

	if got := rec.Header().Get(echo.HeaderAuthorization); got != resp.Data.AccessToken {
		t.Fatalf("Authorization header = %q", got)
	}
	authCookie := findCookie(rec, auth.AuthorizationCookieName)
	if authCookie == nil || authCookie.Value != resp.Data.AccessToken {
		t.Fatal("authorization cookie missing or wrong")
	}
	if authCookie.HttpOnly {
		t.Fatal("authorization cookie must be client-readable")
	}

	idCookie := findCookie(rec, auth.IdentityCookieName)
	if idCookie == nil || idCookie.Value == "" {
		t.Fatal("identity cookie missing")
	}
	if !idCookie.HttpOnly {
		t.Fatal("identity cookie must be server-only")
	}
	stored, ok := f.cache.get("identity:" + idCookie.Value)
	if !ok {
		t.Fatal("identity record not persisted")
	}
	if stored != resp.Data.AccessToken {
		t.Fatal("identity record and issued token disagree")
	}
}

func TestLoginFormSuccess(t *testing.T) {
	f := newAppFixture(t)

	form := url.Values{"email": {testEmail}, "password": {testPassword}}
	r := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := f.do(r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Logged in as "+testEmail) {
		t.Fatalf("home page missing greeting: %q", rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get(echo.HeaderAuthorization), auth.BearerScheme) {
		t.Fatal("Authorization header missing")
	}
	if findCookie(rec, auth.IdentityCookieName) == nil {
		t.Fatal("identity cookie missing")
	}
}

func TestLoginFailure(t *testing.T) {
	t.Run("json caller gets the status body", func(t *testing.T) {
		f := newAppFixture(t)

		body := `{"email":"` + testEmail + `","password":"wrong"}`
		r := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := f.do(r)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		var resp httpx.ApiStatus
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal %q: %v", rec.Body.String(), err)
		}
		if resp.Code != http.StatusUnauthorized || resp.Message != auth.LoginFailureMsg {
			t.Fatalf("resp = %+v", resp)
		}
	})

	t.Run("form caller is redirected with the reason", func(t *testing.T) {
		f := newAppFixture(t)

		form := url.Values{"email": {testEmail}, "password": {"wrong"}}
		r := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec := f.do(r)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", rec.Code)
		}
		if loc := rec.Header().Get(echo.HeaderLocation); loc != auth.LoginPagePath {
			t.Fatalf("location = %q", loc)
		}
		msg := findCookie(rec, auth.CookieRedirectMessage)
		if msg == nil || msg.Value != auth.LoginFailureMsg {
			t.Fatalf("redirect message cookie = %+v", msg)
		}
		ct := findCookie(rec, auth.CookieOriginalContentType)
		if ct == nil || ct.Value != echo.MIMEApplicationForm {
			t.Fatalf("original content type cookie = %+v", ct)
		}
	})

	t.Run("unknown account reads the same as a bad password", func(t *testing.T) {
		f := newAppFixture(t)

		body := `{"email":"nobody@example.com","password":"` + testPassword + `"}`
		r := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := f.do(r)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), auth.LoginFailureMsg) {
			t.Fatalf("body = %q", rec.Body.String())
		}
	})
}

func TestLoginMalformedBody(t *testing.T) {
	f := newAppFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader("{not json"))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := f.do(r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	f := newAppFixture(t)

	// Establish a session first so the logout request clears real state.
	form := url.Values{"email": {testEmail}, "password": {testPassword}}
	r := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	loginRec := f.do(r)
	if loginRec.Code != http.StatusOK {
		t.Fatalf("login status = %d", loginRec.Code)
	}
	idCookie := findCookie(loginRec, auth.IdentityCookieName)
	if idCookie == nil {
		t.Fatal("no identity cookie from login")
	}
	token := loginRec.Header().Get(echo.HeaderAuthorization)

	r = httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	r.Header.Set("Authorization", token)
	r.AddCookie(&http.Cookie{Name: auth.IdentityCookieName, Value: idCookie.Value})
	rec := f.do(r)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != auth.LoginPagePath {
		t.Fatalf("location = %q", loc)
	}
	requireRemoved(t, rec, auth.AuthorizationCookieName)
	requireRemoved(t, rec, auth.IdentityCookieName)
	if _, ok := f.cache.get("identity:" + idCookie.Value); ok {
		t.Fatal("identity record survived logout")
	}
}

func TestHomePage(t *testing.T) {
	f := newAppFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/ui/home", nil)
	r.Header.Set("Authorization", f.bearer(t))
	rec := f.do(r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Logged in as "+testEmail) {
		t.Fatalf("greeting missing: %q", rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Authorization"), auth.BearerScheme) {
		t.Fatal("refreshed token missing from response")
	}
}

func TestHomePageRequiresSession(t *testing.T) {
	f := newAppFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/ui/home", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != auth.LoginPagePath {
		t.Fatalf("location = %q", loc)
	}
}
