package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewApiStatus(t *testing.T) {
	status := NewApiStatus(StatusOK, "")
	payload, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"code":200}` {
		t.Fatalf("payload = %s, empty fields must be omitted", payload)
	}

	status = NewApiStatus(StatusUnauthorized, "denied").WithSessionID("abc")
	payload, err = json.Marshal(status)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"code":401,"message":"denied","session_id":"abc"}` {
		t.Fatalf("payload = %s", payload)
	}
}

func TestServerRoutes(t *testing.T) {
	server := NewServer(WithMiddlewares(RecoverMiddleware()))
	server.RegisterRoutes(func(e *Echo) {
		e.GET("/ping", func(c Context) error {
			return c.JSON(StatusOK, NewApiStatus(StatusOK, "pong"))
		})
	})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rec.Code != StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var status ApiStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if status.Message != "pong" {
		t.Fatalf("message = %q", status.Message)
	}
}

func TestRegisterRoutesTable(t *testing.T) {
	tagged := func(next HandlerFunc) HandlerFunc {
		return func(c Context) error {
			c.Response().Header().Set("X-Tagged", "yes")
			return next(c)
		}
	}
	ok := func(c Context) error { return c.NoContent(StatusNoContent) }

	server := NewServer(WithMiddlewares(RecoverMiddleware()))
	server.RegisterRoutes(func(e *Echo) {
		RegisterRoutes(e,
			Route{Method: "get", Path: "/items", Handler: ok},
			Route{Method: "POST", Path: "/items", Handler: ok, Middleware: []MiddlewareFunc{tagged}},
			// Incomplete definitions are skipped rather than registered.
			Route{Method: "GET", Path: "/broken"},
			Route{Path: "/no-method", Handler: ok},
		)
	})
	handler := server.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items", nil))
	if rec.Code != StatusNoContent {
		t.Fatalf("GET /items status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items", nil))
	if rec.Code != StatusNoContent {
		t.Fatalf("POST /items status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("X-Tagged") != "yes" {
		t.Fatal("route middleware did not run")
	}

	for _, path := range []string{"/broken", "/no-method"} {
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != StatusNotFound {
			t.Fatalf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
}

func TestDefaultErrorHandler(t *testing.T) {
	server := NewServer(WithMiddlewares(RecoverMiddleware()))
	server.RegisterRoutes(func(e *Echo) {
		e.GET("/boom", func(Context) error {
			return errors.New("database on fire")
		})
		e.GET("/teapot", func(Context) error {
			return HTTPError(http.StatusTeapot, "short and stout")
		})
	})
	handler := server.Handler()

	tests := []struct {
		path        string
		wantCode    int
		wantMessage string
	}{
		// Plain errors must not leak internals to the client.
		{"/boom", StatusInternalError, http.StatusText(StatusInternalError)},
		{"/teapot", http.StatusTeapot, "short and stout"},
		{"/no-such-route", StatusNotFound, http.StatusText(StatusNotFound)},
	}
	for _, tc := range tests {
		t.Run(strings.TrimPrefix(tc.path, "/"), func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			var status ApiStatus
			if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
				t.Fatalf("unmarshal %q: %v", rec.Body.String(), err)
			}
			if status.Code != tc.wantCode || status.Message != tc.wantMessage {
				t.Fatalf("body = %+v", status)
			}
		})
	}
}

func TestValidators(t *testing.T) {
	requireTenant := func(c Context) error {
		if c.Request().Header.Get("X-Tenant") == "" {
			return HTTPError(StatusBadRequest, "missing tenant")
		}
		return nil
	}

	server := NewServer(
		WithMiddlewares(RecoverMiddleware()),
		WithValidators(requireTenant),
	)
	server.RegisterRoutes(func(e *Echo) {
		e.GET("/resource", func(c Context) error {
			return c.NoContent(StatusNoContent)
		})
	})
	handler := server.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/resource", nil))
	if rec.Code != StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	r := httptest.NewRequest(http.MethodGet, "/resource", nil)
	r.Header.Set("X-Tenant", "acme")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	if rec.Code != StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}
