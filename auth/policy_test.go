package auth

import (
	"errors"
	"testing"
)

func TestCategorizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want RouteCategory
	}{
		{"/ui/login", LoginSurface},
		{"/api/login", LoginSurface},
		{"/ui/home", ProtectedSurface},
		{"/api/logout", ProtectedSurface},
		{"/data/employees", ProtectedSurface},
		{"/", ProtectedSurface},
		{"/ui/login/", ProtectedSurface},
	}
	for _, tc := range tests {
		if got := CategorizeRoute(tc.path); got != tc.want {
			t.Errorf("CategorizeRoute(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestDecide(t *testing.T) {
	valid := Verdict{
		State:          StateTokenValid,
		Payload:        TokenPayload{Email: "behai_nguyen@hotmail.com"},
		RefreshedToken: "refreshed",
	}
	invalid := Verdict{State: StateTokenInvalid, TokenErr: ErrTokenInvalid, Message: TokenInvalidMsg}
	expired := Verdict{State: StateTokenExpired, TokenErr: ErrTokenExpired, Message: TokenExpiredMsg}
	anonymous := Verdict{State: StateNoToken}

	tests := []struct {
		name    string
		verdict Verdict
		route   RouteCategory
		want    Action
	}{
		{
			name:    "token error on protected surface",
			verdict: invalid,
			route:   ProtectedSurface,
			want:    Action{Kind: ActionUnauthorized, Message: TokenInvalidMsg, TokenErr: ErrTokenInvalid},
		},
		{
			// A bad token is reported even where anonymous access is fine.
			name:    "token error on login surface",
			verdict: expired,
			route:   LoginSurface,
			want:    Action{Kind: ActionUnauthorized, Message: TokenExpiredMsg, TokenErr: ErrTokenExpired},
		},
		{
			name:    "authenticated on login surface",
			verdict: valid,
			route:   LoginSurface,
			want:    Action{Kind: ActionRedirectHome, Location: HomePagePath},
		},
		{
			name:    "authenticated on protected surface",
			verdict: valid,
			route:   ProtectedSurface,
			want:    Action{Kind: ActionPassThrough},
		},
		{
			name:    "anonymous on login surface",
			verdict: anonymous,
			route:   LoginSurface,
			want:    Action{Kind: ActionPassThrough},
		},
		{
			name:    "anonymous on protected surface",
			verdict: anonymous,
			route:   ProtectedSurface,
			want:    Action{Kind: ActionRedirectLogin, Location: LoginPagePath, Reason: UnauthorisedAccessMsg},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.verdict, tc.route)
			if got.Kind != tc.want.Kind {
				t.Fatalf("kind = %v, want %v", got.Kind, tc.want.Kind)
			}
			if got.Location != tc.want.Location {
				t.Errorf("location = %q, want %q", got.Location, tc.want.Location)
			}
			if got.Reason != tc.want.Reason {
				t.Errorf("reason = %q, want %q", got.Reason, tc.want.Reason)
			}
			if got.Message != tc.want.Message {
				t.Errorf("message = %q, want %q", got.Message, tc.want.Message)
			}
			if !errors.Is(got.TokenErr, tc.want.TokenErr) {
				t.Errorf("token err = %v, want %v", got.TokenErr, tc.want.TokenErr)
			}
		})
	}
}
