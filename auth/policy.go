package auth

// Route paths the policy reasons about.
const (
	LoginPagePath = "/ui/login"
	HomePagePath  = "/ui/home"
	LoginAPIPath  = "/api/login"
)

// RouteCategory partitions the HTTP surface for the policy.
type RouteCategory int

const (
	// LoginSurface: the login page and the login-submission endpoint,
	// reachable without authentication.
	LoginSurface RouteCategory = iota
	// ProtectedSurface: everything else.
	ProtectedSurface
)

// CategorizeRoute maps a request path to its category.
func CategorizeRoute(path string) RouteCategory {
	switch path {
	case LoginPagePath, LoginAPIPath:
		return LoginSurface
	default:
		return ProtectedSurface
	}
}

// ActionKind enumerates the responses the gate can produce.
type ActionKind int

const (
	// ActionPassThrough: forward to the wrapped handler.
	ActionPassThrough ActionKind = iota
	// ActionRedirectHome: already logged in, bounce off the login surface.
	ActionRedirectHome
	// ActionRedirectLogin: protected route without a session.
	ActionRedirectLogin
	// ActionUnauthorized: a supplied token failed verification; always
	// reported, never silently treated as "not logged in".
	ActionUnauthorized
)

// Action is the policy's decision for one request.
type Action struct {
	Kind ActionKind
	// Location is the redirect target for the redirect kinds.
	Location string
	// Reason is the message stashed in the redirect context on
	// ActionRedirectLogin.
	Reason string
	// Message is the client-facing error text on ActionUnauthorized.
	Message string
	// TokenErr is the underlying sentinel on ActionUnauthorized.
	TokenErr error
}

// Decide is a pure function from the authentication outcome to a response
// action. Rules in priority order: an explicit token error always wins; an
// authenticated caller is bounced off the login surface and passed through
// everywhere else; an unauthenticated caller passes through the login
// surface and is redirected to it from anywhere else. The original content
// type does not influence the decision; it is carried in the redirect
// context so the login page can later choose HTML or JSON.
func Decide(v Verdict, route RouteCategory) Action {
	if v.TokenErr != nil {
		return Action{Kind: ActionUnauthorized, Message: v.Message, TokenErr: v.TokenErr}
	}

	if v.Authenticated() {
		if route == LoginSurface {
			return Action{Kind: ActionRedirectHome, Location: HomePagePath}
		}
		return Action{Kind: ActionPassThrough}
	}

	if route == LoginSurface {
		return Action{Kind: ActionPassThrough}
	}
	return Action{Kind: ActionRedirectLogin, Location: LoginPagePath, Reason: UnauthorisedAccessMsg}
}
