package auth

// Client-facing messages. Login failures share one message so responses do
// not reveal whether the email or the password was wrong; token failures are
// deliberately distinct so callers can tell an expired session from a bad one.
const (
	LoginFailureMsg       = "Please check login detail."
	UnauthorisedAccessMsg = "Please log in first."
	TokenInvalidMsg       = "Invalid token."
	TokenExpiredMsg       = "Token has expired."
	TokenOtherErrMsg      = "Token is in error."
)
