package auth

import (
	"context"
	"errors"
	"log/slog"
)

var (
	ErrNoSuchAccount   = errors.New("auth: no such account")
	ErrVerifierMissing = errors.New("auth: verifier requires a credential store and a hasher")
)

// Credential is the read-only record the verifier checks submissions
// against. PasswordHash is an encoded Argon2id hash.
type Credential struct {
	Email        string
	PasswordHash string
}

// CredentialStore abstracts the credential lookup so callers can map to any
// table schema. Implementations return ErrNoSuchAccount when no record
// matches the exact email.
type CredentialStore interface {
	GetCredentialByEmail(ctx context.Context, email string) (Credential, error)
}

// CredentialVerifier checks a submitted email/password pair against the
// stored hash. The two failure modes stay distinct values here for logging
// and tests; response layers collapse both to LoginFailureMsg.
type CredentialVerifier struct {
	store  CredentialStore
	hasher *Argon2idHasher
	logger *slog.Logger
}

// NewCredentialVerifier builds a verifier over the given store and hasher.
func NewCredentialVerifier(store CredentialStore, hasher *Argon2idHasher, logger *slog.Logger) (*CredentialVerifier, error) {
	if store == nil || hasher == nil {
		return nil, ErrVerifierMissing
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialVerifier{store: store, hasher: hasher, logger: logger}, nil
}

// Authenticate succeeds only when a credential record exists for the exact
// email and the password verifies against its hash. Returns
// ErrNoSuchAccount or ErrPasswordMismatch otherwise.
func (v *CredentialVerifier) Authenticate(ctx context.Context, email, password string) error {
	cred, err := v.store.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNoSuchAccount) {
			v.logger.Warn("login failed", "reason", "no such account", "email", email)
		}
		return err
	}

	if err := v.hasher.Compare(ctx, []byte(password), cred.PasswordHash); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			v.logger.Warn("login failed", "reason", "password mismatch", "email", email)
		}
		return err
	}

	return nil
}
