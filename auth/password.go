package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrPasswordMismatch    = errors.New("auth: password does not match")
	ErrPasswordInvalidHash = errors.New("auth: invalid password hash")
	ErrPasswordEmpty       = errors.New("auth: empty password")
)

// Default Argon2id parameters.
const (
	DefaultArgon2Time    = 3
	DefaultArgon2Memory  = 64 * 1024 // 64 MB
	DefaultArgon2Threads = 4
	DefaultArgon2KeyLen  = 32
	DefaultSaltLength    = 16
)

// Argon2idHasher hashes and verifies passwords using Argon2id. Hashes are
// stored in the standard encoded form
// $argon2id$v=19$m=...,t=...,p=...$<salt>$<key> so parameters travel with
// the hash and verification never depends on the hasher's own settings.
type Argon2idHasher struct {
	time       uint32
	memory     uint32
	threads    uint8
	keyLen     uint32
	saltLength int
}

// Argon2idHasherOption configures Argon2idHasher.
type Argon2idHasherOption func(*Argon2idHasher)

// WithArgon2Time sets the time parameter (iterations).
func WithArgon2Time(t uint32) Argon2idHasherOption {
	return func(h *Argon2idHasher) {
		if t > 0 {
			h.time = t
		}
	}
}

// WithArgon2Memory sets the memory parameter in KB.
func WithArgon2Memory(m uint32) Argon2idHasherOption {
	return func(h *Argon2idHasher) {
		if m > 0 {
			h.memory = m
		}
	}
}

// WithArgon2Threads sets the parallelism parameter.
func WithArgon2Threads(t uint8) Argon2idHasherOption {
	return func(h *Argon2idHasher) {
		if t > 0 {
			h.threads = t
		}
	}
}

// WithArgon2KeyLen sets the output key length.
func WithArgon2KeyLen(l uint32) Argon2idHasherOption {
	return func(h *Argon2idHasher) {
		if l > 0 {
			h.keyLen = l
		}
	}
}

// NewArgon2idHasher creates a new Argon2id-based password hasher.
func NewArgon2idHasher(opts ...Argon2idHasherOption) *Argon2idHasher {
	h := &Argon2idHasher{
		time:       DefaultArgon2Time,
		memory:     DefaultArgon2Memory,
		threads:    DefaultArgon2Threads,
		keyLen:     DefaultArgon2KeyLen,
		saltLength: DefaultSaltLength,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Hash generates an encoded Argon2id hash for the given password.
func (h *Argon2idHasher) Hash(ctx context.Context, plain []byte) (string, error) {
	if err := contextError(ctx); err != nil {
		return "", err
	}
	if len(plain) == 0 {
		return "", ErrPasswordEmpty
	}

	salt := make([]byte, h.saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("auth: failed to generate salt: %w", err)
	}

	key := argon2.IDKey(plain, salt, h.time, h.memory, h.threads, h.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Compare validates a password against a stored encoded hash.
func (h *Argon2idHasher) Compare(ctx context.Context, plain []byte, encoded string) error {
	if err := contextError(ctx); err != nil {
		return err
	}

	params, salt, key, err := decodeArgon2Hash(encoded)
	if err != nil {
		return err
	}

	computed := argon2.IDKey(plain, salt, params.time, params.memory, params.threads, uint32(len(key)))

	// Constant-time comparison to prevent timing attacks.
	if subtle.ConstantTimeCompare(computed, key) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

type argon2Params struct {
	time    uint32
	memory  uint32
	threads uint8
}

func decodeArgon2Hash(encoded string) (argon2Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return argon2Params{}, nil, nil, ErrPasswordInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return argon2Params{}, nil, nil, ErrPasswordInvalidHash
	}

	var params argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return argon2Params{}, nil, nil, ErrPasswordInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argon2Params{}, nil, nil, ErrPasswordInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argon2Params{}, nil, nil, ErrPasswordInvalidHash
	}
	if len(key) == 0 {
		return argon2Params{}, nil, nil, ErrPasswordInvalidHash
	}

	return params, salt, key, nil
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
