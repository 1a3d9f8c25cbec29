package generation

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"backdrop/internal/domain"
)

// LocalKeyStore exposes the caller-supplied credential override (the
// browser-local key in the original product). Implementations may read a
// request header or an in-memory value; lookups that fail simply make this
// tier unavailable.
type LocalKeyStore interface {
	Key(ctx context.Context) (string, error)
}

// GlobalKeyStore exposes the shared system key held in persistent storage.
type GlobalKeyStore interface {
	GlobalKey(ctx context.Context) (string, error)
}

// KeyResolver picks the credential for a generation call in strict priority
// order: caller-supplied key, deployment environment key, then the role-gated
// global key. Resolution always terminates with a key or "", never an error.
type KeyResolver struct {
	Local  LocalKeyStore
	EnvKey string
	Global GlobalKeyStore
	Logger zerolog.Logger
}

// Resolve returns the winning key or "" when no tier yields one. The local
// key always wins regardless of role.
func (r *KeyResolver) Resolve(ctx context.Context, user domain.Profile) string {
	if r.Local != nil {
		key, err := r.Local.Key(ctx)
		if err != nil {
			r.Logger.Warn().Err(err).Msg("keys: local key lookup failed, skipping tier")
		} else if key = strings.TrimSpace(key); key != "" {
			return key
		}
	}

	if key := strings.TrimSpace(r.EnvKey); key != "" {
		return key
	}

	// The stored system key is reserved for admins and explicitly allowed
	// users; for everyone else this tier does not exist.
	if r.Global != nil && (user.IsAdmin() || user.AllowedSystemKey) {
		key, err := r.Global.GlobalKey(ctx)
		if err != nil {
			r.Logger.Warn().Err(err).Msg("keys: global key lookup failed, skipping tier")
		} else if key = strings.TrimSpace(key); key != "" {
			return key
		}
	}

	return ""
}

// Available reports whether Resolve would yield a key for this user.
func (r *KeyResolver) Available(ctx context.Context, user domain.Profile) bool {
	return r.Resolve(ctx, user) != ""
}
