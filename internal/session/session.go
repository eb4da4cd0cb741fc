// Package session stores per-user dialog state: the current FSM state name
// plus a JSON payload with the in-progress draft.
package session

import (
	"context"
	"errors"
)

var ErrNoSession = errors.New("no active session")

// Store is a keyed dialog-session store. Load reports ErrNoSession when the
// key has no record; a non-nil dst receives the unmarshalled payload.
type Store interface {
	Save(ctx context.Context, key, state string, payload any) error
	Load(ctx context.Context, key string, dst any) (string, error)
	Clear(ctx context.Context, key string) error
}
