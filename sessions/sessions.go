// Package sessions persists verified identities between requests.
//
// The login handler writes an Identity through a Manager once code
// verification succeeds; the embedding console reads it back on later
// requests and removes it on logout. The Store interface decouples the
// cookie layer from the persistence backend: sessions/memory suits
// single-instance consoles and tests, sessions/valkey consoles running more
// than one replica.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/TheRakeshPurohit/consoleauth/providers"
)

// ErrNotFound is returned by Store.Get for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Store persists identities under opaque session IDs. Implementations honor
// the TTL passed to Put and answer ErrNotFound once it elapses.
type Store interface {
	// Put saves the identity under id for at most ttl.
	Put(ctx context.Context, id string, identity *providers.Identity, ttl time.Duration) error

	// Get returns the identity stored under id, or ErrNotFound.
	Get(ctx context.Context, id string) (*providers.Identity, error)

	// Delete removes the session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// EncodeIdentity serializes an identity for stores that persist bytes.
func EncodeIdentity(identity *providers.Identity) (string, error) {
	if identity == nil {
		return "", fmt.Errorf("identity cannot be nil")
	}
	data, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("marshal identity: %w", err)
	}
	return string(data), nil
}

// DecodeIdentity reverses EncodeIdentity.
func DecodeIdentity(data string) (*providers.Identity, error) {
	var identity providers.Identity
	if err := json.Unmarshal([]byte(data), &identity); err != nil {
		return nil, fmt.Errorf("unmarshal identity: %w", err)
	}
	return &identity, nil
}
