package providers

import (
	"context"
	"fmt"
	"os"
)

// Secret is a credential that is either a literal value or a named reference
// into a secrets backend. References are resolved through a SecretResolver
// every time the value is needed, never cached, so rotated secrets take
// effect on the next login without reconstruction. The zero value is an
// empty literal.
type Secret struct {
	value string
	ref   string
}

// Literal returns a Secret holding v itself.
func Literal(v string) Secret {
	return Secret{value: v}
}

// Reference returns a Secret that resolves the named key at use time.
func Reference(key string) Secret {
	return Secret{ref: key}
}

// IsReference reports whether the secret is resolved through a resolver.
func (s Secret) IsReference() bool {
	return s.ref != ""
}

// IsZero reports whether the secret holds neither a value nor a reference.
func (s Secret) IsZero() bool {
	return s.value == "" && s.ref == ""
}

// String implements fmt.Stringer without leaking the secret value, so
// secrets embedded in config structs are safe to log.
func (s Secret) String() string {
	if s.ref != "" {
		return "ref:" + s.ref
	}
	if s.value == "" {
		return ""
	}
	return "***"
}

// Resolve returns the secret's current value. Literals resolve to
// themselves; references are looked up through r, which may perform I/O.
func (s Secret) Resolve(ctx context.Context, r SecretResolver) (string, error) {
	if s.ref == "" {
		return s.value, nil
	}
	if r == nil {
		return "", fmt.Errorf("secret %q: no resolver configured", s.ref)
	}
	v, err := r.ResolveSecret(ctx, s.ref)
	if err != nil {
		return "", fmt.Errorf("resolve secret %q: %w", s.ref, err)
	}
	return v, nil
}

// SecretResolver maps a secret reference to its current value. The engine
// resolves on every use, so implementations backed by a rotating secrets
// store need no invalidation hooks.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, key string) (string, error)
}

// SecretResolverFunc adapts a function to the SecretResolver interface.
type SecretResolverFunc func(ctx context.Context, key string) (string, error)

// ResolveSecret calls f.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, key string) (string, error) {
	return f(ctx, key)
}

// StaticResolver resolves references from a fixed map. Useful for tests and
// for configurations where the secrets were already loaded by other means.
type StaticResolver map[string]string

// ResolveSecret looks the key up in the map.
func (m StaticResolver) ResolveSecret(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("unknown secret %q", key)
	}
	return v, nil
}

// EnvResolver resolves references from environment variables, with an
// optional prefix prepended to the reference key.
type EnvResolver struct {
	Prefix string
}

// ResolveSecret reads Prefix+key from the environment. Unset variables are
// an error; empty values are returned as-is.
func (e EnvResolver) ResolveSecret(_ context.Context, key string) (string, error) {
	v, ok := os.LookupEnv(e.Prefix + key)
	if !ok {
		return "", fmt.Errorf("environment variable %q is not set", e.Prefix+key)
	}
	return v, nil
}
