// Package secrets resolves secret references from settings and invents
// credentials for generated service stacks.
package secrets

import (
	"fmt"

	"github.com/lite-lake/homelab-ops/internal/domain/entity"
	"github.com/lite-lake/homelab-ops/internal/domain/valueobject"
)

// Resolver turns SecretRefs into plaintext values. Values resolved once
// are cached so callers can fetch them again without error handling.
type Resolver struct {
	secrets  map[string]string
	resolved map[string]string
}

func NewResolver(secrets []entity.Secret) *Resolver {
	r := &Resolver{
		secrets:  make(map[string]string),
		resolved: make(map[string]string),
	}
	for _, s := range secrets {
		r.secrets[s.Name] = s.Value
	}
	return r
}

func (r *Resolver) Resolve(ref valueobject.SecretRef) (string, error) {
	return ref.Resolve(r.secrets)
}

// ResolveAll eagerly resolves every reference the settings carry so a
// bad reference fails before any artifact is rendered.
func (r *Resolver) ResolveAll(settings *entity.Settings) error {
	if settings == nil {
		return nil
	}

	if !settings.Target.Password.IsZero() {
		val, err := r.Resolve(settings.Target.Password)
		if err != nil {
			return fmt.Errorf("target.password: %w", err)
		}
		r.cache(settings.Target.Password, val)
	}

	for key, ref := range settings.DNS.Credentials {
		val, err := r.Resolve(ref)
		if err != nil {
			return fmt.Errorf("dns.credentials[%s]: %w", key, err)
		}
		r.cache(ref, val)
	}

	return nil
}

// Value returns the cached plaintext for ref, resolving on demand and
// swallowing errors. Call ResolveAll first when the error matters.
func (r *Resolver) Value(ref valueobject.SecretRef) string {
	if val, ok := r.resolved[cacheKey(ref)]; ok {
		return val
	}
	val, _ := r.Resolve(ref)
	return val
}

func (r *Resolver) cache(ref valueobject.SecretRef, val string) {
	r.resolved[cacheKey(ref)] = val
}

func cacheKey(ref valueobject.SecretRef) string {
	return ref.Plain + "|" + ref.Secret + "|" + ref.Env
}
