package provider

import (
	"fmt"
	"strings"

	"SearchScorer/internal/domain"
	"SearchScorer/internal/ports"
)

// Factory builds a backend for one request cycle's provider settings.
type Factory func(cfg domain.ProviderConfig) (ports.Backend, error)

// Registry keeps a mapping from provider names to backend factories.
type Registry struct {
	factories map[domain.Provider]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[domain.Provider]Factory{}}
}

// Register adds or replaces a factory.
func (r *Registry) Register(name domain.Provider, factory Factory) {
	if r.factories == nil {
		r.factories = map[domain.Provider]Factory{}
	}
	r.factories[name] = factory
}

// Resolve returns a backend for cfg. A missing credential is rejected before
// any factory runs, so no network call can follow.
func (r *Registry) Resolve(cfg domain.ProviderConfig) (ports.Backend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("provider %s: %w", cfg.Provider, domain.ErrMissingCredential)
	}
	factory, ok := r.factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("provider %s is not registered", cfg.Provider)
	}
	return factory(cfg)
}
