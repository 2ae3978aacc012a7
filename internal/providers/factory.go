// Package providers normalizes the upstream completion APIs behind one gateway.
// Provider packages register a Builder from init(); the gateway builds a
// provider per call with the caller's credential.
package providers

import (
	"fmt"
	"sort"
	"sync"

	"sp1assist/internal/core"
)

// Options carries what a builder needs to construct a provider for one call.
type Options struct {
	// APIKey is the caller's credential. It is sent as a header or client
	// option and never placed in the prompt.
	APIKey string

	// BaseURL overrides the provider's default endpoint (empty keeps the default)
	BaseURL string
}

// Builder creates a provider instance bound to one credential.
type Builder func(opts Options) (core.Provider, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Builder)
)

// Register allows provider packages to register themselves.
// This should be called from init() functions in provider packages.
func Register(providerType string, builder Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[providerType] = builder
}

// Create instantiates a provider of the given type.
func Create(providerType string, opts Options) (core.Provider, error) {
	registryMu.RLock()
	builder, ok := registry[providerType]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", providerType)
	}
	return builder(opts)
}

// ListRegistered returns the registered provider types, sorted.
func ListRegistered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
