package payment

import (
	"context"
	"fmt"
	"sync"
)

// Key is one entry of the payment keys endpoint.
type Key struct {
	Title     string `json:"title"`
	KeyString string `json:"key_string"`
	KeyTest   string `json:"key_test"`
}

type KeyRepository interface {
	GetPaymentKeys(ctx context.Context) ([]Key, error)
}

// For returns the live or test key.
func (k Key) For(live bool) string {
	if live {
		return k.KeyString
	}
	return k.KeyTest
}

// Factory builds a provider from the publishable/client key of its method.
type Factory func(publishableKey string) (Provider, error)

// Registry holds the providers that are usable for the current keys. A method
// without a key is unavailable end-to-end.
type Registry struct {
	mu        sync.RWMutex
	providers map[Method]Provider
	disabled  map[Method]bool
}

func NewRegistry(keys []Key, live bool, factories map[Method]Factory) (*Registry, error) {
	r := &Registry{
		providers: map[Method]Provider{},
		disabled:  map[Method]bool{},
	}

	for _, k := range keys {
		method, ok := ParseMethod(k.Title)
		if !ok {
			continue
		}
		factory, ok := factories[method]
		if !ok {
			continue
		}
		publishable := k.For(live)
		if publishable == "" {
			continue
		}

		p, err := factory(publishable)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s provider: %w", method, err)
		}
		r.providers[method] = Guarded(p)
	}

	return r, nil
}

func (r *Registry) Provider(m Method) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[m]
	if !ok || r.disabled[m] {
		return nil, NewProviderUnavailableError(m)
	}
	return p, nil
}

// Available lists the usable methods in display order.
func (r *Registry) Available() []Method {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Method{}
	for _, m := range Methods {
		if _, ok := r.providers[m]; ok && !r.disabled[m] {
			out = append(out, m)
		}
	}
	return out
}

// Disable hides a method after the provider reported a configuration problem.
func (r *Registry) Disable(m Method) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled[m] = true
}
