package payment

import (
	"context"
	"sync"
)

var _ Provider = &guardedProvider{}

type guardedProvider struct {
	Provider

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Guarded wraps a provider so a session can never have two settlements running at
// once. The second caller gets REASON_SETTLE_IN_PROGRESS and the provider is not called.
func Guarded(p Provider) Provider {
	if g, ok := p.(*guardedProvider); ok {
		return g
	}
	return &guardedProvider{
		Provider: p,
		inFlight: map[string]struct{}{},
	}
}

func (g *guardedProvider) Unwrap() Provider {
	return g.Provider
}

func (g *guardedProvider) Settle(ctx context.Context, req SettleRequest) (SettlementResult, error) {
	g.mu.Lock()
	if _, busy := g.inFlight[req.SessionID]; busy {
		g.mu.Unlock()
		return SettlementResult{}, NewSettleInProgressError(req.SessionID)
	}
	g.inFlight[req.SessionID] = struct{}{}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.inFlight, req.SessionID)
		g.mu.Unlock()
	}()

	return g.Provider.Settle(ctx, req)
}
