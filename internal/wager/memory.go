package wager

import (
	"context"
	"strconv"
	"sync"
)

// MarketState is the lifecycle of one in-memory market.
type MarketState string

const (
	MarketOpen     MarketState = "open"
	MarketWon      MarketState = "won"
	MarketLost     MarketState = "lost"
	MarketRefunded MarketState = "refunded"
)

// MemoryPlatform records markets in memory. Used in tests and local runs.
type MemoryPlatform struct {
	mu       sync.Mutex
	seq      int
	openErr  error
	markets  map[string]Market
	states   map[string][]MarketState
	attempts int
}

// NewMemoryPlatform creates an empty in-memory platform.
func NewMemoryPlatform() *MemoryPlatform {
	return &MemoryPlatform{
		markets: make(map[string]Market),
		states:  make(map[string][]MarketState),
	}
}

func (p *MemoryPlatform) OpenMarket(_ context.Context, m Market) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	if p.openErr != nil {
		return "", p.openErr
	}
	p.seq++
	p.markets[m.SessionID] = m
	p.states[m.SessionID] = append(p.states[m.SessionID], MarketOpen)
	return "mkt-" + strconv.Itoa(p.seq), nil
}

func (p *MemoryPlatform) SettleMarket(_ context.Context, sessionID string, won bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.markets[sessionID]; !ok {
		return ErrNoOpenMarket
	}
	delete(p.markets, sessionID)
	state := MarketLost
	if won {
		state = MarketWon
	}
	p.states[sessionID] = append(p.states[sessionID], state)
	return nil
}

func (p *MemoryPlatform) RefundMarket(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.markets[sessionID]; !ok {
		return ErrNoOpenMarket
	}
	delete(p.markets, sessionID)
	p.states[sessionID] = append(p.states[sessionID], MarketRefunded)
	return nil
}

// FailOpens forces subsequent OpenMarket calls to return err; nil restores
// normal behavior.
func (p *MemoryPlatform) FailOpens(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.openErr = err
}

// OpenAttempts counts every OpenMarket call, including failed ones.
func (p *MemoryPlatform) OpenAttempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// History returns the ordered market states seen for a session.
func (p *MemoryPlatform) History(sessionID string) []MarketState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]MarketState(nil), p.states[sessionID]...)
}

// OpenCount reports how many markets are currently open.
func (p *MemoryPlatform) OpenCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.markets)
}

var _ Platform = (*MemoryPlatform)(nil)
