// Package settings exposes the slice of host-application configuration
// that affects conversion identity: the reporting currency. Its hash is
// folded into every cache key, so changing the target currency makes old
// cache entries unreachable without an explicit sweep.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/finvoq/fxcache/pkg/currency"
)

// Provider supplies the current target/reporting currency. Implementations
// may fail; callers treat failure as "default to USD".
type Provider interface {
	TargetCurrency(ctx context.Context) (currency.Code, error)
}

// Memory is a Provider holding the target currency in process memory,
// mutable by the host application.
type Memory struct {
	mu   sync.RWMutex
	code currency.Code
}

// NewMemory creates a provider with an initial target currency.
func NewMemory(code currency.Code) *Memory {
	return &Memory{code: code}
}

func (m *Memory) TargetCurrency(context.Context) (currency.Code, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.code, nil
}

// Set replaces the target currency.
func (m *Memory) Set(code currency.Code) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.code = code
}

// hashed is the stable encoding the settings hash is computed over. Only
// fields that affect conversion identity belong here.
type hashed struct {
	TargetCurrency currency.Code `json:"target_currency"`
}

// Hash returns a deterministic fingerprint of the currency-affecting
// settings.
func Hash(target currency.Code) string {
	raw, _ := json.Marshal(hashed{TargetCurrency: target})
	return fmt.Sprintf("%016x", xxhash.Sum64(raw))
}
