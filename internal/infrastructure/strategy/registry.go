package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kitsbundles/backend/internal/domain/bundle"
	"github.com/kitsbundles/backend/internal/domain/shared"
)

// StrategyRegistry maps each bundle pricing method to the strategy that prices it.
type StrategyRegistry struct {
	mu      sync.RWMutex
	pricing map[bundle.MethodKind]bundle.PricingStrategy
}

// NewStrategyRegistry creates an empty registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		pricing: make(map[bundle.MethodKind]bundle.PricingStrategy),
	}
}

// RegisterPricingStrategy registers s for the method it declares.
func (r *StrategyRegistry) RegisterPricingStrategy(s bundle.PricingStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	method := s.Method()
	if existing, exists := r.pricing[method]; exists {
		return fmt.Errorf("%w: pricing method '%s' already handled by '%s'",
			shared.ErrAlreadyExists, method, existing.Name())
	}
	r.pricing[method] = s
	return nil
}

// ForMethod implements bundle.StrategyResolver.
func (r *StrategyRegistry) ForMethod(method bundle.MethodKind) (bundle.PricingStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.pricing[method]
	if !exists {
		return nil, fmt.Errorf("%w: no pricing strategy for method '%s'", shared.ErrNotFound, method)
	}
	return s, nil
}

// ListPricingStrategies returns the registered strategy names, sorted.
func (r *StrategyRegistry) ListPricingStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.pricing))
	for _, s := range r.pricing {
		names = append(names, s.Name())
	}
	sort.Strings(names)
	return names
}

// UnregisterPricingStrategy removes the strategy handling method.
func (r *StrategyRegistry) UnregisterPricingStrategy(method bundle.MethodKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pricing[method]; !exists {
		return fmt.Errorf("%w: no pricing strategy for method '%s'", shared.ErrNotFound, method)
	}
	delete(r.pricing, method)
	return nil
}
