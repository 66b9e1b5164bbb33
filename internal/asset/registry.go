package asset

import (
	"fmt"
	"sync"
)

// Registry is a thread-safe registry of known chains and assets.
// It plays the chain-registry role: edge validation and USD-anchor lookup
// both resolve metadata through it.
type Registry struct {
	chains   map[string]*Chain
	byID     map[ChainAssetID]*Asset
	bySymbol map[string][]*Asset // symbol -> assets (can repeat across chains)
	mu       sync.RWMutex
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		chains:   make(map[string]*Chain),
		byID:     make(map[ChainAssetID]*Asset),
		bySymbol: make(map[string][]*Asset),
	}
}

// RegisterChain adds a chain to the registry.
// Panics if a chain with the same ID is already registered.
func (r *Registry) RegisterChain(c *Chain) {
	if c == nil {
		panic("asset: cannot register nil chain")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.chains[c.ID()]; exists {
		panic(fmt.Sprintf("asset: chain %s already registered", c.ID()))
	}
	r.chains[c.ID()] = c
}

// Register adds an asset to the registry.
// Panics if an asset with the same ID is already registered.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := a.ID()
	if _, exists := r.byID[id]; exists {
		panic(fmt.Sprintf("asset: %s already registered", id))
	}

	r.byID[id] = a
	r.bySymbol[a.Symbol()] = append(r.bySymbol[a.Symbol()], a)
}

// Chain retrieves chain metadata by id.
func (r *Registry) Chain(id string) (*Chain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.chains[id]
	return c, ok
}

// Get retrieves an asset by its ID.
func (r *Registry) Get(id ChainAssetID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	return a, ok
}

// MustGet retrieves an asset by its ID, panics if not found.
func (r *Registry) MustGet(id ChainAssetID) *Asset {
	a, ok := r.Get(id)
	if !ok {
		panic(fmt.Sprintf("asset: %s not found in registry", id))
	}
	return a
}

// NativeAsset returns the native asset of the given chain, if registered.
func (r *Registry) NativeAsset(chainID string) (*Asset, bool) {
	return r.Get(NewNativeAssetID(chainID))
}

// GetBySymbol retrieves all assets with the given symbol.
// Returns nil if no assets found.
func (r *Registry) GetBySymbol(symbol string) []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assets := r.bySymbol[symbol]
	if len(assets) == 0 {
		return nil
	}

	result := make([]*Asset, len(assets))
	copy(result, assets)
	return result
}

// AllAssets returns a snapshot of every registered asset.
func (r *Registry) AllAssets() []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Asset, 0, len(r.byID))
	for _, a := range r.byID {
		result = append(result, a)
	}
	return result
}
