package asset

// Chain holds the metadata the router needs about one chain.
type Chain struct {
	id         string
	name       string
	evmChainID uint64 // 0 = not an EVM chain
}

// NewChain creates chain metadata.
func NewChain(id, name string) *Chain {
	if id == "" {
		panic("asset: empty chain id")
	}
	return &Chain{id: id, name: name}
}

// WithEVMChainID marks the chain as EVM-compatible.
func (c *Chain) WithEVMChainID(evmChainID uint64) *Chain {
	c.evmChainID = evmChainID
	return c
}

// ID returns the chain identifier.
func (c *Chain) ID() string {
	return c.id
}

// Name returns the human-readable chain name.
func (c *Chain) Name() string {
	if c.name == "" {
		return c.id
	}
	return c.name
}

// NativeAssetID returns the id of the chain's native asset.
func (c *Chain) NativeAssetID() ChainAssetID {
	return NewNativeAssetID(c.id)
}

// IsEVM reports whether the chain speaks the Ethereum JSON-RPC protocol.
func (c *Chain) IsEVM() bool {
	return c.evmChainID != 0
}

// EVMChainID returns the EVM chain id (0 for non-EVM chains).
func (c *Chain) EVMChainID() uint64 {
	return c.evmChainID
}
