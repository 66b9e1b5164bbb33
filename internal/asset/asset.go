package asset

// Asset represents the metadata of an on-chain asset.
// It is a reference entity with stable identity (ChainAssetID).
// The symbol is NOT identity - just metadata for display.
type Asset struct {
	id         ChainAssetID
	symbol     string
	name       string
	decimals   uint8
	sufficient bool
	priceID    string
}

// NewAsset creates a new Asset with the given parameters.
// Sufficiency defaults to true; use NewInsufficientAsset for assets that
// need an existential-deposit workaround to be held.
func NewAsset(id ChainAssetID, symbol string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}

	return &Asset{
		id:         id,
		symbol:     symbol,
		decimals:   decimals,
		sufficient: true,
	}
}

// NewInsufficientAsset creates an Asset that cannot be held without a
// sufficiency workaround.
func NewInsufficientAsset(id ChainAssetID, symbol string, decimals uint8) *Asset {
	a := NewAsset(id, symbol, decimals)
	a.sufficient = false
	return a
}

// WithName attaches a human-readable name.
func (a *Asset) WithName(name string) *Asset {
	a.name = name
	return a
}

// WithPriceID attaches the identifier used by the price feed for this asset.
func (a *Asset) WithPriceID(priceID string) *Asset {
	a.priceID = priceID
	return a
}

// ID returns the unique identifier for this asset.
func (a *Asset) ID() ChainAssetID {
	return a.id
}

// Symbol returns the ticker symbol (e.g., "DOT", "USDT").
func (a *Asset) Symbol() string {
	return a.symbol
}

// Name returns the human-readable name.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Decimals returns the number of decimal places.
func (a *Asset) Decimals() uint8 {
	return a.decimals
}

// ChainID returns the chain this asset lives on.
func (a *Asset) ChainID() string {
	return a.id.ChainID
}

// IsNative returns true if this is the chain's native asset.
func (a *Asset) IsNative() bool {
	return a.id.IsNative()
}

// IsSufficient reports whether the asset can be held in an account without
// an existential-deposit workaround.
func (a *Asset) IsSufficient() bool {
	return a.sufficient
}

// PriceID returns the price-feed identifier, or "" if the asset is unpriced.
func (a *Asset) PriceID() string {
	return a.priceID
}

// String returns a human-readable representation.
func (a *Asset) String() string {
	return a.symbol
}

// Equals compares two Assets by their ID.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id == other.id
}
