// Package asset provides a type-safe model for chains, assets and amounts.
// The core uses big.Int for exact on-chain representation.
// decimal.Decimal is only used at boundaries (parsing, display, USD math).
package asset

import "fmt"

// ChainAssetID uniquely identifies an asset by chain and on-chain asset id.
// This is the TRUE identity - not the symbol. It is comparable and usable
// as a map key.
type ChainAssetID struct {
	ChainID string
	AssetID string
}

// NewChainAssetID creates an id from its two components.
func NewChainAssetID(chainID, assetID string) ChainAssetID {
	return ChainAssetID{ChainID: chainID, AssetID: assetID}
}

// NativeAssetMarker is the asset id used for a chain's native asset.
const NativeAssetMarker = "native"

// NewNativeAssetID creates the id of a chain's native asset.
func NewNativeAssetID(chainID string) ChainAssetID {
	return ChainAssetID{ChainID: chainID, AssetID: NativeAssetMarker}
}

// IsNative returns true if this is a chain's native asset.
func (id ChainAssetID) IsNative() bool {
	return id.AssetID == NativeAssetMarker
}

// IsZero returns true for the zero value.
func (id ChainAssetID) IsZero() bool {
	return id.ChainID == "" && id.AssetID == ""
}

// String returns a human-readable representation.
func (id ChainAssetID) String() string {
	return fmt.Sprintf("%s:%s", id.ChainID, id.AssetID)
}
