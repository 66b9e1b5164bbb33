package domain

import "github.com/routefi/exchange-router/internal/asset"

// AssetNode identifies a graph vertex: a (chain, asset) pair.
// It is comparable and usable as a map key.
type AssetNode = asset.ChainAssetID
