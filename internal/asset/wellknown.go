package asset

// Well-known chain ids used by the default registry and tests.
const (
	ChainPolkadot  = "polkadot"
	ChainAssetHub  = "assethub"
	ChainHydration = "hydration"
	ChainKusama    = "kusama"
	ChainEthereum  = "ethereum"
)

// DefaultRegistry returns a registry pre-populated with commonly routed
// chains and assets. Applications extend it from configuration.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterChain(NewChain(ChainPolkadot, "Polkadot"))
	r.RegisterChain(NewChain(ChainAssetHub, "Polkadot Asset Hub"))
	r.RegisterChain(NewChain(ChainHydration, "Hydration"))
	r.RegisterChain(NewChain(ChainKusama, "Kusama"))
	r.RegisterChain(NewChain(ChainEthereum, "Ethereum").WithEVMChainID(1))

	r.Register(NewAsset(NewNativeAssetID(ChainPolkadot), "DOT", 10).
		WithName("Polkadot").WithPriceID("polkadot"))
	r.Register(NewAsset(NewNativeAssetID(ChainKusama), "KSM", 12).
		WithName("Kusama").WithPriceID("kusama"))
	r.Register(NewAsset(NewNativeAssetID(ChainAssetHub), "DOT", 10).
		WithName("Polkadot").WithPriceID("polkadot"))
	r.Register(NewInsufficientAsset(NewChainAssetID(ChainAssetHub, "1984"), "USDT", 6).
		WithName("Tether USD").WithPriceID("tether"))
	r.Register(NewInsufficientAsset(NewChainAssetID(ChainAssetHub, "1337"), "USDC", 6).
		WithName("USD Coin").WithPriceID("usd-coin"))
	r.Register(NewAsset(NewNativeAssetID(ChainHydration), "HDX", 12).
		WithName("Hydration").WithPriceID("hydradx"))
	r.Register(NewAsset(NewChainAssetID(ChainHydration, "5"), "DOT", 10).
		WithName("Polkadot").WithPriceID("polkadot"))
	r.Register(NewAsset(NewChainAssetID(ChainHydration, "10"), "USDT", 6).
		WithName("Tether USD").WithPriceID("tether"))
	r.Register(NewAsset(NewNativeAssetID(ChainEthereum), "ETH", 18).
		WithName("Ethereum").WithPriceID("ethereum"))
	r.Register(NewAsset(NewChainAssetID(ChainEthereum, "0xdAC17F958D2ee523a2206206994597C13D831ec7"), "USDT", 6).
		WithName("Tether USD").WithPriceID("tether"))

	return r
}
