// Package wallet provides the config-backed answers path admission
// needs about the selected wallet and its chains.
package wallet

import (
	"strings"

	"github.com/routefi/exchange-router/business/exchange/app"
	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/asset"
	"github.com/routefi/exchange-router/internal/config"
)

var (
	_ app.WalletProvider           = (*Provider)(nil)
	_ app.DelayedExecutionProvider = (*Provider)(nil)
	_ app.FeeSupportProvider       = (*Provider)(nil)
	_ app.SufficiencyProvider      = (*Provider)(nil)
)

// Provider answers account, execution-delay, fee-payment and asset
// sufficiency queries for the configured wallet.
type Provider struct {
	registry *asset.Registry

	accountChains map[string]struct{}
	delayedChains map[string]struct{}
	feeAssets     map[domain.AssetNode]struct{}
}

// NewProvider builds the provider from wallet configuration. Fee payment
// assets are listed as "chain:asset" pairs; malformed entries are
// skipped.
func NewProvider(cfg config.WalletConfig, registry *asset.Registry) *Provider {
	p := &Provider{
		registry:      registry,
		accountChains: make(map[string]struct{}, len(cfg.AccountChains)),
		delayedChains: make(map[string]struct{}, len(cfg.DelayedExecutionChains)),
		feeAssets:     make(map[domain.AssetNode]struct{}, len(cfg.FeePaymentAssets)),
	}

	for _, chain := range cfg.AccountChains {
		p.accountChains[chain] = struct{}{}
	}
	for _, chain := range cfg.DelayedExecutionChains {
		p.delayedChains[chain] = struct{}{}
	}
	for _, pair := range cfg.FeePaymentAssets {
		chainID, assetID, ok := strings.Cut(pair, ":")
		if !ok || chainID == "" || assetID == "" {
			continue
		}
		p.feeAssets[asset.NewChainAssetID(chainID, assetID)] = struct{}{}
	}

	return p
}

// HasAccount reports whether the wallet holds an account on the chain.
func (p *Provider) HasAccount(chainID string) bool {
	_, ok := p.accountChains[chainID]
	return ok
}

// ExecutesCallWithDelay reports whether the wallet's calls on the chain
// go through a delay (multisig, announced proxy). Such chains cannot
// host intermediate segments: the amount arriving from the previous
// segment would sit unusable until the delay elapses.
func (p *Provider) ExecutesCallWithDelay(chainID string) bool {
	_, ok := p.delayedChains[chainID]
	return ok
}

// CanPayFeeInNonNativeAsset reports whether the node is configured as a
// fee payment asset on its chain. Native assets always qualify; callers
// check IsNative first.
func (p *Provider) CanPayFeeInNonNativeAsset(node domain.AssetNode) bool {
	_, ok := p.feeAssets[node]
	return ok
}

// IsSufficient reports whether the asset can be held on its own,
// without a native-asset existential deposit backing the account.
// Unknown assets are treated as insufficient.
func (p *Provider) IsSufficient(node domain.AssetNode) bool {
	a, ok := p.registry.Get(node)
	if !ok {
		return false
	}
	return a.IsSufficient()
}
