package amm

import (
	"context"

	"github.com/routefi/exchange-router/business/exchange/app"
	"github.com/routefi/exchange-router/business/exchange/domain"
)

var _ app.VenueProvider = (*Provider)(nil)

// Provider exposes the venue's pair graph: every ordered pair of ERC20
// assets registered on the venue's chain. Whether a pool actually
// exists for a pair is decided at quote time; a pair without pools
// simply fails to quote and drops out of candidate selection.
type Provider struct {
	host *Host
}

// NewProvider creates the venue provider.
func NewProvider(host *Host) *Provider {
	return &Provider{host: host}
}

// ID identifies the venue in logs and metrics.
func (p *Provider) ID() string {
	return "amm:" + p.host.chainID
}

// AvailableEdges lists both directions of every ERC20 pair on the
// venue's chain.
func (p *Provider) AvailableEdges(_ context.Context) ([]domain.Edge, error) {
	var nodes []domain.AssetNode
	for _, a := range p.host.registry.AllAssets() {
		id := a.ID()
		if _, ok := p.host.tokenAddress(id); !ok {
			continue
		}
		nodes = append(nodes, id)
	}

	var edges []domain.Edge
	for _, origin := range nodes {
		for _, destination := range nodes {
			if origin == destination {
				continue
			}

			tokenIn, _ := p.host.tokenAddress(origin)
			tokenOut, _ := p.host.tokenAddress(destination)

			edges = append(edges, &Edge{
				host:        p.host,
				origin:      origin,
				destination: destination,
				tokenIn:     tokenIn,
				tokenOut:    tokenOut,
			})
		}
	}

	return edges, nil
}
