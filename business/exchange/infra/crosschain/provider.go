package crosschain

import (
	"context"

	"github.com/routefi/exchange-router/business/exchange/app"
	"github.com/routefi/exchange-router/business/exchange/domain"
)

var _ app.VenueProvider = (*Provider)(nil)

// Provider exposes the transfer service's connections as graph edges.
type Provider struct {
	client *Client
}

// NewProvider creates the venue provider.
func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) ID() string {
	return "crosschain"
}

func (p *Provider) AvailableEdges(ctx context.Context) ([]domain.Edge, error) {
	connections, err := p.client.Connections(ctx)
	if err != nil {
		return nil, err
	}

	edges := make([]domain.Edge, 0, len(connections))
	for _, dto := range connections {
		edges = append(edges, newEdge(p.client, dto))
	}
	return edges, nil
}
