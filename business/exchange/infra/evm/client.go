// Package evm provides shared EVM plumbing for venue adapters: client
// dialing, transaction signing and gas price discovery.
package evm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Dial connects to an EVM JSON-RPC endpoint.
func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial evm endpoint %s: %w", url, err)
	}
	return client, nil
}
