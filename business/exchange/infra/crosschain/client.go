// Package crosschain implements a venue over a cross-chain transfer
// service's REST API: connections between assets on different chains,
// quoted and executed through the service.
package crosschain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/routefi/exchange-router/internal/apperror"
	"github.com/routefi/exchange-router/internal/circuitbreaker"
	"github.com/routefi/exchange-router/internal/config"
	"github.com/routefi/exchange-router/internal/httpclient"
	"github.com/routefi/exchange-router/internal/logger"
	"github.com/routefi/exchange-router/internal/ratelimit"
)

const meterName = "crosschain"

// connectionDTO is one transferable pair as reported by the service.
type connectionDTO struct {
	OriginChain              string  `json:"origin_chain"`
	OriginAsset              string  `json:"origin_asset"`
	DestinationChain         string  `json:"destination_chain"`
	DestinationAsset         string  `json:"destination_asset"`
	Weight                   int64   `json:"weight"`
	RequiresOriginKeepAlive  bool    `json:"requires_origin_keep_alive"`
	CanPayNonNativeFees      bool    `json:"can_pay_non_native_fees"`
	EstimatedCostUSD         float64 `json:"estimated_cost_usd"`
	EstimatedDeliverySeconds int     `json:"estimated_delivery_seconds"`
}

type connectionsResponse struct {
	Connections []connectionDTO `json:"connections"`
}

type quoteRequest struct {
	OriginChain      string `json:"origin_chain"`
	OriginAsset      string `json:"origin_asset"`
	DestinationChain string `json:"destination_chain"`
	DestinationAsset string `json:"destination_asset"`
	Amount           string `json:"amount"`
	Direction        string `json:"direction"`
}

type quoteResponse struct {
	Amount string `json:"amount"`
}

type feeComponentDTO struct {
	Amount              string `json:"amount"`
	Chain               string `json:"chain"`
	Asset               string `json:"asset"`
	FromSelectedAccount bool   `json:"from_selected_account"`
}

type feeRequest struct {
	OriginChain      string `json:"origin_chain"`
	OriginAsset      string `json:"origin_asset"`
	DestinationChain string `json:"destination_chain"`
	DestinationAsset string `json:"destination_asset"`
	Amount           string `json:"amount"`
	FeeChain         string `json:"fee_chain"`
	FeeAsset         string `json:"fee_asset"`
}

type feeResponse struct {
	Components []feeComponentDTO `json:"components"`
}

type transferRequest struct {
	OriginChain      string `json:"origin_chain"`
	OriginAsset      string `json:"origin_asset"`
	DestinationChain string `json:"destination_chain"`
	DestinationAsset string `json:"destination_asset"`
	AmountIn         string `json:"amount_in"`
	MinAmountOut     string `json:"min_amount_out"`
}

type transferResponse struct {
	ID string `json:"id"`
}

type transferStatusResponse struct {
	Status    string `json:"status"`
	AmountOut string `json:"amount_out"`
	Error     string `json:"error"`
}

const (
	transferStatusPending   = "pending"
	transferStatusDelivered = "delivered"
	transferStatusFailed    = "failed"
)

type clientMetrics struct {
	quotesTotal    metric.Int64Counter
	transfersTotal metric.Int64Counter
	pollCycles     metric.Int64Counter
}

// Client wraps the transfer service's REST API with throttling and a
// circuit breaker.
type Client struct {
	http    *httpclient.Client
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[struct{}]
	logger  logger.LoggerInterface
	metrics *clientMetrics

	pollInterval time.Duration
}

// NewClient creates the venue client from config.
func NewClient(cfg config.CrosschainVenueConfig, log logger.LoggerInterface) (*Client, error) {
	httpClient, err := httpclient.New("crosschain", cfg.BaseURL,
		httpclient.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return nil, fmt.Errorf("create crosschain client: %w", err)
	}

	meter := otel.Meter(meterName)
	m := &clientMetrics{}
	m.quotesTotal, _ = meter.Int64Counter("crosschain_quotes_total",
		metric.WithDescription("Total quote requests"))
	m.transfersTotal, _ = meter.Int64Counter("crosschain_transfers_total",
		metric.WithDescription("Total transfer submissions"))
	m.pollCycles, _ = meter.Int64Counter("crosschain_poll_cycles_total",
		metric.WithDescription("Transfer status poll cycles"))

	return &Client{
		http:         httpClient,
		limiter:      ratelimit.New(cfg.RequestsPerMin),
		cb:           circuitbreaker.New[struct{}](circuitbreaker.DefaultConfig("crosschain")),
		logger:       log,
		metrics:      m,
		pollInterval: 5 * time.Second,
	}, nil
}

// call runs one REST request through the limiter and breaker.
func (c *Client) call(ctx context.Context, fn func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Connections fetches the currently transferable pairs.
func (c *Client) Connections(ctx context.Context) ([]connectionDTO, error) {
	var resp connectionsResponse
	err := c.call(ctx, func() error {
		return c.http.GetJSON(ctx, "/v1/connections", nil, &resp)
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeVenueFetchFailed, "crosschain connections")
	}
	return resp.Connections, nil
}

// Quote converts an amount across one connection.
func (c *Client) Quote(ctx context.Context, req quoteRequest) (*big.Int, error) {
	c.metrics.quotesTotal.Add(ctx, 1)

	var resp quoteResponse
	err := c.call(ctx, func() error {
		return c.http.PostJSON(ctx, "/v1/quote", req, &resp)
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeVenueQuoteFailed, "crosschain quote")
	}

	return parseAmount(resp.Amount)
}

// Fee fetches the transfer fee breakdown.
func (c *Client) Fee(ctx context.Context, req feeRequest) ([]feeComponentDTO, error) {
	var resp feeResponse
	err := c.call(ctx, func() error {
		return c.http.PostJSON(ctx, "/v1/fee", req, &resp)
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeVenueQuoteFailed, "crosschain fee")
	}
	return resp.Components, nil
}

// Transfer submits a transfer and polls until it settles, returning
// the delivered amount.
func (c *Client) Transfer(ctx context.Context, req transferRequest) (*big.Int, error) {
	c.metrics.transfersTotal.Add(ctx, 1)

	var submitted transferResponse
	err := c.call(ctx, func() error {
		return c.http.PostJSON(ctx, "/v1/transfers", req, &submitted)
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSegmentExecutionFailed, "crosschain submit")
	}

	c.logger.Info(ctx, "crosschain transfer submitted", "id", submitted.ID)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		c.metrics.pollCycles.Add(ctx, 1)

		var status transferStatusResponse
		// Polls bypass the limiter: a slow transfer should not starve quoting.
		if err := c.http.GetJSON(ctx, "/v1/transfers/"+submitted.ID, nil, &status); err != nil {
			c.logger.Warn(ctx, "transfer status poll failed", "id", submitted.ID, "error", err)
			continue
		}

		switch status.Status {
		case transferStatusDelivered:
			return parseAmount(status.AmountOut)
		case transferStatusFailed:
			return nil, apperror.Routing(apperror.CodeSegmentExecutionFailed,
				fmt.Sprintf("transfer %s failed: %s", submitted.ID, status.Error))
		case transferStatusPending:
		default:
			c.logger.Warn(ctx, "unknown transfer status", "id", submitted.ID, "status", status.Status)
		}
	}
}

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, apperror.Routing(apperror.CodeInvalidInput, "malformed amount: "+s)
	}
	return amount, nil
}
