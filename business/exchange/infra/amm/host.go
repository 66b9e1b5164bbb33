// Package amm implements an EVM automated-market-maker venue: edges
// between ERC20 assets on one chain, quoted through the venue's quoter
// contract and executed through its swap router.
package amm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/routefi/exchange-router/business/exchange/infra/evm"
	"github.com/routefi/exchange-router/internal/apperror"
	"github.com/routefi/exchange-router/internal/asset"
	"github.com/routefi/exchange-router/internal/circuitbreaker"
	"github.com/routefi/exchange-router/internal/config"
	"github.com/routefi/exchange-router/internal/logger"
	"github.com/routefi/exchange-router/internal/ratelimit"
)

const (
	tracerName = "amm"
	meterName  = "amm"
)

// hostMetrics holds OTEL metric instruments.
type hostMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteErrors  metric.Int64Counter
	swapsTotal   metric.Int64Counter
	quoteLatency metric.Float64Histogram
}

// Host bundles everything the venue's edges and operations share: the
// chain client, contract bindings, signing, throttling and telemetry.
type Host struct {
	chainID   string
	client    *ethclient.Client
	signer    *evm.Signer
	gasOracle *evm.GasOracle
	registry  *asset.Registry

	quoter    common.Address
	router    common.Address
	quoterABI abi.ABI
	routerABI abi.ABI
	feeTiers  []int

	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *hostMetrics
}

// NewHost creates the venue host from config.
func NewHost(
	cfg config.AMMVenueConfig,
	client *ethclient.Client,
	signer *evm.Signer,
	registry *asset.Registry,
	log logger.LoggerInterface,
) (*Host, error) {
	quoterABI, err := abi.JSON(strings.NewReader(QuoterV2ABI))
	if err != nil {
		return nil, fmt.Errorf("parse quoter ABI: %w", err)
	}
	routerABI, err := abi.JSON(strings.NewReader(SwapRouterABI))
	if err != nil {
		return nil, fmt.Errorf("parse router ABI: %w", err)
	}

	h := &Host{
		chainID:   cfg.ChainID,
		client:    client,
		signer:    signer,
		gasOracle: evm.NewGasOracle(client, evm.DefaultGasOracleConfig(), log),
		registry:  registry,
		quoter:    cfg.QuoterAddressHex(),
		router:    cfg.RouterAddressHex(),
		quoterABI: quoterABI,
		routerABI: routerABI,
		feeTiers:  []int{cfg.DefaultFeeBps * 100, FeeTier005, FeeTier030, FeeTier100},
		limiter:   ratelimit.New(cfg.RequestsPerMin),
		cb:        circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("amm-quoter")),
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}

	if err := h.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return h, nil
}

func (h *Host) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	h.metrics = &hostMetrics{}

	h.metrics.quotesTotal, err = meter.Int64Counter(
		"amm_quotes_total",
		metric.WithDescription("Total quote requests"),
	)
	if err != nil {
		return err
	}

	h.metrics.quoteErrors, err = meter.Int64Counter(
		"amm_quote_errors_total",
		metric.WithDescription("Total quote errors"),
	)
	if err != nil {
		return err
	}

	h.metrics.swapsTotal, err = meter.Int64Counter(
		"amm_swaps_total",
		metric.WithDescription("Total swap submissions"),
	)
	if err != nil {
		return err
	}

	h.metrics.quoteLatency, err = meter.Float64Histogram(
		"amm_quote_latency_ms",
		metric.WithDescription("Quote request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

// callQuoter runs one quoter eth_call through the limiter and breaker.
func (h *Host) callQuoter(ctx context.Context, callData []byte) ([]byte, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := h.cb.Execute(func() ([]byte, error) {
		return h.client.CallContract(ctx, ethereum.CallMsg{
			To:   &h.quoter,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, apperror.External(apperror.CodeContractCallFailed, "quoter call", err)
	}
	return result, nil
}

// quoteExactInputSingle quotes one hop, trying every fee tier and
// keeping the highest output.
func (h *Host) quoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*QuoteResult, int, error) {
	ctx, span := h.tracer.Start(ctx, "amm.quote_exact_input",
		trace.WithAttributes(
			attribute.String("token_in", tokenIn.Hex()),
			attribute.String("token_out", tokenOut.Hex()),
		),
	)
	defer span.End()

	h.metrics.quotesTotal.Add(ctx, 1)

	var (
		best     *QuoteResult
		bestTier int
	)

	for _, tier := range h.feeTiers {
		callData, err := h.quoterABI.Pack("quoteExactInputSingle", QuoteExactInputSingleParams{
			TokenIn:           tokenIn,
			TokenOut:          tokenOut,
			AmountIn:          amountIn,
			Fee:               big.NewInt(int64(tier)),
			SqrtPriceLimitX96: big.NewInt(0),
		})
		if err != nil {
			return nil, 0, fmt.Errorf("encode quote call: %w", err)
		}

		raw, err := h.callQuoter(ctx, callData)
		if err != nil {
			continue // no pool at this tier
		}

		outputs, err := h.quoterABI.Unpack("quoteExactInputSingle", raw)
		if err != nil || len(outputs) < 4 {
			continue
		}

		quote := &QuoteResult{
			Amount:      outputs[0].(*big.Int),
			GasEstimate: outputs[3].(*big.Int),
		}
		if best == nil || quote.Amount.Cmp(best.Amount) > 0 {
			best = quote
			bestTier = tier
		}
	}

	if best == nil {
		h.metrics.quoteErrors.Add(ctx, 1)
		return nil, 0, apperror.Routing(apperror.CodeVenueQuoteFailed,
			fmt.Sprintf("no pool for %s -> %s", tokenIn.Hex(), tokenOut.Hex()))
	}

	return best, bestTier, nil
}

// quoteExactOutputSingle finds the cheapest input that yields amountOut,
// trying every fee tier.
func (h *Host) quoteExactOutputSingle(ctx context.Context, tokenIn, tokenOut common.Address, amountOut *big.Int) (*QuoteResult, int, error) {
	h.metrics.quotesTotal.Add(ctx, 1)

	var (
		best     *QuoteResult
		bestTier int
	)

	for _, tier := range h.feeTiers {
		callData, err := h.quoterABI.Pack("quoteExactOutputSingle", QuoteExactOutputSingleParams{
			TokenIn:           tokenIn,
			TokenOut:          tokenOut,
			Amount:            amountOut,
			Fee:               big.NewInt(int64(tier)),
			SqrtPriceLimitX96: big.NewInt(0),
		})
		if err != nil {
			return nil, 0, fmt.Errorf("encode quote call: %w", err)
		}

		raw, err := h.callQuoter(ctx, callData)
		if err != nil {
			continue
		}

		outputs, err := h.quoterABI.Unpack("quoteExactOutputSingle", raw)
		if err != nil || len(outputs) < 4 {
			continue
		}

		quote := &QuoteResult{
			Amount:      outputs[0].(*big.Int),
			GasEstimate: outputs[3].(*big.Int),
		}
		if best == nil || quote.Amount.Cmp(best.Amount) < 0 {
			best = quote
			bestTier = tier
		}
	}

	if best == nil {
		h.metrics.quoteErrors.Add(ctx, 1)
		return nil, 0, apperror.Routing(apperror.CodeVenueQuoteFailed,
			fmt.Sprintf("no pool for %s -> %s", tokenIn.Hex(), tokenOut.Hex()))
	}

	return best, bestTier, nil
}

// quoteExactInput quotes a multi-hop path.
func (h *Host) quoteExactInput(ctx context.Context, path []byte, amountIn *big.Int) (*QuoteResult, error) {
	h.metrics.quotesTotal.Add(ctx, 1)

	callData, err := h.quoterABI.Pack("quoteExactInput", path, amountIn)
	if err != nil {
		return nil, fmt.Errorf("encode path quote call: %w", err)
	}

	raw, err := h.callQuoter(ctx, callData)
	if err != nil {
		h.metrics.quoteErrors.Add(ctx, 1)
		return nil, err
	}

	outputs, err := h.quoterABI.Unpack("quoteExactInput", raw)
	if err != nil || len(outputs) < 4 {
		return nil, apperror.Routing(apperror.CodeVenueQuoteFailed, "decode path quote")
	}

	return &QuoteResult{
		Amount:      outputs[0].(*big.Int),
		GasEstimate: outputs[3].(*big.Int),
	}, nil
}

// tokenAddress resolves a node's ERC20 contract address. Native assets
// and non-EVM nodes have no address here.
func (h *Host) tokenAddress(node asset.ChainAssetID) (common.Address, bool) {
	if node.ChainID != h.chainID || node.IsNative() {
		return common.Address{}, false
	}
	if !common.IsHexAddress(node.AssetID) {
		return common.Address{}, false
	}
	return common.HexToAddress(node.AssetID), true
}
