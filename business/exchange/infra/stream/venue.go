// Package stream implements a venue over a streaming market maker: the
// feed pushes quotable pairs with their reserves, edges quote locally
// from the last pushed state, and fills are requested over the same
// connection.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/routefi/exchange-router/business/exchange/app"
	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/apperror"
	"github.com/routefi/exchange-router/internal/asset"
	"github.com/routefi/exchange-router/internal/config"
	"github.com/routefi/exchange-router/internal/logger"
	"github.com/routefi/exchange-router/internal/wsconn"
)

const meterName = "stream"

// pairDTO is one quotable pair pushed by the feed.
type pairDTO struct {
	BaseChain    string `json:"base_chain"`
	BaseAsset    string `json:"base_asset"`
	QuoteChain   string `json:"quote_chain"`
	QuoteAsset   string `json:"quote_asset"`
	BaseReserve  string `json:"base_reserve"`
	QuoteReserve string `json:"quote_reserve"`
	FeeBps       int64  `json:"fee_bps"`
	Weight       int64  `json:"weight"`
}

type feedMessage struct {
	Type  string    `json:"type"`
	Pairs []pairDTO `json:"pairs,omitempty"`

	// order result fields
	ID        string `json:"id,omitempty"`
	Status    string `json:"status,omitempty"`
	AmountOut string `json:"amount_out,omitempty"`
	Error     string `json:"error,omitempty"`
}

type orderRequest struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	BaseChain  string `json:"base_chain"`
	BaseAsset  string `json:"base_asset"`
	QuoteChain string `json:"quote_chain"`
	QuoteAsset string `json:"quote_asset"`
	AmountIn   string `json:"amount_in"`
	MinOut     string `json:"min_out"`
}

const (
	messageTypePairs       = "pairs"
	messageTypeOrderResult = "order_result"

	orderStatusFilled   = "filled"
	orderStatusRejected = "rejected"
)

type orderResult struct {
	amountOut string
	err       error
}

type venueMetrics struct {
	pairUpdates metric.Int64Counter
	ordersTotal metric.Int64Counter
	staleDrops  metric.Int64Counter
}

var _ app.VenueProvider = (*Venue)(nil)

// Venue holds the feed connection and the latest pushed pair state.
type Venue struct {
	cfg    config.StreamVenueConfig
	ws     *wsconn.Client
	logger logger.LoggerInterface

	mu        sync.RWMutex
	pairs     map[pairKey]*pairState
	updatedAt time.Time
	orderSeq  int
	pending   map[string]chan orderResult

	// onUpdate fires whenever the pushed pair set changes; onResync
	// fires when the connection is re-established.
	onUpdate func()
	onResync func()

	metrics *venueMetrics
}

type pairKey struct {
	base  domain.AssetNode
	quote domain.AssetNode
}

// NewVenue creates the venue; Start must be called before use.
func NewVenue(cfg config.StreamVenueConfig, log logger.LoggerInterface, onUpdate, onResync func()) *Venue {
	v := &Venue{
		cfg:      cfg,
		logger:   log,
		pairs:    make(map[pairKey]*pairState),
		pending:  make(map[string]chan orderResult),
		onUpdate: onUpdate,
		onResync: onResync,
	}

	wsCfg := wsconn.DefaultConfig(cfg.WebSocketURL)
	if cfg.InitialBackoff > 0 {
		wsCfg.InitialBackoff = cfg.InitialBackoff
	}
	if cfg.MaxBackoff > 0 {
		wsCfg.MaxBackoff = cfg.MaxBackoff
	}
	wsCfg.OnReconnect = func() {
		if v.onResync != nil {
			v.onResync()
		}
	}
	v.ws = wsconn.New(wsCfg)

	meter := otel.Meter(meterName)
	v.metrics = &venueMetrics{}
	v.metrics.pairUpdates, _ = meter.Int64Counter("stream_pair_updates_total",
		metric.WithDescription("Pair state updates received from the feed"))
	v.metrics.ordersTotal, _ = meter.Int64Counter("stream_orders_total",
		metric.WithDescription("Orders sent to the market maker"))
	v.metrics.staleDrops, _ = meter.Int64Counter("stream_stale_drops_total",
		metric.WithDescription("Edge fetches dropped because the feed went stale"))

	return v
}

// Start connects to the feed and runs the dispatch loop.
func (v *Venue) Start(ctx context.Context) error {
	if err := v.ws.Connect(ctx); err != nil {
		return err
	}

	go v.dispatch(ctx)
	return nil
}

// Stop closes the feed connection.
func (v *Venue) Stop() {
	v.ws.Close()
}

func (v *Venue) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-v.ws.Messages():
			if !ok {
				return
			}
			v.handleMessage(ctx, data)
		}
	}
}

func (v *Venue) handleMessage(ctx context.Context, data []byte) {
	var msg feedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		v.logger.Warn(ctx, "malformed feed message", "error", err)
		return
	}

	switch msg.Type {
	case messageTypePairs:
		v.applyPairs(ctx, msg.Pairs)
	case messageTypeOrderResult:
		v.resolveOrder(msg)
	default:
		v.logger.Debug(ctx, "ignoring feed message", "type", msg.Type)
	}
}

func (v *Venue) applyPairs(ctx context.Context, pairs []pairDTO) {
	v.mu.Lock()

	v.pairs = make(map[pairKey]*pairState, len(pairs))
	for _, dto := range pairs {
		state, err := newPairState(dto)
		if err != nil {
			v.logger.Warn(ctx, "skipping malformed pair", "error", err)
			continue
		}
		v.pairs[state.key()] = state
	}
	v.updatedAt = time.Now()

	v.mu.Unlock()

	v.metrics.pairUpdates.Add(ctx, 1)

	if v.onUpdate != nil {
		v.onUpdate()
	}
}

func (v *Venue) resolveOrder(msg feedMessage) {
	v.mu.Lock()
	ch, ok := v.pending[msg.ID]
	if ok {
		delete(v.pending, msg.ID)
	}
	v.mu.Unlock()

	if !ok {
		return
	}

	switch msg.Status {
	case orderStatusFilled:
		ch <- orderResult{amountOut: msg.AmountOut}
	case orderStatusRejected:
		ch <- orderResult{err: apperror.Routing(apperror.CodeSegmentExecutionFailed,
			"order rejected: "+msg.Error)}
	default:
		ch <- orderResult{err: apperror.Routing(apperror.CodeSegmentExecutionFailed,
			"unknown order status: "+msg.Status)}
	}
}

// sendOrder submits a fill request and waits for the matching result.
func (v *Venue) sendOrder(ctx context.Context, req orderRequest) (string, error) {
	v.mu.Lock()
	v.orderSeq++
	req.ID = fmt.Sprintf("ord-%d", v.orderSeq)
	ch := make(chan orderResult, 1)
	v.pending[req.ID] = ch
	v.mu.Unlock()

	req.Type = "order"

	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	v.metrics.ordersTotal.Add(ctx, 1)

	if err := v.ws.Send(ctx, payload); err != nil {
		v.mu.Lock()
		delete(v.pending, req.ID)
		v.mu.Unlock()
		return "", err
	}

	select {
	case <-ctx.Done():
		v.mu.Lock()
		delete(v.pending, req.ID)
		v.mu.Unlock()
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return "", res.err
		}
		return res.amountOut, nil
	}
}

// ID identifies the venue.
func (v *Venue) ID() string {
	return "stream"
}

// AvailableEdges lists the currently quotable pairs. A stale feed
// contributes nothing rather than serving outdated reserves.
func (v *Venue) AvailableEdges(ctx context.Context) ([]domain.Edge, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.cfg.StaleTimeout > 0 && !v.updatedAt.IsZero() && time.Since(v.updatedAt) > v.cfg.StaleTimeout {
		v.metrics.staleDrops.Add(ctx, 1)
		return nil, apperror.Routing(apperror.CodeVenueFetchFailed, "feed state is stale")
	}

	edges := make([]domain.Edge, 0, len(v.pairs))
	for key := range v.pairs {
		edges = append(edges, &Edge{venue: v, origin: key.base, destination: key.quote})
	}
	return edges, nil
}

// pairStateFor returns the live state backing an edge.
func (v *Venue) pairStateFor(origin, destination domain.AssetNode) (*pairState, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	state, ok := v.pairs[pairKey{base: origin, quote: destination}]
	return state, ok
}

func nodeFrom(chain, assetID string) domain.AssetNode {
	return asset.NewChainAssetID(chain, assetID)
}
