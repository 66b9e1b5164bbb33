package app

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/logger"
)

const providerMeterName = "exchange-graph"

// graphMetrics holds OTEL metric instruments.
type graphMetrics struct {
	rebuildsTotal      metric.Int64Counter
	edgesMerged        metric.Int64Histogram
	venueFailuresTotal metric.Int64Counter
}

func newGraphMetrics() *graphMetrics {
	meter := otel.Meter(providerMeterName)

	m := &graphMetrics{}
	m.rebuildsTotal, _ = meter.Int64Counter("exchange_graph_rebuilds_total",
		metric.WithDescription("Graph rebuild cycles"))
	m.edgesMerged, _ = meter.Int64Histogram("exchange_graph_edges_merged",
		metric.WithDescription("Edges merged per rebuild"))
	m.venueFailuresTotal, _ = meter.Int64Counter("exchange_graph_venue_failures_total",
		metric.WithDescription("Venue edge fetches that failed"))
	return m
}

// GraphProviderConfig tunes rebuild behavior.
type GraphProviderConfig struct {
	// RebuildDebounce collapses bursts of change notifications into one
	// rebuild cycle.
	RebuildDebounce time.Duration
	// FetchTimeout bounds one venue's edge fetch during a rebuild.
	FetchTimeout time.Duration
	Graph        domain.GraphConfig
}

func (c GraphProviderConfig) withDefaults() GraphProviderConfig {
	if c.RebuildDebounce <= 0 {
		c.RebuildDebounce = 500 * time.Millisecond
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 30 * time.Second
	}
	return c
}

// GraphProvider merges edges from every venue into a fresh immutable
// graph on each change and republishes it to subscribers. A single
// goroutine owns the rebuild cycle; the published graph and subscriber
// registries are guarded by a mutex.
type GraphProvider struct {
	venues []VenueProvider
	filter domain.EdgeFilter
	cfg    GraphProviderConfig

	logger  logger.LoggerInterface
	metrics *graphMetrics

	triggerCh chan struct{}

	mu         sync.RWMutex
	current    *domain.Graph
	graphSubs  map[string]func(*domain.Graph)
	resyncSubs map[string]func()
}

var _ GraphSource = (*GraphProvider)(nil)

// NewGraphProvider creates a provider over the given venues. The filter
// is baked into every published graph so path searches see a consistent
// wallet/fee view.
func NewGraphProvider(
	venues []VenueProvider,
	filter domain.EdgeFilter,
	cfg GraphProviderConfig,
	log logger.LoggerInterface,
) *GraphProvider {
	return &GraphProvider{
		venues:     venues,
		filter:     filter,
		cfg:        cfg.withDefaults(),
		logger:     log,
		metrics:    newGraphMetrics(),
		triggerCh:  make(chan struct{}, 1),
		graphSubs:  make(map[string]func(*domain.Graph)),
		resyncSubs: make(map[string]func()),
	}
}

// Start performs the initial rebuild and runs the debounced rebuild
// loop until ctx is cancelled.
func (p *GraphProvider) Start(ctx context.Context) error {
	if err := p.rebuild(ctx); err != nil {
		return err
	}

	go p.run(ctx)
	return nil
}

func (p *GraphProvider) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info(ctx, "graph provider stopping", "reason", ctx.Err())
			return
		case <-p.triggerCh:
			// Collapse further triggers arriving inside the debounce window.
			timer := time.NewTimer(p.cfg.RebuildDebounce)
		drain:
			for {
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-p.triggerCh:
				case <-timer.C:
					break drain
				}
			}

			if err := p.rebuild(ctx); err != nil {
				p.logger.Error(ctx, "graph rebuild failed", "error", err)
			}
		}
	}
}

// TriggerRebuild schedules a rebuild. Safe to call from any goroutine;
// redundant triggers coalesce.
func (p *GraphProvider) TriggerRebuild() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// rebuild fetches every venue's edges concurrently, merges them and
// publishes a fresh graph. A failing venue contributes zero edges for
// this cycle; it does not abort the rebuild.
func (p *GraphProvider) rebuild(ctx context.Context) error {
	started := time.Now()

	type venueEdges struct {
		id    string
		edges []domain.Edge
		err   error
	}

	results := make([]venueEdges, len(p.venues))
	var wg sync.WaitGroup

	for i, venue := range p.venues {
		wg.Add(1)
		go func(i int, venue VenueProvider) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
			defer cancel()

			edges, err := venue.AvailableEdges(fetchCtx)
			results[i] = venueEdges{id: venue.ID(), edges: edges, err: err}
		}(i, venue)
	}
	wg.Wait()

	var merged []domain.Edge
	for _, res := range results {
		if res.err != nil {
			p.metrics.venueFailuresTotal.Add(ctx, 1,
				metric.WithAttributes(attribute.String("venue", res.id)))
			p.logger.Warn(ctx, "venue edge fetch failed, degrading graph",
				"venue", res.id, "error", res.err)
			continue
		}
		merged = append(merged, res.edges...)
	}

	graph := domain.NewGraph(merged, p.filter, p.cfg.Graph)

	p.mu.Lock()
	p.current = graph
	subs := make([]func(*domain.Graph), 0, len(p.graphSubs))
	for _, cb := range p.graphSubs {
		subs = append(subs, cb)
	}
	p.mu.Unlock()

	p.metrics.rebuildsTotal.Add(ctx, 1)
	p.metrics.edgesMerged.Record(ctx, int64(len(merged)))
	p.logger.Info(ctx, "graph rebuilt",
		"edges", len(merged), "nodes", graph.NodeCount(), "took", time.Since(started))

	for _, cb := range subs {
		go cb(graph)
	}

	return nil
}

// CurrentGraph returns the latest published graph, nil before the first
// rebuild completes.
func (p *GraphProvider) CurrentGraph() *domain.Graph {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// SubscribeGraphUpdates registers a callback invoked with every newly
// published graph. Subscribing twice with the same id is a no-op.
func (p *GraphProvider) SubscribeGraphUpdates(id string, cb func(*domain.Graph)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.graphSubs[id]; ok {
		return
	}
	p.graphSubs[id] = cb
}

// UnsubscribeGraphUpdates removes a subscriber; unknown ids are ignored.
func (p *GraphProvider) UnsubscribeGraphUpdates(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.graphSubs, id)
}

// SubscribeResync registers a callback for underlying-state resync
// events (a venue feed reconnecting, wallet state reloading).
// Subscribing twice with the same id is a no-op.
func (p *GraphProvider) SubscribeResync(id string, cb func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.resyncSubs[id]; ok {
		return
	}
	p.resyncSubs[id] = cb
}

// UnsubscribeResync removes a resync subscriber.
func (p *GraphProvider) UnsubscribeResync(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.resyncSubs, id)
}

// NotifyResync fans a resync event out to subscribers and schedules a
// rebuild, since resynced state may carry different edges.
func (p *GraphProvider) NotifyResync() {
	p.mu.RLock()
	subs := make([]func(), 0, len(p.resyncSubs))
	for _, cb := range p.resyncSubs {
		subs = append(subs, cb)
	}
	p.mu.RUnlock()

	for _, cb := range subs {
		go cb()
	}

	p.TriggerRebuild()
}
