package app

import (
	"context"
	"math/big"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/apm"
	"github.com/routefi/exchange-router/internal/apperror"
	"github.com/routefi/exchange-router/internal/logger"
)

const serviceTracerName = "exchange-service"

// Service is the application-facing surface of the exchange context:
// reachability snapshots, quotes, fee estimation, execution and graph
// subscriptions.
type Service struct {
	provider *GraphProvider
	factory  *OperationFactory
	logger   logger.LoggerInterface
	tracer   apm.Tracer
}

// NewService creates the exchange service facade.
func NewService(provider *GraphProvider, factory *OperationFactory, log logger.LoggerInterface) *Service {
	return &Service{
		provider: provider,
		factory:  factory,
		logger:   log,
		tracer:   apm.NewTracer(serviceTracerName),
	}
}

// FetchReachability returns the current whole-graph reachability
// snapshot: for every node, the set of nodes it can be swapped into.
func (s *Service) FetchReachability(ctx context.Context) (map[domain.AssetNode][]domain.AssetNode, error) {
	_, span := s.tracer.StartSpanFromContext(ctx, "FetchReachability")
	defer span.End()

	graph := s.provider.CurrentGraph()
	if graph == nil {
		err := apperror.Routing(apperror.CodeNoRoute, "no graph published yet")
		span.NoticeError(err)
		return nil, err
	}

	return graph.FetchReachability(), nil
}

// FetchQuote finds the best route for the requested conversion.
func (s *Service) FetchQuote(ctx context.Context, args domain.QuoteArgs) (*domain.Quote, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "FetchQuote")
	defer span.End()

	quote, err := s.factory.FetchQuote(ctx, args)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}
	return quote, nil
}

// EstimateFee computes the full fee picture for a quoted route.
func (s *Service) EstimateFee(ctx context.Context, args domain.FeeArgs) (*domain.Fee, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "EstimateFee")
	defer span.End()

	fee, err := s.factory.EstimateFee(ctx, args)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}
	return fee, nil
}

// Submit starts executing the fee's route segment by segment and
// returns the running manager so the caller can cancel. onSegmentStart
// fires once per segment as it begins; completion fires exactly once
// with the final output amount or an error, unless cancelled first.
func (s *Service) Submit(
	fee *domain.Fee,
	onSegmentStart func(int),
	completion func(*big.Int, error),
) (*ExecutionManager, error) {
	operations, err := s.factory.PrepareAtomicOperations(fee.Route, fee.Slippage, fee.FeeAssetID)
	if err != nil {
		return nil, err
	}

	manager := NewExecutionManager(operations, fee, onSegmentStart, s.logger)
	manager.Start(completion)

	return manager, nil
}

// SubmitSingleOperation submits a route that must consist of exactly
// one atomic operation, blocking until it settles. Multi-operation
// routes are rejected.
func (s *Service) SubmitSingleOperation(ctx context.Context, fee *domain.Fee) (*big.Int, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "SubmitSingleOperation")
	defer span.End()

	operations, err := s.factory.PrepareAtomicOperations(fee.Route, fee.Slippage, fee.FeeAssetID)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	if len(operations) != 1 {
		err := apperror.Routing(apperror.CodeSingleOperationExpected, "route builds more than one operation")
		span.NoticeError(err)
		return nil, err
	}

	initialAmount, err := fee.InitialAmountIn()
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	op := operations[0]
	limit := op.SwapLimit().ReplacingAmountIn(initialAmount, false)

	amountOut, err := op.Submit(ctx, limit)
	if err != nil {
		span.NoticeError(err)
		return nil, apperror.Wrap(err, apperror.CodeSegmentExecutionFailed, "single operation submit")
	}

	return amountOut, nil
}

// SubscribeGraphUpdates registers a graph-change subscriber; repeated
// subscription under the same id is ignored.
func (s *Service) SubscribeGraphUpdates(id string, cb func(*domain.Graph)) {
	s.provider.SubscribeGraphUpdates(id, cb)
}

// UnsubscribeGraphUpdates removes a graph-change subscriber.
func (s *Service) UnsubscribeGraphUpdates(id string) {
	s.provider.UnsubscribeGraphUpdates(id)
}

// SubscribeResync registers a subscriber for underlying-state resync
// events; repeated subscription under the same id is ignored.
func (s *Service) SubscribeResync(id string, cb func()) {
	s.provider.SubscribeResync(id, cb)
}

// UnsubscribeResync removes a resync subscriber.
func (s *Service) UnsubscribeResync(id string) {
	s.provider.UnsubscribeResync(id)
}
