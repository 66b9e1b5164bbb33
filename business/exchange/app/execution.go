package app

import (
	"context"
	"math/big"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/routefi/exchange-router/business/exchange/domain"
	"github.com/routefi/exchange-router/internal/apperror"
	"github.com/routefi/exchange-router/internal/logger"
)

const executionMeterName = "exchange-execution"

// executionMetrics holds OTEL metric instruments.
type executionMetrics struct {
	segmentsTotal metric.Int64Counter
	failuresTotal metric.Int64Counter
	finishedTotal metric.Int64Counter
}

func newExecutionMetrics() *executionMetrics {
	meter := otel.Meter(executionMeterName)

	m := &executionMetrics{}
	m.segmentsTotal, _ = meter.Int64Counter("exchange_execution_segments_total",
		metric.WithDescription("Segments dispatched for execution"))
	m.failuresTotal, _ = meter.Int64Counter("exchange_execution_failures_total",
		metric.WithDescription("Segment executions that failed"))
	m.finishedTotal, _ = meter.Int64Counter("exchange_execution_finished_total",
		metric.WithDescription("Executions that reached a terminal state"))
	return m
}

// ExecutionManager runs a route's atomic operations strictly in order,
// propagating each segment's realized output into the next segment's
// input. Instances are single-use: one Start, optionally one Cancel.
//
// All state transitions happen under one mutex so Start, segment
// completions and Cancel may be called from different goroutines
// without racing on the finished latch.
type ExecutionManager struct {
	operations     []domain.AtomicOperation
	fee            *domain.Fee
	onSegmentStart func(int)
	logger         logger.LoggerInterface
	metrics        *executionMetrics

	mu         sync.Mutex
	started    bool
	isFinished bool
	completion func(*big.Int, error)
	cancelCall context.CancelFunc
}

// NewExecutionManager creates a manager for one execution attempt.
// onSegmentStart is invoked once per segment as it begins, on a
// dedicated goroutine; it may be nil.
func NewExecutionManager(
	operations []domain.AtomicOperation,
	fee *domain.Fee,
	onSegmentStart func(int),
	log logger.LoggerInterface,
) *ExecutionManager {
	return &ExecutionManager{
		operations:     operations,
		fee:            fee,
		onSegmentStart: onSegmentStart,
		logger:         log,
		metrics:        newExecutionMetrics(),
	}
}

// Start computes the initial input amount and begins segment 0. The
// completion closure is invoked exactly once with the final output or
// an error, unless the execution is cancelled first.
func (m *ExecutionManager) Start(completion func(*big.Int, error)) {
	m.mu.Lock()

	if m.started || m.isFinished {
		m.mu.Unlock()
		m.logger.Warn(context.Background(), "execution started more than once")
		return
	}
	m.started = true
	m.completion = completion

	if len(m.operations) == 0 || len(m.operations) != len(m.fee.OperationFees) {
		m.finishLocked(nil, apperror.Routing(apperror.CodeFeesOperationsMismatch,
			"operations and fees disagree"))
		m.mu.Unlock()
		return
	}

	initialAmount, err := m.fee.InitialAmountIn()
	if err != nil {
		m.finishLocked(nil, err)
		m.mu.Unlock()
		return
	}

	m.executeSegmentLocked(0, initialAmount)
	m.mu.Unlock()
}

// Cancel aborts the in-flight segment and latches the terminal state.
// The completion closure is never invoked after a cancel; the caller
// already knows it cancelled. Calling Cancel twice, or after natural
// completion, has no effect.
func (m *ExecutionManager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isFinished {
		return
	}

	m.isFinished = true
	m.completion = nil
	if m.cancelCall != nil {
		m.cancelCall()
		m.cancelCall = nil
	}

	m.logger.Debug(context.Background(), "execution cancelled")
}

// executeSegmentLocked dispatches segment index with the given input.
// Caller must hold m.mu.
func (m *ExecutionManager) executeSegmentLocked(index int, amountIn *big.Int) {
	if m.isFinished {
		return
	}

	op := m.operations[index]

	// Only the first segment keeps the caller-chosen direction; later
	// segments always sell the exact amount the previous one produced.
	limit := op.SwapLimit().ReplacingAmountIn(amountIn, index > 0)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelCall = cancel

	m.metrics.segmentsTotal.Add(ctx, 1)
	m.logger.Debug(ctx, "executing segment",
		"index", index, "asset_in", op.AssetIn(), "amount_in", amountIn)

	if m.onSegmentStart != nil {
		go m.onSegmentStart(index)
	}

	go func() {
		amountOut, err := op.Submit(ctx, limit)
		cancel()
		m.onSegmentResult(index, amountOut, err)
	}()
}

// onSegmentResult handles one segment's outcome. A result arriving
// after cancellation or completion is dropped.
func (m *ExecutionManager) onSegmentResult(index int, amountOut *big.Int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isFinished {
		return
	}
	m.cancelCall = nil

	if err != nil {
		m.metrics.failuresTotal.Add(context.Background(), 1,
			metric.WithAttributes(attribute.Int("segment", index)))
		m.finishLocked(nil, apperror.Wrap(err, apperror.CodeSegmentExecutionFailed, "segment execution"))
		return
	}

	if index == len(m.operations)-1 {
		m.finishLocked(amountOut, nil)
		return
	}

	// The next segment pays its own fee from the amount it receives, so
	// carve that portion out up front, never going below zero.
	next := m.operations[index+1]
	nextFee := m.fee.OperationFees[index+1].TotalEnsuringSubmissionAsset(next.FeeAsset())

	corrected := new(big.Int).Sub(amountOut, nextFee)
	if corrected.Sign() < 0 {
		corrected.SetInt64(0)
	}

	m.executeSegmentLocked(index+1, corrected)
}

// finishLocked latches the terminal state and delivers the result on a
// dedicated goroutine. Caller must hold m.mu.
func (m *ExecutionManager) finishLocked(amount *big.Int, err error) {
	m.isFinished = true
	m.metrics.finishedTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Bool("success", err == nil)))

	completion := m.completion
	m.completion = nil
	if completion == nil {
		return
	}

	go completion(amount, err)
}
