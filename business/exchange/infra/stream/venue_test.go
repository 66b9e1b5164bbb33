package stream

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/routefi/exchange-router/internal/apperror"
	"github.com/routefi/exchange-router/internal/config"
	"github.com/routefi/exchange-router/internal/logger"
)

func newTestVenue(t *testing.T, cfg config.StreamVenueConfig, onUpdate func()) *Venue {
	t.Helper()
	if cfg.WebSocketURL == "" {
		cfg.WebSocketURL = "ws://localhost:0/feed"
	}
	log := logger.New(io.Discard, logger.LevelDebug, "test", nil)
	return NewVenue(cfg, log, onUpdate, nil)
}

const pairsPayload = `{
	"type": "pairs",
	"pairs": [
		{
			"base_chain": "polkadot", "base_asset": "native",
			"quote_chain": "assethub", "quote_asset": "1984",
			"base_reserve": "1000000", "quote_reserve": "5000000", "fee_bps": 30
		},
		{
			"base_chain": "assethub", "base_asset": "1984",
			"quote_chain": "assethub", "quote_asset": "1337",
			"base_reserve": "2000000", "quote_reserve": "0", "fee_bps": 10
		}
	]
}`

func TestVenue_ApplyPairs(t *testing.T) {
	updates := 0
	v := newTestVenue(t, config.StreamVenueConfig{}, func() { updates++ })

	v.handleMessage(context.Background(), []byte(pairsPayload))

	if updates != 1 {
		t.Errorf("update callbacks = %d, want 1", updates)
	}

	edges, err := v.AvailableEdges(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The second pair has a zero reserve and must be skipped.
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if got := edges[0].Origin(); got != nodeFrom("polkadot", "native") {
		t.Errorf("edge origin = %v", got)
	}
	if got := edges[0].Destination(); got != nodeFrom("assethub", "1984") {
		t.Errorf("edge destination = %v", got)
	}

	state, ok := v.pairStateFor(nodeFrom("polkadot", "native"), nodeFrom("assethub", "1984"))
	if !ok {
		t.Fatal("expected pair state for the surviving pair")
	}
	if state.feeBps != 30 {
		t.Errorf("fee = %d bps, want 30", state.feeBps)
	}
}

func TestVenue_ApplyPairs_ReplacesPreviousSet(t *testing.T) {
	v := newTestVenue(t, config.StreamVenueConfig{}, nil)
	v.handleMessage(context.Background(), []byte(pairsPayload))

	replacement := `{
		"type": "pairs",
		"pairs": [{
			"base_chain": "kusama", "base_asset": "native",
			"quote_chain": "polkadot", "quote_asset": "native",
			"base_reserve": "100", "quote_reserve": "100"
		}]
	}`
	v.handleMessage(context.Background(), []byte(replacement))

	if _, ok := v.pairStateFor(nodeFrom("polkadot", "native"), nodeFrom("assethub", "1984")); ok {
		t.Error("old pair survived a full replacement push")
	}
	if _, ok := v.pairStateFor(nodeFrom("kusama", "native"), nodeFrom("polkadot", "native")); !ok {
		t.Error("new pair missing after replacement push")
	}
}

func TestVenue_MalformedMessageIsIgnored(t *testing.T) {
	updates := 0
	v := newTestVenue(t, config.StreamVenueConfig{}, func() { updates++ })

	v.handleMessage(context.Background(), []byte(`{not json`))
	v.handleMessage(context.Background(), []byte(`{"type":"heartbeat"}`))

	if updates != 0 {
		t.Errorf("update callbacks = %d, want 0", updates)
	}
}

func TestVenue_StaleFeedServesNoEdges(t *testing.T) {
	v := newTestVenue(t, config.StreamVenueConfig{StaleTimeout: time.Minute}, nil)
	v.handleMessage(context.Background(), []byte(pairsPayload))

	v.mu.Lock()
	v.updatedAt = time.Now().Add(-2 * time.Minute)
	v.mu.Unlock()

	_, err := v.AvailableEdges(context.Background())
	if !apperror.IsCode(err, apperror.CodeVenueFetchFailed) {
		t.Errorf("expected venue-fetch error, got %v", err)
	}
}

func TestVenue_OrderResultCorrelation(t *testing.T) {
	v := newTestVenue(t, config.StreamVenueConfig{}, nil)

	ch := make(chan orderResult, 1)
	v.mu.Lock()
	v.pending["ord-7"] = ch
	v.mu.Unlock()

	v.handleMessage(context.Background(),
		[]byte(`{"type":"order_result","id":"ord-7","status":"filled","amount_out":"123"}`))

	select {
	case res := <-ch:
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}
		if res.amountOut != "123" {
			t.Errorf("amount out = %q, want 123", res.amountOut)
		}
	default:
		t.Fatal("expected a delivered order result")
	}

	if _, ok := v.pending["ord-7"]; ok {
		t.Error("resolved order still pending")
	}
}

func TestVenue_OrderRejection(t *testing.T) {
	v := newTestVenue(t, config.StreamVenueConfig{}, nil)

	ch := make(chan orderResult, 1)
	v.mu.Lock()
	v.pending["ord-1"] = ch
	v.mu.Unlock()

	v.handleMessage(context.Background(),
		[]byte(`{"type":"order_result","id":"ord-1","status":"rejected","error":"price moved"}`))

	res := <-ch
	if !apperror.IsCode(res.err, apperror.CodeSegmentExecutionFailed) {
		t.Errorf("expected segment-execution error, got %v", res.err)
	}
}

func TestVenue_UnknownOrderResultIsDropped(t *testing.T) {
	v := newTestVenue(t, config.StreamVenueConfig{}, nil)

	// Must not panic or block.
	v.handleMessage(context.Background(),
		[]byte(`{"type":"order_result","id":"ord-99","status":"filled","amount_out":"1"}`))
}
