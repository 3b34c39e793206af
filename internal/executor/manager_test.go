package executor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigcopy/internal/gateway/platform"
	"sigcopy/internal/ledger"
	"sigcopy/internal/signal"
	"sigcopy/internal/strategy"
)

// countingPlatform records order placements and returns a scripted result.
type countingPlatform struct {
	mu           sync.Mutex
	marketCalls  int
	restingCalls int
	result       platform.OrderResult
	err          error
}

func (p *countingPlatform) GetQuote(context.Context, string) (platform.Quote, error) {
	return platform.Quote{Bid: 1.0860, Ask: 1.0862, At: time.Now()}, nil
}

func (p *countingPlatform) PlaceMarketOrder(_ context.Context, req platform.MarketOrderRequest) (platform.OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.marketCalls++
	return p.result, p.err
}

func (p *countingPlatform) PlaceRestingOrder(_ context.Context, req platform.RestingOrderRequest) (platform.OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.restingCalls++
	return p.result, p.err
}

func (p *countingPlatform) ListOpenPositions(context.Context) ([]platform.Position, error) {
	return nil, nil
}
func (p *countingPlatform) ModifyPosition(context.Context, string, *float64, *float64) error {
	return nil
}
func (p *countingPlatform) ClosePosition(context.Context, string, float64) error { return nil }

func (p *countingPlatform) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.marketCalls + p.restingCalls
}

func testSignal() *signal.Signal {
	return &signal.Signal{
		ID:        "7-abc123",
		Symbol:    "EURUSD",
		Direction: signal.DirectionBuy,
		RangeLow:  1.0850,
		RangeHigh: 1.0880,
	}
}

func marketIntent() strategy.OrderIntent {
	return strategy.OrderIntent{
		SignalID:   "7-abc123",
		EntryPrice: 1.0862,
		OrderKind:  strategy.OrderMarket,
		Strategy:   strategy.KindAdaptive,
	}
}

func setup(t *testing.T, p platform.Platform) (*Manager, *ledger.MemoryLedger) {
	t.Helper()
	led := ledger.NewMemoryLedger()
	_, _, err := led.RememberSignal(context.Background(), testSignal())
	require.NoError(t, err)
	return NewManager(led, p, time.Second), led
}

func TestExecuteSubmitsOnce(t *testing.T) {
	plat := &countingPlatform{result: platform.OrderResult{OrderID: "42", Raw: json.RawMessage(`{"retcode":10008,"order":42}`)}}
	mgr, _ := setup(t, plat)

	out, err := mgr.Execute(context.Background(), testSignal(), marketIntent(), 0.01)
	require.NoError(t, err)
	assert.False(t, out.Deduplicated)
	assert.Equal(t, ledger.StatusSubmitted, out.Record.Status)
	assert.Equal(t, "42", out.Record.PlatformOrderID)
	assert.Equal(t, 1, out.Record.Attempt)

	// Second delivery of the same signal: result echoed, no platform call.
	out, err = mgr.Execute(context.Background(), testSignal(), marketIntent(), 0.01)
	require.NoError(t, err)
	assert.True(t, out.Deduplicated)
	assert.Equal(t, "42", out.Record.PlatformOrderID)
	assert.Equal(t, 1, plat.calls())
}

func TestExecuteFilledWhenDealPresent(t *testing.T) {
	plat := &countingPlatform{result: platform.OrderResult{OrderID: "42", DealID: "99"}}
	mgr, _ := setup(t, plat)

	out, err := mgr.Execute(context.Background(), testSignal(), marketIntent(), 0.01)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusFilled, out.Record.Status)
	assert.Equal(t, "99", out.Record.PlatformDealID)
}

func TestExecuteRejectionIsTerminal(t *testing.T) {
	plat := &countingPlatform{err: &platform.RejectedError{Code: 10014, Reason: "invalid volume"}}
	mgr, led := setup(t, plat)

	out, err := mgr.Execute(context.Background(), testSignal(), marketIntent(), 0.01)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusRejected, out.Record.Status)
	assert.Contains(t, out.Record.ErrorDetail, "invalid volume")

	// Even with a now-healthy platform the rejection stays terminal.
	plat.err = nil
	out, err = mgr.Execute(context.Background(), testSignal(), marketIntent(), 0.01)
	require.NoError(t, err)
	assert.True(t, out.Deduplicated)
	assert.Equal(t, ledger.StatusRejected, out.Record.Status)
	assert.Equal(t, 1, plat.calls())

	recs, err := led.Records(context.Background(), testSignal().ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestExecuteFailureAllowsRetry(t *testing.T) {
	plat := &countingPlatform{err: &platform.UnavailableError{Op: "/order/market", Err: context.DeadlineExceeded}}
	mgr, led := setup(t, plat)

	// The transport failure is recorded AND returned, so the caller can tell
	// a retryable run from a placed one.
	out, err := mgr.Execute(context.Background(), testSignal(), marketIntent(), 0.01)
	require.Error(t, err)
	_, ok := platform.AsUnavailable(err)
	assert.True(t, ok, "expected an unavailable error, got %v", err)
	assert.Equal(t, ledger.StatusFailed, out.Record.Status)

	// Platform recovers: a retry places the order and both attempts stay in
	// the audit trail.
	plat.err = nil
	plat.result = platform.OrderResult{OrderID: "42"}
	out, err = mgr.Execute(context.Background(), testSignal(), marketIntent(), 0.01)
	require.NoError(t, err)
	assert.False(t, out.Deduplicated)
	assert.Equal(t, ledger.StatusSubmitted, out.Record.Status)
	assert.Equal(t, 2, out.Record.Attempt)

	recs, err := led.Records(context.Background(), testSignal().ID)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestExecuteConcurrentDuplicates(t *testing.T) {
	plat := &countingPlatform{result: platform.OrderResult{OrderID: "42"}}
	mgr, _ := setup(t, plat)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Execute(context.Background(), testSignal(), marketIntent(), 0.01)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, plat.calls(), "concurrent duplicates must reach the platform exactly once")
}

func TestExecuteRestingOrder(t *testing.T) {
	plat := &countingPlatform{result: platform.OrderResult{OrderID: "43"}}
	mgr, _ := setup(t, plat)

	intent := strategy.OrderIntent{
		SignalID:   testSignal().ID,
		EntryPrice: 1.0880,
		OrderKind:  strategy.OrderStop,
		Strategy:   strategy.KindRangeBreak,
	}
	_, err := mgr.Execute(context.Background(), testSignal(), intent, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 1, plat.restingCalls)
	assert.Equal(t, 0, plat.marketCalls)
}

func TestExecuteInputValidation(t *testing.T) {
	mgr, _ := setup(t, &countingPlatform{})

	_, err := mgr.Execute(context.Background(), nil, marketIntent(), 0.01)
	assert.Error(t, err)

	_, err = mgr.Execute(context.Background(), testSignal(), marketIntent(), 0)
	assert.Error(t, err)
}
