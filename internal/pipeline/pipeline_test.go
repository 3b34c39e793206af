package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigcopy/internal/commands"
	"sigcopy/internal/executor"
	"sigcopy/internal/feed"
	"sigcopy/internal/gateway/notifier"
	"sigcopy/internal/gateway/platform"
	"sigcopy/internal/ledger"
	"sigcopy/internal/market"
	"sigcopy/internal/report"
	"sigcopy/internal/signal"
	"sigcopy/internal/strategy"
)

type fixture struct {
	pipeline *Pipeline
	ledger   *ledger.MemoryLedger
	platform *platform.SimulatedPlatform
	reporter *report.Reporter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	led := ledger.NewMemoryLedger()
	plat := platform.NewSimulatedPlatform()
	reporter := report.NewReporter(notifier.Noop{})
	t.Cleanup(reporter.Close)

	p := New(Params{
		Extractor: signal.NewExtractor(50000),
		Registry:  strategy.NewStaticRegistry(strategy.KindAdaptive, 0.01),
		Ledger:    led,
		Platform:  plat,
		Observer:  market.NewObserver(0),
		Reporter:  reporter,
		Executor:  executor.NewManager(led, plat, time.Second),
		Commands:  commands.NewManager(plat, reporter, 0.01, 0.5),
	})
	return &fixture{pipeline: p, ledger: led, platform: plat, reporter: reporter}
}

func message(id, text string) feed.Message {
	return feed.Message{ID: id, ChatID: -100123, Text: text, ReceivedAt: time.Now()}
}

func TestHandleMessagePlacesOrder(t *testing.T) {
	f := newFixture(t)
	f.platform.SetQuote("XAUUSD", 3302.0, 3302.5)

	err := f.pipeline.HandleMessage(context.Background(), message("1", "GOLD BUY 3300 - 3305\nSL: 3290\nTP: 3320"))
	require.NoError(t, err)

	entries, err := f.ledger.Entries(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "XAUUSD", entries[0].Signal.Symbol)
	require.Len(t, entries[0].Records, 1)
	// The simulated platform fills market orders immediately.
	assert.Equal(t, ledger.StatusFilled, entries[0].Records[0].Status)

	positions, err := f.platform.ListOpenPositions(context.Background())
	require.NoError(t, err)
	assert.Len(t, positions, 1)
}

func TestHandleMessageDeduplicatesRedelivery(t *testing.T) {
	f := newFixture(t)
	f.platform.SetQuote("XAUUSD", 3302.0, 3302.5)
	text := "GOLD BUY 3300 - 3305"

	require.NoError(t, f.pipeline.HandleMessage(context.Background(), message("1", text)))
	require.NoError(t, f.pipeline.HandleMessage(context.Background(), message("1", text)))

	entries, err := f.ledger.Entries(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Records, 1, "redelivery must not create a second order")

	positions, _ := f.platform.ListOpenPositions(context.Background())
	assert.Len(t, positions, 1)
}

func TestHandleMessageEditedRepostIsNewSignal(t *testing.T) {
	f := newFixture(t)
	f.platform.SetQuote("XAUUSD", 3302.0, 3302.5)

	require.NoError(t, f.pipeline.HandleMessage(context.Background(), message("1", "GOLD BUY 3300 - 3305")))
	require.NoError(t, f.pipeline.HandleMessage(context.Background(), message("1", "GOLD BUY 3301 - 3306")))

	entries, err := f.ledger.Entries(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "edited content gets its own identity")
}

func TestHandleMessageSkipsChatter(t *testing.T) {
	f := newFixture(t)

	err := f.pipeline.HandleMessage(context.Background(), message("9", "good morning everyone"))
	require.NoError(t, err)

	entries, err := f.ledger.Entries(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandleMessageRoutesCommands(t *testing.T) {
	f := newFixture(t)
	f.platform.SetQuote("XAUUSD", 3302.0, 3302.5)
	require.NoError(t, f.pipeline.HandleMessage(context.Background(), message("1", "GOLD BUY 3300 - 3305")))

	require.NoError(t, f.pipeline.HandleMessage(context.Background(), message("2", "close all positions")))

	positions, err := f.platform.ListOpenPositions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, positions)

	// Commands never touch the execution ledger.
	entries, err := f.ledger.Entries(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Records, 1)
}

// failingPlatform lets a test script placement failures while quotes and
// positions stay live.
type failingPlatform struct {
	*platform.SimulatedPlatform
	placeErr error
}

func (f *failingPlatform) PlaceMarketOrder(ctx context.Context, req platform.MarketOrderRequest) (platform.OrderResult, error) {
	if f.placeErr != nil {
		return platform.OrderResult{}, f.placeErr
	}
	return f.SimulatedPlatform.PlaceMarketOrder(ctx, req)
}

func TestHandleMessagePlacementFailureFailsRun(t *testing.T) {
	led := ledger.NewMemoryLedger()
	sim := platform.NewSimulatedPlatform()
	sim.SetQuote("XAUUSD", 3302.0, 3302.5)
	plat := &failingPlatform{
		SimulatedPlatform: sim,
		placeErr:          &platform.UnavailableError{Op: "/order/market", Err: context.DeadlineExceeded},
	}
	reporter := report.NewReporter(notifier.Noop{})
	t.Cleanup(reporter.Close)
	p := New(Params{
		Extractor: signal.NewExtractor(50000),
		Registry:  strategy.NewStaticRegistry(strategy.KindAdaptive, 0.01),
		Ledger:    led,
		Platform:  plat,
		Observer:  market.NewObserver(0),
		Reporter:  reporter,
		Executor:  executor.NewManager(led, plat, time.Second),
		Commands:  commands.NewManager(plat, reporter, 0.01, 0.5),
	})
	text := "GOLD BUY 3300 - 3305"

	// A bridge outage records the FAILED attempt and fails the run.
	err := p.HandleMessage(context.Background(), message("1", text))
	require.Error(t, err)

	entries, lerr := led.Entries(context.Background(), 10)
	require.NoError(t, lerr)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Records, 1)
	assert.Equal(t, ledger.StatusFailed, entries[0].Records[0].Status)

	// Bridge recovers: redelivery of the same message places attempt 2.
	plat.placeErr = nil
	require.NoError(t, p.HandleMessage(context.Background(), message("1", text)))

	entries, lerr = led.Entries(context.Background(), 10)
	require.NoError(t, lerr)
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Records, 2)
	assert.Equal(t, ledger.StatusFilled, entries[0].Records[1].Status)
}

func TestHandleMessageQuoteFailureIsReported(t *testing.T) {
	f := newFixture(t)
	// No quote seeded for the symbol: the run aborts before execution.
	err := f.pipeline.HandleMessage(context.Background(), message("1", "GOLD BUY 3300 - 3305"))
	require.Error(t, err)

	entries, lerr := f.ledger.Entries(context.Background(), 10)
	require.NoError(t, lerr)
	require.Len(t, entries, 1, "the signal itself is still remembered")
	assert.Empty(t, entries[0].Records, "no execution attempt without a price")
}
