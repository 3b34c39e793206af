package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigcopy/internal/signal"
)

func buySignal() *signal.Signal {
	return &signal.Signal{
		ID:        "sig-1",
		Symbol:    "EURUSD",
		Direction: signal.DirectionBuy,
		RangeLow:  1.0850,
		RangeHigh: 1.0880,
	}
}

func sellSignal() *signal.Signal {
	return &signal.Signal{
		ID:        "sig-2",
		Symbol:    "EURUSD",
		Direction: signal.DirectionSell,
		RangeLow:  1.0850,
		RangeHigh: 1.0880,
	}
}

func TestComputeMidpoint(t *testing.T) {
	intent, err := Compute(buySignal(), 1.0900, KindMidpoint)
	require.NoError(t, err)
	assert.Equal(t, 1.0865, intent.EntryPrice)
	assert.Equal(t, OrderLimit, intent.OrderKind)

	// Price already at the midpoint enters immediately.
	intent, err = Compute(buySignal(), 1.0865, KindMidpoint)
	require.NoError(t, err)
	assert.Equal(t, OrderMarket, intent.OrderKind)
}

func TestComputeRangeBreak(t *testing.T) {
	// Buy waits at the far (upper) boundary.
	intent, err := Compute(buySignal(), 1.0850, KindRangeBreak)
	require.NoError(t, err)
	assert.Equal(t, 1.0880, intent.EntryPrice)
	assert.Equal(t, OrderStop, intent.OrderKind, "buy above market rests as stop")

	// Sell waits at the far (lower) boundary.
	intent, err = Compute(sellSignal(), 1.0880, KindRangeBreak)
	require.NoError(t, err)
	assert.Equal(t, 1.0850, intent.EntryPrice)
	assert.Equal(t, OrderStop, intent.OrderKind, "sell below market rests as stop")
}

func TestComputeMomentum(t *testing.T) {
	// Buy enters at the near (lower) boundary: below market rests as limit.
	intent, err := Compute(buySignal(), 1.0870, KindMomentum)
	require.NoError(t, err)
	assert.Equal(t, 1.0850, intent.EntryPrice)
	assert.Equal(t, OrderLimit, intent.OrderKind)

	intent, err = Compute(sellSignal(), 1.0860, KindMomentum)
	require.NoError(t, err)
	assert.Equal(t, 1.0880, intent.EntryPrice)
	assert.Equal(t, OrderLimit, intent.OrderKind)
}

func TestComputeAdaptivePastRange(t *testing.T) {
	// Buy with price beyond the high: rest a limit at the near boundary.
	intent, err := Compute(buySignal(), 1.0895, KindAdaptive)
	require.NoError(t, err)
	assert.Equal(t, 1.0880, intent.EntryPrice)
	assert.Equal(t, OrderLimit, intent.OrderKind)

	// Sell with price under the low mirrors it.
	intent, err = Compute(sellSignal(), 1.0830, KindAdaptive)
	require.NoError(t, err)
	assert.Equal(t, 1.0850, intent.EntryPrice)
	assert.Equal(t, OrderLimit, intent.OrderKind)
}

func TestComputeAdaptiveInRange(t *testing.T) {
	intent, err := Compute(buySignal(), 1.0862, KindAdaptive)
	require.NoError(t, err)
	assert.Equal(t, 1.0862, intent.EntryPrice)
	assert.Equal(t, OrderMarket, intent.OrderKind)
}

func TestComputeAdaptiveFavorable(t *testing.T) {
	// Buy below the range is a better-than-asked price: market entry even
	// though it sits outside the nominal range, with the rationale saying so.
	intent, err := Compute(buySignal(), 1.0840, KindAdaptive)
	require.NoError(t, err)
	assert.Equal(t, 1.0840, intent.EntryPrice)
	assert.Equal(t, OrderMarket, intent.OrderKind)
	assert.Contains(t, intent.Rationale, "outside nominal range")

	intent, err = Compute(sellSignal(), 1.0890, KindAdaptive)
	require.NoError(t, err)
	assert.Equal(t, 1.0890, intent.EntryPrice)
	assert.Equal(t, OrderMarket, intent.OrderKind)
}

func TestComputeRejectsBadPrice(t *testing.T) {
	_, err := Compute(buySignal(), 0, KindAdaptive)
	require.Error(t, err)
	var priceErr *InvalidPriceError
	assert.ErrorAs(t, err, &priceErr)

	_, err = Compute(buySignal(), -1, KindMidpoint)
	assert.Error(t, err)
}

func TestComputeUnknownStrategy(t *testing.T) {
	_, err := Compute(buySignal(), 1.0860, Kind("mystery"))
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"adaptive", "midpoint", "range_break", "momentum"} {
		kind, ok := ParseKind(name)
		assert.True(t, ok)
		assert.Equal(t, Kind(name), kind)
	}
	_, ok := ParseKind("scalping")
	assert.False(t, ok)
}
