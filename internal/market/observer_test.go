package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRequiresSamples(t *testing.T) {
	o := NewObserver(0)
	_, ok := o.Snapshot("XAUUSD")
	assert.False(t, ok)

	o.Observe("XAUUSD", 3300)
	snap, ok := o.Snapshot("XAUUSD")
	require.True(t, ok)
	assert.Equal(t, 3300.0, snap.Last)
	assert.Equal(t, 1, snap.Samples)
	assert.Zero(t, snap.EMA, "not enough samples for indicators yet")
	assert.Equal(t, TrendFlat, snap.Trend)
}

func TestSnapshotIndicatorsAndTrend(t *testing.T) {
	o := NewObserver(0)
	price := 3300.0
	for i := 0; i < 40; i++ {
		price += 0.5
		o.Observe("XAUUSD", price)
	}

	snap, ok := o.Snapshot("XAUUSD")
	require.True(t, ok)
	assert.Equal(t, 40, snap.Samples)
	assert.Greater(t, snap.EMA, 0.0)
	assert.Greater(t, snap.RSI, 50.0, "steady rise keeps RSI high")
	assert.Equal(t, TrendUp, snap.Trend)
	assert.Greater(t, snap.Last, snap.EMA)
}

func TestObserveIgnoresBadSamples(t *testing.T) {
	o := NewObserver(0)
	o.Observe("EURUSD", 0)
	o.Observe("EURUSD", -5)
	_, ok := o.Snapshot("EURUSD")
	assert.False(t, ok)
}

func TestWindowBounded(t *testing.T) {
	o := NewObserver(10)
	for i := 1; i <= 25; i++ {
		o.Observe("EURUSD", float64(i))
	}
	snap, ok := o.Snapshot("EURUSD")
	require.True(t, ok)
	assert.Equal(t, 10, snap.Samples)
	assert.Equal(t, 25.0, snap.Last)
}

func TestSymbolsAreIndependent(t *testing.T) {
	o := NewObserver(0)
	o.Observe("EURUSD", 1.1)
	o.Observe("XAUUSD", 3300)

	eur, ok := o.Snapshot("EURUSD")
	require.True(t, ok)
	assert.Equal(t, 1.1, eur.Last)

	gold, ok := o.Snapshot("XAUUSD")
	require.True(t, ok)
	assert.Equal(t, 3300.0, gold.Last)
}
