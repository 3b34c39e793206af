package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

func TestExtractKeywordSignal(t *testing.T) {
	e := NewExtractor(0)
	sig, err := e.Extract("EURUSD BUY RANGE: 1.0850 - 1.0880\nSL: 1.0820\nTP: 1.0920", "101", now)
	require.NoError(t, err)

	assert.Equal(t, "EURUSD", sig.Symbol)
	assert.Equal(t, DirectionBuy, sig.Direction)
	assert.Equal(t, 1.0850, sig.RangeLow)
	assert.Equal(t, 1.0880, sig.RangeHigh)
	require.NotNil(t, sig.StopLoss)
	assert.Equal(t, 1.0820, *sig.StopLoss)
	require.NotNil(t, sig.TakeProfit)
	assert.Equal(t, 1.0920, *sig.TakeProfit)
	assert.Zero(t, sig.Volume)
}

func TestExtractEmojiDirection(t *testing.T) {
	e := NewExtractor(0)

	sig, err := e.Extract("🔴 GOLD 3305 - 3308\nSL /3312\nTP /3295", "102", now)
	require.NoError(t, err)
	assert.Equal(t, DirectionSell, sig.Direction)
	assert.Equal(t, "XAUUSD", sig.Symbol)
	assert.Equal(t, 3305.0, sig.RangeLow)
	assert.Equal(t, 3308.0, sig.RangeHigh)
	require.NotNil(t, sig.StopLoss)
	assert.Equal(t, 3312.0, *sig.StopLoss)

	sig, err = e.Extract("🟢 XAUUSD 3300-3303", "103", now)
	require.NoError(t, err)
	assert.Equal(t, DirectionBuy, sig.Direction)
}

func TestExtractEmojiOverridesKeyword(t *testing.T) {
	e := NewExtractor(0)
	// Rooms sometimes write "SELL" while the emoji marks the real direction.
	sig, err := e.Extract("🟢 GOLD sell zone 3300 - 3305", "104", now)
	require.NoError(t, err)
	assert.Equal(t, DirectionBuy, sig.Direction)
}

func TestExtractRangeSwap(t *testing.T) {
	e := NewExtractor(0)
	sig, err := e.Extract("XAUUSD SELL 3310 - 3305", "105", now)
	require.NoError(t, err)
	assert.Equal(t, 3305.0, sig.RangeLow)
	assert.Equal(t, 3310.0, sig.RangeHigh)
}

func TestExtractVolumeFromMessage(t *testing.T) {
	e := NewExtractor(0)
	sig, err := e.Extract("GOLD BUY 3300 - 3305 lot 0.05", "106", now)
	require.NoError(t, err)
	assert.Equal(t, 0.05, sig.Volume)
}

func TestExtractRangeFallbackNumbers(t *testing.T) {
	e := NewExtractor(0)
	// No separator between the two prices: first two free numbers win after
	// SL/TP are masked out.
	sig, err := e.Extract("BUY GBPUSD now 1.2700 1.2730 SL: 1.2650", "107", now)
	require.NoError(t, err)
	assert.Equal(t, 1.2700, sig.RangeLow)
	assert.Equal(t, 1.2730, sig.RangeHigh)
}

func TestExtractFailures(t *testing.T) {
	e := NewExtractor(0)

	cases := map[string]string{
		"no direction":   "XAUUSD 3300 - 3305",
		"no symbol":      "BUY now range 1.10 - 1.12",
		"missing range":  "EURUSD BUY now",
		"empty":          "   ",
		"plain chatter":  "good morning everyone",
		"only one price": "GOLD BUY 3300",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.Extract(text, "108", now)
			require.Error(t, err)
			var extractErr *ExtractionError
			assert.ErrorAs(t, err, &extractErr)
		})
	}
}

func TestExtractRangeCeiling(t *testing.T) {
	e := NewExtractor(50000)

	_, err := e.Extract("BTCUSD BUY 110000 - 111000", "109", now)
	require.Error(t, err)
	var extractErr *ExtractionError
	assert.ErrorAs(t, err, &extractErr)

	// Forex-sized ranges pass untouched.
	_, err = e.Extract("XAUUSD BUY 3300 - 3305", "110", now)
	assert.NoError(t, err)
}

func TestSignalIDStability(t *testing.T) {
	a := SignalID("55", "GOLD BUY 3300 - 3305")
	b := SignalID("55", "GOLD BUY 3300 - 3305")
	c := SignalID("55", "GOLD BUY 3301 - 3305")
	d := SignalID("56", "GOLD BUY 3300 - 3305")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "edited content must change the identity")
	assert.NotEqual(t, a, d, "different message must change the identity")
}

func TestInRange(t *testing.T) {
	sig := &Signal{RangeLow: 1.0, RangeHigh: 2.0}
	assert.True(t, sig.InRange(1.0))
	assert.True(t, sig.InRange(1.5))
	assert.True(t, sig.InRange(2.0))
	assert.False(t, sig.InRange(0.99))
	assert.False(t, sig.InRange(2.01))
}
