package market

import (
	"math"
	"sync"
	"time"

	talib "github.com/markcheno/go-talib"
)

const (
	defaultWindow = 120
	emaPeriod     = 20
	rsiPeriod     = 14
)

// Snapshot summarizes recent price action for one symbol at the moment a
// signal arrives. Indicators are zero until the window holds enough samples.
type Snapshot struct {
	Symbol  string
	Last    float64
	EMA     float64
	RSI     float64
	Trend   Trend
	Samples int
	At      time.Time
}

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Observer keeps a rolling mid-price window per symbol and derives a small
// indicator snapshot from it.
type Observer struct {
	mu      sync.Mutex
	window  int
	samples map[string][]float64
}

func NewObserver(window int) *Observer {
	if window <= 0 {
		window = defaultWindow
	}
	return &Observer{window: window, samples: make(map[string][]float64)}
}

// Observe records one price sample for sym.
func (o *Observer) Observe(sym string, price float64) {
	if price <= 0 || math.IsNaN(price) {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	series := append(o.samples[sym], price)
	if len(series) > o.window {
		series = series[len(series)-o.window:]
	}
	o.samples[sym] = series
}

// Snapshot returns the indicator view for sym. ok is false when no sample has
// been seen yet.
func (o *Observer) Snapshot(sym string) (Snapshot, bool) {
	o.mu.Lock()
	series := append([]float64(nil), o.samples[sym]...)
	o.mu.Unlock()

	if len(series) == 0 {
		return Snapshot{}, false
	}
	snap := Snapshot{
		Symbol:  sym,
		Last:    series[len(series)-1],
		Trend:   TrendFlat,
		Samples: len(series),
		At:      time.Now(),
	}
	if len(series) > emaPeriod {
		ema := sanitizeSeries(talib.Ema(series, emaPeriod))
		snap.EMA = last(ema)
	}
	if len(series) > rsiPeriod {
		rsi := sanitizeSeries(talib.Rsi(series, rsiPeriod))
		snap.RSI = last(rsi)
	}
	if snap.EMA > 0 {
		switch {
		case snap.Last > snap.EMA*1.0001:
			snap.Trend = TrendUp
		case snap.Last < snap.EMA*0.9999:
			snap.Trend = TrendDown
		}
	}
	return snap, true
}

func sanitizeSeries(series []float64) []float64 {
	out := make([]float64, 0, len(series))
	for _, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		out = append(out, v)
	}
	return out
}

func last(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
