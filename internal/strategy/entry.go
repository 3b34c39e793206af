package strategy

import (
	"fmt"
	"strings"

	"sigcopy/internal/signal"
)

// Kind identifies an entry strategy.
type Kind string

const (
	KindAdaptive   Kind = "adaptive"
	KindMidpoint   Kind = "midpoint"
	KindRangeBreak Kind = "range_break"
	KindMomentum   Kind = "momentum"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindAdaptive:
		return KindAdaptive, true
	case KindMidpoint:
		return KindMidpoint, true
	case KindRangeBreak:
		return KindRangeBreak, true
	case KindMomentum:
		return KindMomentum, true
	default:
		return "", false
	}
}

// OrderKind distinguishes immediate execution from resting orders.
type OrderKind string

const (
	OrderMarket OrderKind = "market"
	OrderLimit  OrderKind = "limit"
	OrderStop   OrderKind = "stop"
)

// OrderIntent is the strategy calculator's output: a concrete entry decision
// for one signal.
type OrderIntent struct {
	SignalID   string
	EntryPrice float64
	OrderKind  OrderKind
	Strategy   Kind
	Rationale  string
}

// InvalidPriceError means the platform could not supply a usable quote; the
// pipeline run for the signal is aborted.
type InvalidPriceError struct {
	Price float64
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid current price %v", e.Price)
}

// Compute turns a signal and the live price into an OrderIntent. All
// strategies are deterministic; entry prices stay inside the signal range
// except the adaptive favorable-move branch, which enters at market and says
// so in the rationale.
func Compute(sig *signal.Signal, currentPrice float64, kind Kind) (OrderIntent, error) {
	if currentPrice <= 0 {
		return OrderIntent{}, &InvalidPriceError{Price: currentPrice}
	}

	intent := OrderIntent{SignalID: sig.ID, Strategy: kind}
	switch kind {
	case KindMidpoint:
		intent.EntryPrice = midpoint(sig.RangeLow, sig.RangeHigh)
		if decimalEqual(intent.EntryPrice, currentPrice) {
			intent.OrderKind = OrderMarket
			intent.Rationale = fmt.Sprintf("midpoint %.5f equals current price, entering at market", intent.EntryPrice)
		} else {
			intent.OrderKind = OrderLimit
			intent.Rationale = fmt.Sprintf("resting limit at range midpoint %.5f", intent.EntryPrice)
		}
	case KindRangeBreak:
		if sig.Direction == signal.DirectionBuy {
			intent.EntryPrice = sig.RangeHigh
		} else {
			intent.EntryPrice = sig.RangeLow
		}
		intent.OrderKind = restingKind(sig.Direction, intent.EntryPrice, currentPrice)
		intent.Rationale = fmt.Sprintf("%s at far range boundary %.5f, triggers as price moves into the range", intent.OrderKind, intent.EntryPrice)
	case KindMomentum:
		if sig.Direction == signal.DirectionBuy {
			intent.EntryPrice = sig.RangeLow
		} else {
			intent.EntryPrice = sig.RangeHigh
		}
		intent.OrderKind = restingKind(sig.Direction, intent.EntryPrice, currentPrice)
		intent.Rationale = fmt.Sprintf("%s at near range boundary %.5f, earliest entry in range", intent.OrderKind, intent.EntryPrice)
	case KindAdaptive:
		return computeAdaptive(sig, currentPrice)
	default:
		return OrderIntent{}, fmt.Errorf("unknown strategy %q", kind)
	}
	return intent, nil
}

// computeAdaptive branches on where the live price sits relative to the
// signal range.
func computeAdaptive(sig *signal.Signal, currentPrice float64) (OrderIntent, error) {
	intent := OrderIntent{SignalID: sig.ID, Strategy: KindAdaptive}

	pastRange := sig.Direction == signal.DirectionBuy && decimalGT(currentPrice, sig.RangeHigh) ||
		sig.Direction == signal.DirectionSell && decimalLT(currentPrice, sig.RangeLow)
	switch {
	case pastRange:
		// Price ran past the range: rest a limit at the nearest boundary
		// and wait for the pullback.
		if sig.Direction == signal.DirectionBuy {
			intent.EntryPrice = sig.RangeHigh
		} else {
			intent.EntryPrice = sig.RangeLow
		}
		intent.OrderKind = OrderLimit
		intent.Rationale = fmt.Sprintf("price %.5f beyond range, resting limit at %.5f awaiting pullback", currentPrice, intent.EntryPrice)
	case sig.InRange(currentPrice):
		intent.EntryPrice = currentPrice
		intent.OrderKind = OrderMarket
		intent.Rationale = fmt.Sprintf("price %.5f inside range, entering at market", currentPrice)
	default:
		// Favorable side of the range: take the market price even though it
		// sits outside the nominal range.
		intent.EntryPrice = currentPrice
		intent.OrderKind = OrderMarket
		intent.Rationale = fmt.Sprintf("price %.5f already moved favorably beyond range [%.5f, %.5f], market entry outside nominal range", currentPrice, sig.RangeLow, sig.RangeHigh)
	}
	return intent, nil
}

// restingKind picks limit vs stop so the order is valid at the platform: an
// order that buys below / sells above the current price rests as a limit,
// otherwise as a stop.
func restingKind(direction signal.Direction, entry, current float64) OrderKind {
	if direction == signal.DirectionBuy {
		if decimalLT(entry, current) {
			return OrderLimit
		}
		return OrderStop
	}
	if decimalGT(entry, current) {
		return OrderLimit
	}
	return OrderStop
}
