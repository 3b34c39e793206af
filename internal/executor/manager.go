package executor

import (
	"context"
	"fmt"
	"time"

	"sigcopy/internal/gateway/platform"
	"sigcopy/internal/ledger"
	"sigcopy/internal/logger"
	"sigcopy/internal/signal"
	"sigcopy/internal/strategy"
)

const defaultCallTimeout = 10 * time.Second

// Outcome is the result of one Execute call. Deduplicated means no platform
// call was made because the ledger already held a live or terminally
// rejected record for the signal.
type Outcome struct {
	Record       ledger.ExecutionRecord
	Deduplicated bool
}

// Manager places at most one order per signal. The dedup check and the
// record insert run inside a single ledger transaction keyed by signal id,
// so concurrent duplicate deliveries cannot both reach the platform.
type Manager struct {
	ledger   ledger.Ledger
	platform platform.Platform
	timeout  time.Duration
}

func NewManager(led ledger.Ledger, p platform.Platform, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Manager{ledger: led, platform: p, timeout: timeout}
}

// Execute submits the intent unless the ledger forbids it. A transport
// failure records a FAILED attempt and returns the placement error alongside
// it, so the caller may re-invoke later; a REJECTED record is terminal for
// the signal and not an error.
func (m *Manager) Execute(ctx context.Context, sig *signal.Signal, intent strategy.OrderIntent, volume float64) (Outcome, error) {
	if sig == nil || sig.ID == "" {
		return Outcome{}, fmt.Errorf("execute requires a signal with id")
	}
	if volume <= 0 {
		return Outcome{}, fmt.Errorf("execute requires positive volume, got %v", volume)
	}

	var out Outcome
	var unavailable error
	err := m.ledger.Transact(ctx, sig.ID, func(tx ledger.Tx) error {
		if rec, ok := tx.Live(); ok {
			logger.Infof("signal %s already has %s order %s, skipping", sig.ID, rec.Status, rec.PlatformOrderID)
			out = Outcome{Record: rec, Deduplicated: true}
			return nil
		}
		if rec, ok := tx.Rejected(); ok {
			logger.Infof("signal %s was terminally rejected, skipping", sig.ID)
			out = Outcome{Record: rec, Deduplicated: true}
			return nil
		}

		rec := ledger.ExecutionRecord{
			SignalID:    sig.ID,
			Attempt:     tx.NextAttempt(),
			Status:      ledger.StatusPending,
			SubmittedAt: time.Now(),
		}

		callCtx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()
		result, err := m.place(callCtx, sig, intent, volume)

		switch {
		case err == nil:
			rec.PlatformOrderID = result.OrderID
			rec.PlatformDealID = result.DealID
			rec.RawResponse = result.Raw
			if result.DealID != "" {
				rec.Status = ledger.StatusFilled
			} else {
				rec.Status = ledger.StatusSubmitted
			}
		default:
			if rej, ok := platform.AsRejected(err); ok {
				rec.Status = ledger.StatusRejected
				rec.ErrorDetail = rej.Error()
			} else {
				rec.Status = ledger.StatusFailed
				rec.ErrorDetail = err.Error()
				unavailable = err
			}
		}

		if appendErr := tx.Append(rec); appendErr != nil {
			return appendErr
		}
		out = Outcome{Record: rec}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	if unavailable != nil {
		// The FAILED record is committed; the call still fails so the caller
		// can tell a retryable run from a placed one.
		return out, fmt.Errorf("placing order for signal %s: %w", sig.ID, unavailable)
	}
	return out, nil
}

func (m *Manager) place(ctx context.Context, sig *signal.Signal, intent strategy.OrderIntent, volume float64) (platform.OrderResult, error) {
	base := platform.MarketOrderRequest{
		Symbol:     sig.Symbol,
		Direction:  sig.Direction,
		Volume:     volume,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		Comment:    "sigcopy " + sig.ID,
	}
	if intent.OrderKind == strategy.OrderMarket {
		return m.platform.PlaceMarketOrder(ctx, base)
	}
	return m.platform.PlaceRestingOrder(ctx, platform.RestingOrderRequest{
		MarketOrderRequest: base,
		OrderKind:          intent.OrderKind,
		EntryPrice:         intent.EntryPrice,
	})
}
