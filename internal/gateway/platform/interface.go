package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sigcopy/internal/signal"
	"sigcopy/internal/strategy"
)

// Quote is a two-sided price snapshot from the platform.
type Quote struct {
	Symbol string
	Bid    float64
	Ask    float64
	At     time.Time
}

// PriceFor returns the side-appropriate execution price: buyers pay the ask,
// sellers hit the bid.
func (q Quote) PriceFor(direction signal.Direction) float64 {
	if direction == signal.DirectionBuy {
		return q.Ask
	}
	return q.Bid
}

func (q Quote) IsZero() bool {
	return q.Bid == 0 && q.Ask == 0
}

// MarketOrderRequest asks for immediate execution at the current price.
type MarketOrderRequest struct {
	Symbol     string
	Direction  signal.Direction
	Volume     float64
	StopLoss   *float64
	TakeProfit *float64
	Comment    string
}

// RestingOrderRequest places a limit/stop order at EntryPrice.
type RestingOrderRequest struct {
	MarketOrderRequest
	OrderKind  strategy.OrderKind
	EntryPrice float64
}

// OrderResult carries the platform-assigned identifiers. DealID is set only
// when the platform reports an immediate fill.
type OrderResult struct {
	OrderID string
	DealID  string
	Raw     json.RawMessage
}

// Position is an open position as the platform reports it.
type Position struct {
	ID         string
	Symbol     string
	Direction  signal.Direction
	Volume     float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Profit     float64
}

// Platform is the trading-platform collaborator contract. Calls may block up
// to the caller's context deadline; a deadline is mandatory because a hung
// platform must not hang the pipeline.
type Platform interface {
	GetQuote(ctx context.Context, sym string) (Quote, error)
	PlaceMarketOrder(ctx context.Context, req MarketOrderRequest) (OrderResult, error)
	PlaceRestingOrder(ctx context.Context, req RestingOrderRequest) (OrderResult, error)

	ListOpenPositions(ctx context.Context) ([]Position, error)
	// ModifyPosition updates SL/TP on an open position; nil leaves a side
	// unchanged.
	ModifyPosition(ctx context.Context, id string, stopLoss, takeProfit *float64) error
	// ClosePosition closes volume lots of the position; 0 closes it fully.
	ClosePosition(ctx context.Context, id string, volume float64) error
}

// RejectedError is a platform-reported business rejection (invalid symbol,
// market closed, insufficient margin). Terminal for the signal.
type RejectedError struct {
	Code   int
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("platform rejected order (retcode=%d): %s", e.Code, e.Reason)
	}
	return "platform rejected order: " + e.Reason
}

// UnavailableError is a transport/communication failure, including
// timeouts. Transient: the caller may retry the whole pipeline run.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("platform unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func AsRejected(err error) (*RejectedError, bool) {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

func AsUnavailable(err error) (*UnavailableError, bool) {
	var un *UnavailableError
	if errors.As(err, &un) {
		return un, true
	}
	return nil, false
}
