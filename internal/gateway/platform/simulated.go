package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"sigcopy/internal/logger"
)

// SimulatedPlatform is the dry-run trading backend: every order is accepted
// locally and nothing touches a broker. Market orders fill immediately at the
// seeded quote; resting orders stay as open positions with the requested
// entry so the rest of the system behaves the same in both modes.
type SimulatedPlatform struct {
	mu        sync.Mutex
	quotes    map[string]Quote
	positions map[string]Position
	nextID    int64
}

func NewSimulatedPlatform() *SimulatedPlatform {
	return &SimulatedPlatform{
		quotes:    make(map[string]Quote),
		positions: make(map[string]Position),
		nextID:    1000,
	}
}

// SetQuote seeds the quote returned for sym.
func (p *SimulatedPlatform) SetQuote(sym string, bid, ask float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes[sym] = Quote{Symbol: sym, Bid: bid, Ask: ask, At: time.Now()}
}

func (p *SimulatedPlatform) GetQuote(_ context.Context, sym string) (Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.quotes[sym]
	if !ok {
		return Quote{}, &UnavailableError{Op: "quote", Err: fmt.Errorf("no simulated quote for %s", sym)}
	}
	q.At = time.Now()
	return q, nil
}

func (p *SimulatedPlatform) PlaceMarketOrder(_ context.Context, req MarketOrderRequest) (OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q, ok := p.quotes[req.Symbol]
	if !ok {
		return OrderResult{}, &RejectedError{Reason: fmt.Sprintf("unknown symbol %s", req.Symbol)}
	}
	if req.Volume <= 0 {
		return OrderResult{}, &RejectedError{Reason: "volume must be positive"}
	}

	id := p.allocID()
	p.positions[id] = Position{
		ID:         id,
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		Volume:     req.Volume,
		EntryPrice: q.PriceFor(req.Direction),
		StopLoss:   deref(req.StopLoss),
		TakeProfit: deref(req.TakeProfit),
	}
	logger.Infof("[dry-run] market %s %s %.2f @ %.5f", req.Direction, req.Symbol, req.Volume, q.PriceFor(req.Direction))
	return OrderResult{
		OrderID: id,
		DealID:  id,
		Raw:     json.RawMessage(fmt.Sprintf(`{"simulated":true,"order":%s,"deal":%s}`, id, id)),
	}, nil
}

func (p *SimulatedPlatform) PlaceRestingOrder(_ context.Context, req RestingOrderRequest) (OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if req.Volume <= 0 {
		return OrderResult{}, &RejectedError{Reason: "volume must be positive"}
	}
	if req.EntryPrice <= 0 {
		return OrderResult{}, &RejectedError{Reason: "entry price must be positive"}
	}

	id := p.allocID()
	p.positions[id] = Position{
		ID:         id,
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		Volume:     req.Volume,
		EntryPrice: req.EntryPrice,
		StopLoss:   deref(req.StopLoss),
		TakeProfit: deref(req.TakeProfit),
	}
	logger.Infof("[dry-run] %s %s %s %.2f @ %.5f", req.OrderKind, req.Direction, req.Symbol, req.Volume, req.EntryPrice)
	return OrderResult{
		OrderID: id,
		Raw:     json.RawMessage(fmt.Sprintf(`{"simulated":true,"order":%s}`, id)),
	}, nil
}

func (p *SimulatedPlatform) ListOpenPositions(_ context.Context) ([]Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, pos)
	}
	return out, nil
}

func (p *SimulatedPlatform) ModifyPosition(_ context.Context, id string, stopLoss, takeProfit *float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, ok := p.positions[id]
	if !ok {
		return &RejectedError{Reason: fmt.Sprintf("position %s not found", id)}
	}
	if stopLoss != nil {
		pos.StopLoss = *stopLoss
	}
	if takeProfit != nil {
		pos.TakeProfit = *takeProfit
	}
	p.positions[id] = pos
	return nil
}

func (p *SimulatedPlatform) ClosePosition(_ context.Context, id string, volume float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, ok := p.positions[id]
	if !ok {
		return &RejectedError{Reason: fmt.Sprintf("position %s not found", id)}
	}
	if volume <= 0 || volume >= pos.Volume {
		delete(p.positions, id)
		return nil
	}
	pos.Volume -= volume
	p.positions[id] = pos
	return nil
}

func (p *SimulatedPlatform) allocID() string {
	p.nextID++
	return fmt.Sprintf("%d", p.nextID)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

var _ Platform = (*SimulatedPlatform)(nil)
var _ Platform = (*BridgeClient)(nil)
