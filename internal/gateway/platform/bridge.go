package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"sigcopy/internal/logger"
	"sigcopy/internal/pkg/circuit"
	"sigcopy/internal/signal"
	"sigcopy/internal/strategy"
)

// MT5 bridge trade return codes. Anything else reported by the bridge on a
// trade endpoint is a rejection.
const (
	retcodeDone   = 10009 // request completed, deal executed
	retcodePlaced = 10008 // order placed, resting
)

// BridgeClient talks to the MT5 HTTP bridge. Transport failures trip the
// circuit breaker; business rejections do not.
type BridgeClient struct {
	baseURL string
	client  *http.Client
	breaker *circuit.CircuitBreaker
}

type BridgeOption func(*BridgeClient)

func WithBridgeHTTPClient(c *http.Client) BridgeOption {
	return func(b *BridgeClient) { b.client = c }
}

func WithBridgeBreaker(br *circuit.CircuitBreaker) BridgeOption {
	return func(b *BridgeClient) { b.breaker = br }
}

func NewBridgeClient(baseURL string, opts ...BridgeOption) (*BridgeClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("bridge url cannot be empty")
	}
	b := &BridgeClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		breaker: circuit.NewCircuitBreaker("mt5-bridge", 5, 30*time.Second),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *BridgeClient) GetQuote(ctx context.Context, sym string) (Quote, error) {
	q := url.Values{"symbol": {sym}}
	raw, err := b.doRequest(ctx, http.MethodGet, "/quote?"+q.Encode(), nil)
	if err != nil {
		return Quote{}, err
	}
	body := gjson.ParseBytes(raw)
	quote := Quote{
		Symbol: sym,
		Bid:    body.Get("bid").Float(),
		Ask:    body.Get("ask").Float(),
		At:     time.Now(),
	}
	if ts := body.Get("time").Int(); ts > 0 {
		quote.At = time.Unix(ts, 0)
	}
	if quote.IsZero() {
		return Quote{}, &UnavailableError{Op: "quote", Err: fmt.Errorf("no tick for %s", sym)}
	}
	return quote, nil
}

func (b *BridgeClient) PlaceMarketOrder(ctx context.Context, req MarketOrderRequest) (OrderResult, error) {
	payload := map[string]interface{}{
		"symbol":  req.Symbol,
		"action":  string(req.Direction),
		"volume":  req.Volume,
		"comment": req.Comment,
	}
	if req.StopLoss != nil {
		payload["sl"] = *req.StopLoss
	}
	if req.TakeProfit != nil {
		payload["tp"] = *req.TakeProfit
	}
	return b.sendOrder(ctx, "/order/market", payload)
}

func (b *BridgeClient) PlaceRestingOrder(ctx context.Context, req RestingOrderRequest) (OrderResult, error) {
	payload := map[string]interface{}{
		"symbol":  req.Symbol,
		"action":  string(req.Direction),
		"type":    pendingType(req.Direction, req.OrderKind),
		"price":   req.EntryPrice,
		"volume":  req.Volume,
		"comment": req.Comment,
	}
	if req.StopLoss != nil {
		payload["sl"] = *req.StopLoss
	}
	if req.TakeProfit != nil {
		payload["tp"] = *req.TakeProfit
	}
	return b.sendOrder(ctx, "/order/pending", payload)
}

// pendingType maps direction and order kind onto the bridge's MT5 pending
// order names (buy_limit, sell_stop, ...).
func pendingType(direction signal.Direction, kind strategy.OrderKind) string {
	side := "buy"
	if direction == signal.DirectionSell {
		side = "sell"
	}
	if kind == strategy.OrderStop {
		return side + "_stop"
	}
	return side + "_limit"
}

func (b *BridgeClient) sendOrder(ctx context.Context, path string, payload map[string]interface{}) (OrderResult, error) {
	raw, err := b.doRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return OrderResult{}, err
	}
	body := gjson.ParseBytes(raw)
	retcode := int(body.Get("retcode").Int())
	if retcode != retcodeDone && retcode != retcodePlaced {
		return OrderResult{}, &RejectedError{Code: retcode, Reason: body.Get("comment").String()}
	}
	res := OrderResult{Raw: json.RawMessage(raw)}
	if order := body.Get("order"); order.Exists() && order.Int() > 0 {
		res.OrderID = order.Raw
	}
	if deal := body.Get("deal"); deal.Exists() && deal.Int() > 0 {
		res.DealID = deal.Raw
	}
	return res, nil
}

func (b *BridgeClient) ListOpenPositions(ctx context.Context) ([]Position, error) {
	raw, err := b.doRequest(ctx, http.MethodGet, "/positions", nil)
	if err != nil {
		return nil, err
	}
	var out []Position
	for _, item := range gjson.ParseBytes(raw).Get("positions").Array() {
		direction := signal.DirectionBuy
		if strings.EqualFold(item.Get("type").String(), "sell") {
			direction = signal.DirectionSell
		}
		out = append(out, Position{
			ID:         item.Get("ticket").Raw,
			Symbol:     item.Get("symbol").String(),
			Direction:  direction,
			Volume:     item.Get("volume").Float(),
			EntryPrice: item.Get("price_open").Float(),
			StopLoss:   item.Get("sl").Float(),
			TakeProfit: item.Get("tp").Float(),
			Profit:     item.Get("profit").Float(),
		})
	}
	return out, nil
}

func (b *BridgeClient) ModifyPosition(ctx context.Context, id string, stopLoss, takeProfit *float64) error {
	payload := map[string]interface{}{"ticket": id}
	if stopLoss != nil {
		payload["sl"] = *stopLoss
	}
	if takeProfit != nil {
		payload["tp"] = *takeProfit
	}
	raw, err := b.doRequest(ctx, http.MethodPost, "/position/modify", payload)
	if err != nil {
		return err
	}
	return checkRetcode(raw)
}

func (b *BridgeClient) ClosePosition(ctx context.Context, id string, volume float64) error {
	payload := map[string]interface{}{"ticket": id}
	if volume > 0 {
		payload["volume"] = volume
	}
	raw, err := b.doRequest(ctx, http.MethodPost, "/position/close", payload)
	if err != nil {
		return err
	}
	return checkRetcode(raw)
}

func checkRetcode(raw []byte) error {
	body := gjson.ParseBytes(raw)
	retcode := int(body.Get("retcode").Int())
	if retcode != retcodeDone && retcode != retcodePlaced {
		return &RejectedError{Code: retcode, Reason: body.Get("comment").String()}
	}
	return nil
}

func (b *BridgeClient) doRequest(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	if !b.breaker.Allow() {
		return nil, &UnavailableError{Op: path, Err: fmt.Errorf("circuit breaker %s", b.breaker.State())}
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request for %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		b.breaker.RecordFailure()
		return nil, &UnavailableError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b.breaker.RecordFailure()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Warnf("bridge %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(detail)))
		return nil, &UnavailableError{Op: path, Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		b.breaker.RecordFailure()
		return nil, &UnavailableError{Op: path, Err: err}
	}
	b.breaker.RecordSuccess()
	return raw, nil
}
