package signal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Direction 表示信号方向。
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// Signal is a parsed trading instruction. It is immutable once constructed;
// the ledger guarantees at most one Signal per source message id.
type Signal struct {
	ID         string
	Symbol     string
	Direction  Direction
	RangeLow   float64
	RangeHigh  float64
	StopLoss   *float64
	TakeProfit *float64
	// Volume is the lot size stated in the message, 0 when the message
	// left sizing to the configured default.
	Volume     float64
	ReceivedAt time.Time
	RawText    string
}

// InRange reports whether price lies inside [RangeLow, RangeHigh].
func (s *Signal) InRange(price float64) bool {
	return price >= s.RangeLow && price <= s.RangeHigh
}

// SignalID derives the stable identity for a source message: message id plus
// a short content hash, so an edited repost gets a fresh identity while a
// duplicate delivery of the same message does not.
func SignalID(messageID, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s-%s", messageID, hex.EncodeToString(sum[:])[:12])
}

// ExtractionError reports why a message was not a usable signal. It is
// recoverable: the message is simply ignored.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "signal extraction failed: " + e.Reason
}

func extractionFailf(format string, v ...any) error {
	return &ExtractionError{Reason: fmt.Sprintf(format, v...)}
}
