package signal

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sigcopy/internal/pkg/symbol"
)

// The extractors below are deliberately independent: chat-room signals put
// direction, range, SL and TP in any order, so each field is found by its
// own position-tolerant search and Extract only composes the results.
var (
	buyWordRe  = regexp.MustCompile(`(?i)\b(BUY|LONG)\b`)
	sellWordRe = regexp.MustCompile(`(?i)\b(SELL|SHORT)\b`)

	rangePairRe    = regexp.MustCompile(`(?i)(?:RANGE\s*:?\s*)?(\d+(?:\.\d+)?)\s*[-–~—]\s*(\d+(?:\.\d+)?)`)
	rangeKeywordRe = regexp.MustCompile(`(?i)\bRANGE\s*:?\s*(\d+(?:\.\d+)?)\s+(\d+(?:\.\d+)?)`)
	numberRe       = regexp.MustCompile(`\d+(?:\.\d+)?`)

	stopLossRe   = regexp.MustCompile(`(?i)\b(?:SL|S/L|STOP[\s-]?LOSS)\s*:?\s*/?(\d+(?:\.\d+)?)`)
	takeProfitRe = regexp.MustCompile(`(?i)\b(?:TP\d?|T/P|TAKE[\s-]?PROFIT)\s*:?\s*/?(\d+(?:\.\d+)?)`)
	volumeRe     = regexp.MustCompile(`(?i)\b(?:lot|lots|volume)s?\s*[:=]?\s*(\d+(?:\.\d+)?)`)
)

// reservedWords are tokens that can never be the instrument symbol.
var reservedWords = map[string]struct{}{
	"BUY": {}, "SELL": {}, "LONG": {}, "SHORT": {},
	"RANGE": {}, "ZONE": {}, "ENTRY": {}, "NOW": {},
	"STOP": {}, "LOSS": {}, "TAKE": {}, "PROFIT": {},
	"LOT": {}, "LOTS": {}, "VOLUME": {},
}

// Extractor parses free-text messages into Signals.
type Extractor struct {
	// RangeCeiling rejects ranges above it (crypto chatter in forex rooms);
	// 0 disables the filter.
	RangeCeiling float64
}

func NewExtractor(rangeCeiling float64) *Extractor {
	return &Extractor{RangeCeiling: rangeCeiling}
}

// Extract parses rawText into a Signal. It has no side effects; failures
// come back as *ExtractionError.
func (e *Extractor) Extract(rawText, messageID string, receivedAt time.Time) (*Signal, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return nil, extractionFailf("empty message")
	}

	direction, fromEmoji := extractDirection(text)
	if !direction.Valid() {
		return nil, extractionFailf("no direction keyword")
	}

	sym, ok := extractSymbol(text, direction, fromEmoji)
	if !ok {
		return nil, extractionFailf("no instrument symbol")
	}

	stopLoss, err := extractLabeledPrice(text, stopLossRe)
	if err != nil {
		return nil, err
	}
	takeProfit, err := extractLabeledPrice(text, takeProfitRe)
	if err != nil {
		return nil, err
	}
	volume, err := extractVolume(text)
	if err != nil {
		return nil, err
	}

	low, high, err := extractRange(text)
	if err != nil {
		return nil, err
	}
	if e.RangeCeiling > 0 && high > e.RangeCeiling {
		return nil, extractionFailf("range ceiling: %v exceeds %v", high, e.RangeCeiling)
	}

	return &Signal{
		ID:         SignalID(messageID, text),
		Symbol:     sym,
		Direction:  direction,
		RangeLow:   low,
		RangeHigh:  high,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Volume:     volume,
		ReceivedAt: receivedAt,
		RawText:    rawText,
	}, nil
}

// extractDirection prefers the room's emoji convention (red circle = sell,
// green circle = buy) over BUY/SELL/LONG/SHORT keywords.
func extractDirection(text string) (Direction, bool) {
	if strings.Contains(text, "\U0001F534") { // 🔴
		return DirectionSell, true
	}
	if strings.Contains(text, "\U0001F7E2") { // 🟢
		return DirectionBuy, true
	}
	buyIdx := buyWordRe.FindStringIndex(text)
	sellIdx := sellWordRe.FindStringIndex(text)
	switch {
	case buyIdx != nil && (sellIdx == nil || buyIdx[0] < sellIdx[0]):
		return DirectionBuy, false
	case sellIdx != nil:
		return DirectionSell, false
	default:
		return "", false
	}
}

// extractSymbol looks for an instrument token adjacent to the direction
// keyword. Emoji-marked messages have no keyword to anchor on, so the whole
// message is scanned in that case.
func extractSymbol(text string, direction Direction, fromEmoji bool) (string, bool) {
	tokens := strings.Fields(text)
	if fromEmoji {
		return firstSymbolCandidate(tokens, 0, len(tokens))
	}

	re := buyWordRe
	if direction == DirectionSell {
		re = sellWordRe
	}
	dirIdx := -1
	for i, tok := range tokens {
		if re.MatchString(tok) {
			dirIdx = i
			break
		}
	}
	if dirIdx < 0 {
		return firstSymbolCandidate(tokens, 0, len(tokens))
	}
	// Window of two tokens on either side of the direction keyword.
	lo := dirIdx - 2
	if lo < 0 {
		lo = 0
	}
	hi := dirIdx + 3
	if hi > len(tokens) {
		hi = len(tokens)
	}
	return firstSymbolCandidate(tokens, lo, hi)
}

func firstSymbolCandidate(tokens []string, lo, hi int) (string, bool) {
	for _, tok := range tokens[lo:hi] {
		tok = strings.Trim(tok, ":;,.!()[]#*_")
		if tok == "" || !symbol.IsCandidate(tok) {
			continue
		}
		if _, reserved := reservedWords[strings.ToUpper(tok)]; reserved {
			continue
		}
		if norm := symbol.Normalize(tok); norm != "" {
			return norm, true
		}
	}
	return "", false
}

// extractRange finds the two range prices: a separator pair first, then the
// RANGE keyword form, then the first two free-standing numbers once
// SL/TP/volume spans are masked out of the text.
func extractRange(text string) (low, high float64, err error) {
	masked := maskLabeledSpans(text)
	var a, b string
	if m := rangePairRe.FindStringSubmatch(masked); m != nil {
		a, b = m[1], m[2]
	} else if m := rangeKeywordRe.FindStringSubmatch(masked); m != nil {
		a, b = m[1], m[2]
	} else {
		nums := numberRe.FindAllString(masked, 2)
		if len(nums) < 2 {
			return 0, 0, extractionFailf("range values missing")
		}
		a, b = nums[0], nums[1]
	}
	first, err := parsePositive(a)
	if err != nil {
		return 0, 0, err
	}
	second, err := parsePositive(b)
	if err != nil {
		return 0, 0, err
	}
	if first > second {
		first, second = second, first
	}
	return first, second, nil
}

func extractLabeledPrice(text string, re *regexp.Regexp) (*float64, error) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil, nil
	}
	val, err := parsePositive(m[1])
	if err != nil {
		return nil, err
	}
	return &val, nil
}

func extractVolume(text string) (float64, error) {
	m := volumeRe.FindStringSubmatch(text)
	if m == nil {
		return 0, nil
	}
	return parsePositive(m[1])
}

func maskLabeledSpans(text string) string {
	for _, re := range []*regexp.Regexp{stopLossRe, takeProfitRe, volumeRe} {
		text = re.ReplaceAllString(text, " ")
	}
	return text
}

func parsePositive(token string) (float64, error) {
	d, err := decimal.NewFromString(token)
	if err != nil {
		return 0, extractionFailf("invalid numeric token %q", token)
	}
	if !d.IsPositive() {
		return 0, extractionFailf("numeric token %q is not positive", token)
	}
	f, _ := d.Float64()
	return f, nil
}
