package commands

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind is the management action a chat message asks for.
type Kind string

const (
	KindBreakEven    Kind = "break_even"
	KindPartialClose Kind = "partial_close"
	KindCloseAll     Kind = "close_all"
	KindExtendTP     Kind = "extend_tp"
)

// Command is a recognized position-management instruction. TargetTP is set
// only for extend-TP commands.
type Command struct {
	Kind     Kind
	TargetTP float64
	RawText  string
}

var breakEvenPhrases = []string{
	"break even", "breakeven", "move sl to entry", "sl to entry",
	"move stop to entry", "sl be", "sl to be", "set slto be",
}

var closeAllPhrases = []string{
	"position closed", "positions closed", "close position", "close positions",
	"close all", "close remaining", "exit all", "exit position", "exit positions",
	"close trade", "close trades", "position close", "full close", "close full",
}

var partialPhrases = []string{
	"take profit", "close half", "close 25%", "close 50%", "close 75%",
	"taking partials here",
}

var (
	tpLevelRe  = regexp.MustCompile(`(?i)\btp\s*[1-4]\b`)
	extendTPRe = regexp.MustCompile(`(?i)(?:extend|move|change|update|new)\s+(?:tp|take\s+profit|target)\s*(?:to)?\s*:?\s*(\d+(?:\.\d+)?)`)
	tpToRe     = regexp.MustCompile(`(?i)\btp\s+to\s+(\d+(?:\.\d+)?)`)
)

// Recognize classifies text as a management command. Extend-TP is tried
// first because its phrasing overlaps the partial-profit keywords.
func Recognize(text string) (Command, bool) {
	lower := strings.ToLower(text)

	if m := extendTPRe.FindStringSubmatch(lower); m != nil {
		if tp, err := strconv.ParseFloat(m[1], 64); err == nil && tp > 0 {
			return Command{Kind: KindExtendTP, TargetTP: tp, RawText: text}, true
		}
	}
	if m := tpToRe.FindStringSubmatch(lower); m != nil {
		if tp, err := strconv.ParseFloat(m[1], 64); err == nil && tp > 0 {
			return Command{Kind: KindExtendTP, TargetTP: tp, RawText: text}, true
		}
	}
	if containsAny(lower, breakEvenPhrases) {
		return Command{Kind: KindBreakEven, RawText: text}, true
	}
	if containsAny(lower, closeAllPhrases) {
		return Command{Kind: KindCloseAll, RawText: text}, true
	}
	if tpLevelRe.MatchString(lower) || containsAny(lower, partialPhrases) {
		return Command{Kind: KindPartialClose, RawText: text}, true
	}
	return Command{}, false
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
