package report

import (
	"time"

	"github.com/google/uuid"
)

// EventKind labels the lifecycle stage an event reports.
type EventKind string

const (
	EventSignalSeen     EventKind = "SIGNAL_SEEN"
	EventEntryComputed  EventKind = "ENTRY_COMPUTED"
	EventMarketAnalysis EventKind = "MARKET_ANALYSIS"
	EventTradeSubmitted EventKind = "TRADE_SUBMITTED"
	EventTradeRejected  EventKind = "TRADE_REJECTED"
	EventTradeFailed    EventKind = "TRADE_FAILED"
	EventPositionUpdate EventKind = "POSITION_UPDATE"
	EventSystemStarted  EventKind = "SYSTEM_STARTED"
	EventSystemStopped  EventKind = "SYSTEM_STOPPED"
	EventError          EventKind = "ERROR"
)

// Event is a single outcome report. Fields preserves insertion order so the
// rendered message reads the same way every time.
type Event struct {
	ID       string
	Kind     EventKind
	SignalID string
	Title    string
	Fields   []Field
	At       time.Time
}

type Field struct {
	Name  string
	Value string
}

func NewEvent(kind EventKind, signalID, title string) Event {
	return Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		SignalID: signalID,
		Title:    title,
		At:       time.Now(),
	}
}

func (e Event) With(name, value string) Event {
	e.Fields = append(e.Fields, Field{Name: name, Value: value})
	return e
}

func (e EventKind) icon() string {
	switch e {
	case EventSignalSeen:
		return "📨"
	case EventEntryComputed:
		return "🧮"
	case EventMarketAnalysis:
		return "📊"
	case EventTradeSubmitted:
		return "✅"
	case EventTradeRejected:
		return "⛔"
	case EventTradeFailed:
		return "⚠️"
	case EventPositionUpdate:
		return "🎯"
	case EventSystemStarted:
		return "🟢"
	case EventSystemStopped:
		return "🔴"
	case EventError:
		return "❌"
	default:
		return "ℹ️"
	}
}
