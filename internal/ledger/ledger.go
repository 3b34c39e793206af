package ledger

import (
	"context"
	"encoding/json"
	"time"

	"sigcopy/internal/signal"
)

// Status is the lifecycle state of one execution attempt.
type Status int

const (
	StatusPending   Status = 0
	StatusSubmitted Status = 1
	StatusFilled    Status = 2
	StatusRejected  Status = 3
	StatusFailed    Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusSubmitted:
		return "SUBMITTED"
	case StatusFilled:
		return "FILLED"
	case StatusRejected:
		return "REJECTED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Live reports whether this status represents an order that is (or may be)
// working at the platform. At most one live record may exist per signal.
func (s Status) Live() bool {
	return s == StatusSubmitted || s == StatusFilled
}

// ExecutionRecord is one attempt to place an order for a signal. Records are
// append-only; they are the audit trail and are never deleted.
type ExecutionRecord struct {
	SignalID        string
	Attempt         int
	Status          Status
	PlatformOrderID string
	PlatformDealID  string
	ErrorDetail     string
	RawResponse     json.RawMessage
	SubmittedAt     time.Time
}

// Entry pairs a signal with its execution history.
type Entry struct {
	Signal  *signal.Signal
	Records []ExecutionRecord
}

// Tx is the view the execution manager gets inside a keyed transaction.
type Tx interface {
	// Live returns the SUBMITTED/FILLED record for the signal, if any.
	Live() (ExecutionRecord, bool)
	// Rejected reports whether a terminal rejection exists for the signal.
	Rejected() (ExecutionRecord, bool)
	// NextAttempt returns 1 + the number of recorded attempts.
	NextAttempt() int
	// Append stores a new record.
	Append(rec ExecutionRecord) error
}

// Stats summarizes the ledger for status endpoints.
type Stats struct {
	Signals   int `json:"signals"`
	Submitted int `json:"submitted"`
	Filled    int `json:"filled"`
	Rejected  int `json:"rejected"`
	Failed    int `json:"failed"`
}

// Ledger records signals and their execution attempts. Transact serializes
// all work for one signal id: the dedup check and the record insert inside
// fn are atomic with respect to concurrent runs for the same signal.
type Ledger interface {
	// RememberSignal stores sig unless a signal already exists for its id,
	// and returns the stored signal plus whether it was already known.
	RememberSignal(ctx context.Context, sig *signal.Signal) (*signal.Signal, bool, error)
	Transact(ctx context.Context, signalID string, fn func(Tx) error) error
	Signal(ctx context.Context, id string) (*signal.Signal, error)
	Records(ctx context.Context, id string) ([]ExecutionRecord, error)
	// Entries lists recent signals with their records, newest first.
	Entries(ctx context.Context, limit int) ([]Entry, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

func tallyStats(entries []Entry) Stats {
	var st Stats
	st.Signals = len(entries)
	for _, e := range entries {
		for _, rec := range e.Records {
			switch rec.Status {
			case StatusSubmitted:
				st.Submitted++
			case StatusFilled:
				st.Filled++
			case StatusRejected:
				st.Rejected++
			case StatusFailed:
				st.Failed++
			}
		}
	}
	return st
}
