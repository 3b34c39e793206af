package ledger

import (
	"context"
	"fmt"
	"sync"

	"sigcopy/internal/signal"
)

// MemoryLedger keeps the full ledger in process memory. It is the default
// backend when no store path is configured, and the test double elsewhere.
type MemoryLedger struct {
	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	entries map[string]*Entry
	order   []string // insertion order of signal ids
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		locks:   make(map[string]*sync.Mutex),
		entries: make(map[string]*Entry),
	}
}

func (l *MemoryLedger) RememberSignal(_ context.Context, sig *signal.Signal) (*signal.Signal, bool, error) {
	if sig == nil || sig.ID == "" {
		return nil, false, fmt.Errorf("signal requires id")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.entries[sig.ID]; ok {
		return existing.Signal, true, nil
	}
	cp := *sig
	l.entries[sig.ID] = &Entry{Signal: &cp}
	l.order = append(l.order, sig.ID)
	return &cp, false, nil
}

// Transact holds the per-signal lock for the whole of fn, including any
// platform call made inside it; that is what makes check-and-append
// indivisible for one signal id without serializing distinct signals.
func (l *MemoryLedger) Transact(_ context.Context, signalID string, fn func(Tx) error) error {
	if signalID == "" {
		return fmt.Errorf("transact requires signal id")
	}
	lock := l.signalLock(signalID)
	lock.Lock()
	defer lock.Unlock()
	return fn(&memoryTx{ledger: l, signalID: signalID})
}

func (l *MemoryLedger) signalLock(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[id] = lock
	}
	return lock
}

func (l *MemoryLedger) Signal(_ context.Context, id string) (*signal.Signal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[id]; ok {
		return e.Signal, nil
	}
	return nil, nil
}

func (l *MemoryLedger) Records(_ context.Context, id string) ([]ExecutionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[id]
	if !ok {
		return nil, nil
	}
	out := make([]ExecutionRecord, len(e.Records))
	copy(out, e.Records)
	return out, nil
}

func (l *MemoryLedger) Entries(_ context.Context, limit int) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, len(l.order))
	copy(ids, l.order)
	out := make([]Entry, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		e := l.entries[ids[i]]
		cp := Entry{Signal: e.Signal, Records: make([]ExecutionRecord, len(e.Records))}
		copy(cp.Records, e.Records)
		out = append(out, cp)
	}
	return out, nil
}

func (l *MemoryLedger) Stats(ctx context.Context) (Stats, error) {
	entries, err := l.Entries(ctx, 0)
	if err != nil {
		return Stats{}, err
	}
	return tallyStats(entries), nil
}

func (l *MemoryLedger) Close() error { return nil }

type memoryTx struct {
	ledger   *MemoryLedger
	signalID string
}

func (t *memoryTx) snapshot() []ExecutionRecord {
	t.ledger.mu.Lock()
	defer t.ledger.mu.Unlock()
	if e, ok := t.ledger.entries[t.signalID]; ok {
		return e.Records
	}
	return nil
}

func (t *memoryTx) Live() (ExecutionRecord, bool) {
	for _, rec := range t.snapshot() {
		if rec.Status.Live() {
			return rec, true
		}
	}
	return ExecutionRecord{}, false
}

func (t *memoryTx) Rejected() (ExecutionRecord, bool) {
	for _, rec := range t.snapshot() {
		if rec.Status == StatusRejected {
			return rec, true
		}
	}
	return ExecutionRecord{}, false
}

func (t *memoryTx) NextAttempt() int {
	return len(t.snapshot()) + 1
}

func (t *memoryTx) Append(rec ExecutionRecord) error {
	if rec.SignalID != t.signalID {
		return fmt.Errorf("record signal id %q does not match transaction %q", rec.SignalID, t.signalID)
	}
	t.ledger.mu.Lock()
	defer t.ledger.mu.Unlock()
	e, ok := t.ledger.entries[t.signalID]
	if !ok {
		return fmt.Errorf("unknown signal %q", t.signalID)
	}
	e.Records = append(e.Records, rec)
	return nil
}
