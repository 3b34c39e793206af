package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"sigcopy/internal/signal"
	"sigcopy/internal/store"
	"sigcopy/internal/store/model"
)

// PersistentLedger keeps the ledger in the sqlite store so dedup and audit
// survive restarts. The per-signal keyed lock is still in-process: the
// service owns its store file, so cross-process coordination is not needed,
// while each Transact body also runs inside a database transaction.
type PersistentLedger struct {
	store store.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewPersistentLedger(st store.Store) *PersistentLedger {
	return &PersistentLedger{store: st, locks: make(map[string]*sync.Mutex)}
}

func (l *PersistentLedger) RememberSignal(ctx context.Context, sig *signal.Signal) (*signal.Signal, bool, error) {
	if sig == nil || sig.ID == "" {
		return nil, false, fmt.Errorf("signal requires id")
	}
	stored, existed, err := l.store.Signals().Insert(ctx, signalToModel(sig))
	if err != nil {
		return nil, false, err
	}
	return signalFromModel(stored), existed, nil
}

func (l *PersistentLedger) Transact(ctx context.Context, signalID string, fn func(Tx) error) error {
	if signalID == "" {
		return fmt.Errorf("transact requires signal id")
	}
	lock := l.signalLock(signalID)
	lock.Lock()
	defer lock.Unlock()

	uow, err := l.store.Begin(ctx)
	if err != nil {
		return err
	}
	recs, err := uow.Executions().ListBySignal(ctx, signalID)
	if err != nil {
		uow.Rollback()
		return err
	}
	tx := &persistentTx{ctx: ctx, uow: uow, signalID: signalID, records: recs}
	if err := fn(tx); err != nil {
		uow.Rollback()
		return err
	}
	return uow.Commit()
}

func (l *PersistentLedger) signalLock(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[id] = lock
	}
	return lock
}

func (l *PersistentLedger) Signal(ctx context.Context, id string) (*signal.Signal, error) {
	m, err := l.store.Signals().FindByID(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	return signalFromModel(m), nil
}

func (l *PersistentLedger) Records(ctx context.Context, id string) ([]ExecutionRecord, error) {
	recs, err := l.store.Executions().ListBySignal(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]ExecutionRecord, 0, len(recs))
	for i := range recs {
		out = append(out, recordFromModel(&recs[i]))
	}
	return out, nil
}

func (l *PersistentLedger) Entries(ctx context.Context, limit int) ([]Entry, error) {
	signals, err := l.store.Signals().ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(signals))
	for i := range signals {
		recs, err := l.Records(ctx, signals[i].SignalID)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Signal: signalFromModel(&signals[i]), Records: recs})
	}
	return out, nil
}

func (l *PersistentLedger) Stats(ctx context.Context) (Stats, error) {
	count, err := l.store.Signals().Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	byStatus, err := l.store.Executions().CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Signals:   int(count),
		Submitted: int(byStatus[model.ExecutionStatusSubmitted]),
		Filled:    int(byStatus[model.ExecutionStatusFilled]),
		Rejected:  int(byStatus[model.ExecutionStatusRejected]),
		Failed:    int(byStatus[model.ExecutionStatusFailed]),
	}, nil
}

func (l *PersistentLedger) Close() error {
	return l.store.Close()
}

type persistentTx struct {
	ctx      context.Context
	uow      store.UnitOfWork
	signalID string
	records  []model.ExecutionModel
}

func (t *persistentTx) Live() (ExecutionRecord, bool) {
	for i := range t.records {
		st := Status(t.records[i].Status)
		if st.Live() {
			return recordFromModel(&t.records[i]), true
		}
	}
	return ExecutionRecord{}, false
}

func (t *persistentTx) Rejected() (ExecutionRecord, bool) {
	for i := range t.records {
		if Status(t.records[i].Status) == StatusRejected {
			return recordFromModel(&t.records[i]), true
		}
	}
	return ExecutionRecord{}, false
}

func (t *persistentTx) NextAttempt() int {
	return len(t.records) + 1
}

func (t *persistentTx) Append(rec ExecutionRecord) error {
	if rec.SignalID != t.signalID {
		return fmt.Errorf("record signal id %q does not match transaction %q", rec.SignalID, t.signalID)
	}
	m := recordToModel(&rec)
	if err := t.uow.Executions().Append(t.ctx, m); err != nil {
		return err
	}
	t.records = append(t.records, *m)
	return nil
}

func signalToModel(sig *signal.Signal) *model.SignalModel {
	return &model.SignalModel{
		SignalID:       sig.ID,
		Symbol:         sig.Symbol,
		Direction:      string(sig.Direction),
		RangeLow:       sig.RangeLow,
		RangeHigh:      sig.RangeHigh,
		StopLoss:       sig.StopLoss,
		TakeProfit:     sig.TakeProfit,
		Volume:         sig.Volume,
		RawText:        sig.RawText,
		ReceivedAtUnix: sig.ReceivedAt.Unix(),
	}
}

func signalFromModel(m *model.SignalModel) *signal.Signal {
	return &signal.Signal{
		ID:         m.SignalID,
		Symbol:     m.Symbol,
		Direction:  signal.Direction(m.Direction),
		RangeLow:   m.RangeLow,
		RangeHigh:  m.RangeHigh,
		StopLoss:   m.StopLoss,
		TakeProfit: m.TakeProfit,
		Volume:     m.Volume,
		RawText:    m.RawText,
		ReceivedAt: time.Unix(m.ReceivedAtUnix, 0),
	}
}

func recordToModel(rec *ExecutionRecord) *model.ExecutionModel {
	return &model.ExecutionModel{
		SignalID:        rec.SignalID,
		Attempt:         rec.Attempt,
		Status:          model.ExecutionStatus(rec.Status),
		PlatformOrderID: rec.PlatformOrderID,
		PlatformDealID:  rec.PlatformDealID,
		ErrorDetail:     rec.ErrorDetail,
		RawResponse:     []byte(rec.RawResponse),
		SubmittedAtUnix: rec.SubmittedAt.Unix(),
	}
}

func recordFromModel(m *model.ExecutionModel) ExecutionRecord {
	return ExecutionRecord{
		SignalID:        m.SignalID,
		Attempt:         m.Attempt,
		Status:          Status(m.Status),
		PlatformOrderID: m.PlatformOrderID,
		PlatformDealID:  m.PlatformDealID,
		ErrorDetail:     m.ErrorDetail,
		RawResponse:     json.RawMessage(m.RawResponse),
		SubmittedAt:     time.Unix(m.SubmittedAtUnix, 0),
	}
}
