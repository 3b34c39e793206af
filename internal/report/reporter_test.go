package report

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureNotifier records delivered messages.
type captureNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (c *captureNotifier) SendText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, text)
	return nil
}

func (c *captureNotifier) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	copy(out, c.sent)
	return out
}

func TestPublishDelivers(t *testing.T) {
	capture := &captureNotifier{}
	r := NewReporter(capture)

	r.Publish(NewEvent(EventTradeSubmitted, "7-abc", "trade SUBMITTED").
		With("symbol", "XAUUSD").
		With("order_id", "42"))
	r.Close()

	msgs := capture.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "TRADE_SUBMITTED")
	assert.Contains(t, msgs[0], "signal: 7-abc")
	assert.Contains(t, msgs[0], "order_id: 42")
}

func TestPublishNeverBlocksOrFails(t *testing.T) {
	capture := &captureNotifier{err: fmt.Errorf("telegram down")}
	r := NewReporter(capture)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < queueSize*2; i++ {
			r.Publish(NewEvent(EventSignalSeen, "s", "signal received"))
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked the caller")
	}
	r.Close()
}

func TestRecentKeepsBoundedWindow(t *testing.T) {
	r := NewReporter(nil)
	defer r.Close()

	for i := 0; i < recentEvents+50; i++ {
		r.Publish(NewEvent(EventSignalSeen, fmt.Sprintf("s-%d", i), ""))
	}
	recent := r.Recent()
	assert.Len(t, recent, recentEvents)
	assert.Equal(t, fmt.Sprintf("s-%d", recentEvents+49), recent[len(recent)-1].SignalID)
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	r := NewReporter(nil)
	r.Close()
	assert.NotPanics(t, func() {
		r.Publish(NewEvent(EventError, "", "late"))
	})
}

func TestEventIDsAreUnique(t *testing.T) {
	a := NewEvent(EventSignalSeen, "s", "")
	b := NewEvent(EventSignalSeen, "s", "")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
