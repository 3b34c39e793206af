package report

import (
	"fmt"
	"sync"

	"sigcopy/internal/gateway/notifier"
	"sigcopy/internal/logger"
)

const (
	queueSize     = 256
	recentEvents  = 200
	reporterLabel = "Signal Copier"
)

// Reporter publishes lifecycle events to the configured notifier. Publishing
// never blocks and never fails the caller: a full queue drops the event with
// a warning, a notifier error is logged and swallowed. The trade pipeline is
// the priority; reporting rides along.
type Reporter struct {
	notify notifier.TextNotifier

	queue chan Event
	done  chan struct{}

	mu     sync.Mutex
	recent []Event
	closed bool
}

func NewReporter(notify notifier.TextNotifier) *Reporter {
	if notify == nil {
		notify = notifier.Noop{}
	}
	r := &Reporter{
		notify: notify,
		queue:  make(chan Event, queueSize),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r
}

// Publish enqueues the event for delivery. Non-blocking.
func (r *Reporter) Publish(ev Event) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.recent = append(r.recent, ev)
	if len(r.recent) > recentEvents {
		r.recent = r.recent[len(r.recent)-recentEvents:]
	}
	// The non-blocking send stays under the lock so Close cannot close the
	// queue between the check and the send.
	select {
	case r.queue <- ev:
	default:
		logger.Warnf("reporter queue full, dropping %s event %s", ev.Kind, ev.ID)
	}
	r.mu.Unlock()
}

// Recent returns the newest events, most recent last.
func (r *Reporter) Recent() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.recent))
	copy(out, r.recent)
	return out
}

// Close drains the queue and stops the delivery loop.
func (r *Reporter) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	close(r.queue)
	<-r.done
}

func (r *Reporter) loop() {
	defer close(r.done)
	for ev := range r.queue {
		if err := r.notify.SendText(render(ev)); err != nil {
			logger.Warnf("reporter delivery failed for %s event %s: %v", ev.Kind, ev.ID, err)
		}
	}
}

func render(ev Event) string {
	title := ev.Title
	if title == "" {
		title = string(ev.Kind)
	}
	msg := notifier.StructuredMessage{
		Icon:      ev.Kind.icon(),
		Title:     fmt.Sprintf("%s | %s", reporterLabel, title),
		Timestamp: ev.At,
	}
	lines := make([]string, 0, len(ev.Fields)+1)
	if ev.SignalID != "" {
		lines = append(lines, "signal: "+ev.SignalID)
	}
	for _, f := range ev.Fields {
		lines = append(lines, f.Name+": "+f.Value)
	}
	if len(lines) > 0 {
		msg.Sections = []notifier.MessageSection{{Title: string(ev.Kind), Lines: lines}}
	}
	return msg.RenderMarkdown()
}
