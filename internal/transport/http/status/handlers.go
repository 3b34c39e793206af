package statushttp

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sigcopy/internal/ledger"
	"sigcopy/internal/report"
)

type handlers struct {
	ledger   ledger.Ledger
	reporter *report.Reporter
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type signalView struct {
	ID         string       `json:"id"`
	Symbol     string       `json:"symbol"`
	Direction  string       `json:"direction"`
	RangeLow   float64      `json:"range_low"`
	RangeHigh  float64      `json:"range_high"`
	StopLoss   *float64     `json:"stop_loss,omitempty"`
	TakeProfit *float64     `json:"take_profit,omitempty"`
	Volume     float64      `json:"volume,omitempty"`
	ReceivedAt int64        `json:"received_at"`
	Records    []recordView `json:"records"`
}

type recordView struct {
	Attempt     int    `json:"attempt"`
	Status      string `json:"status"`
	OrderID     string `json:"order_id,omitempty"`
	DealID      string `json:"deal_id,omitempty"`
	Error       string `json:"error,omitempty"`
	SubmittedAt int64  `json:"submitted_at"`
}

func (h *handlers) listSignals(c *gin.Context) {
	limit := defaultEntryLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := h.ledger.Entries(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]signalView, 0, len(entries))
	for _, e := range entries {
		out = append(out, toSignalView(e))
	}
	c.JSON(http.StatusOK, gin.H{"signals": out})
}

func (h *handlers) getSignal(c *gin.Context) {
	id := c.Param("id")
	sig, err := h.ledger.Signal(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if sig == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "signal not found"})
		return
	}
	recs, err := h.ledger.Records(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toSignalView(ledger.Entry{Signal: sig, Records: recs}))
}

func (h *handlers) stats(c *gin.Context) {
	stats, err := h.ledger.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

type eventView struct {
	ID       string            `json:"id"`
	Kind     string            `json:"kind"`
	SignalID string            `json:"signal_id,omitempty"`
	Title    string            `json:"title"`
	Fields   map[string]string `json:"fields,omitempty"`
	At       int64             `json:"at"`
}

func (h *handlers) events(c *gin.Context) {
	if h.reporter == nil {
		c.JSON(http.StatusOK, gin.H{"events": []eventView{}})
		return
	}
	recent := h.reporter.Recent()
	out := make([]eventView, 0, len(recent))
	for _, ev := range recent {
		view := eventView{
			ID:       ev.ID,
			Kind:     string(ev.Kind),
			SignalID: ev.SignalID,
			Title:    ev.Title,
			At:       ev.At.Unix(),
		}
		if len(ev.Fields) > 0 {
			view.Fields = make(map[string]string, len(ev.Fields))
			for _, f := range ev.Fields {
				view.Fields[f.Name] = f.Value
			}
		}
		out = append(out, view)
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}

func toSignalView(e ledger.Entry) signalView {
	view := signalView{
		ID:         e.Signal.ID,
		Symbol:     e.Signal.Symbol,
		Direction:  string(e.Signal.Direction),
		RangeLow:   e.Signal.RangeLow,
		RangeHigh:  e.Signal.RangeHigh,
		StopLoss:   e.Signal.StopLoss,
		TakeProfit: e.Signal.TakeProfit,
		Volume:     e.Signal.Volume,
		ReceivedAt: e.Signal.ReceivedAt.Unix(),
	}
	for _, rec := range e.Records {
		view.Records = append(view.Records, recordView{
			Attempt:     rec.Attempt,
			Status:      rec.Status.String(),
			OrderID:     rec.PlatformOrderID,
			DealID:      rec.PlatformDealID,
			Error:       rec.ErrorDetail,
			SubmittedAt: rec.SubmittedAt.Unix(),
		})
	}
	return view
}
