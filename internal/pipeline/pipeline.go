package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sigcopy/internal/commands"
	"sigcopy/internal/executor"
	"sigcopy/internal/feed"
	"sigcopy/internal/gateway/platform"
	"sigcopy/internal/ledger"
	"sigcopy/internal/logger"
	"sigcopy/internal/market"
	"sigcopy/internal/pkg/symbol"
	"sigcopy/internal/report"
	"sigcopy/internal/signal"
	"sigcopy/internal/strategy"
)

const quoteTimeout = 5 * time.Second

// Pipeline runs one chat message end to end: recognize management commands,
// extract a signal, price it, compute the entry, and hand it to the
// execution manager. Every stage reports its outcome; only extraction
// failures are silent skips.
type Pipeline struct {
	extractor *signal.Extractor
	registry  *strategy.Registry
	ledger    ledger.Ledger
	platform  platform.Platform
	observer  *market.Observer
	reporter  *report.Reporter
	executor  *executor.Manager
	commands  *commands.Manager

	// symbolSuffix is appended to extracted symbols for brokers that quote
	// XAUUSD as XAUUSD.p and the like.
	symbolSuffix string
}

type Params struct {
	Extractor    *signal.Extractor
	Registry     *strategy.Registry
	Ledger       ledger.Ledger
	Platform     platform.Platform
	Observer     *market.Observer
	Reporter     *report.Reporter
	Executor     *executor.Manager
	Commands     *commands.Manager
	SymbolSuffix string
}

func New(p Params) *Pipeline {
	return &Pipeline{
		extractor:    p.Extractor,
		registry:     p.Registry,
		ledger:       p.Ledger,
		platform:     p.Platform,
		observer:     p.Observer,
		reporter:     p.Reporter,
		executor:     p.Executor,
		commands:     p.Commands,
		symbolSuffix: p.SymbolSuffix,
	}
}

// HandleMessage processes one feed message. Non-signal chatter returns nil.
func (p *Pipeline) HandleMessage(ctx context.Context, msg feed.Message) error {
	if cmd, ok := commands.Recognize(msg.Text); ok {
		logger.Infof("message %s recognized as %s command", msg.ID, cmd.Kind)
		return p.commands.Apply(ctx, cmd)
	}

	sig, err := p.extractor.Extract(msg.Text, msg.ID, msg.ReceivedAt)
	if err != nil {
		var extractErr *signal.ExtractionError
		if errors.As(err, &extractErr) {
			logger.Debugf("message %s is not a signal: %s", msg.ID, extractErr.Reason)
			return nil
		}
		return err
	}
	sig.Symbol = symbol.WithSuffix(sig.Symbol, p.symbolSuffix)

	stored, existed, err := p.ledger.RememberSignal(ctx, sig)
	if err != nil {
		p.reportError(sig.ID, "recording signal failed", err)
		return err
	}
	sig = stored
	if !existed {
		p.reporter.Publish(report.NewEvent(report.EventSignalSeen, sig.ID, "signal received").
			With("symbol", sig.Symbol).
			With("direction", string(sig.Direction)).
			With("range", fmt.Sprintf("%.5f - %.5f", sig.RangeLow, sig.RangeHigh)))
	}

	quoteCtx, cancel := context.WithTimeout(ctx, quoteTimeout)
	quote, err := p.platform.GetQuote(quoteCtx, sig.Symbol)
	cancel()
	if err != nil {
		p.reportError(sig.ID, "quote unavailable", err)
		return err
	}
	p.observeMarket(sig, quote)

	sel := p.registry.Select(sig.Symbol)
	intent, err := strategy.Compute(sig, quote.PriceFor(sig.Direction), sel.Kind)
	if err != nil {
		p.reportError(sig.ID, "entry computation failed", err)
		return err
	}
	p.reporter.Publish(report.NewEvent(report.EventEntryComputed, sig.ID, "entry computed").
		With("strategy", string(intent.Strategy)).
		With("order", string(intent.OrderKind)).
		With("entry", fmt.Sprintf("%.5f", intent.EntryPrice)).
		With("rationale", intent.Rationale))

	volume := sig.Volume
	if volume <= 0 {
		volume = sel.Volume
	}
	out, err := p.executor.Execute(ctx, sig, intent, volume)
	if err != nil {
		if out.Record.Status == ledger.StatusFailed {
			// The FAILED attempt is already on the ledger; surface it as a
			// trade event and fail the run so the driver may retry.
			p.reportOutcome(sig, out)
			return err
		}
		p.reportError(sig.ID, "execution failed", err)
		return err
	}
	p.reportOutcome(sig, out)
	return nil
}

func (p *Pipeline) observeMarket(sig *signal.Signal, quote platform.Quote) {
	p.observer.Observe(sig.Symbol, (quote.Bid+quote.Ask)/2)
	snap, ok := p.observer.Snapshot(sig.Symbol)
	if !ok {
		return
	}
	ev := report.NewEvent(report.EventMarketAnalysis, sig.ID, "market analysis").
		With("symbol", snap.Symbol).
		With("last", fmt.Sprintf("%.5f", snap.Last)).
		With("trend", string(snap.Trend)).
		With("samples", fmt.Sprintf("%d", snap.Samples))
	if snap.EMA > 0 {
		ev = ev.With("ema", fmt.Sprintf("%.5f", snap.EMA))
	}
	if snap.RSI > 0 {
		ev = ev.With("rsi", fmt.Sprintf("%.1f", snap.RSI))
	}
	p.reporter.Publish(ev)
}

func (p *Pipeline) reportOutcome(sig *signal.Signal, out executor.Outcome) {
	if out.Deduplicated {
		logger.Infof("signal %s deduplicated against attempt %d (%s)", sig.ID, out.Record.Attempt, out.Record.Status)
		return
	}
	switch out.Record.Status {
	case ledger.StatusSubmitted, ledger.StatusFilled:
		p.reporter.Publish(report.NewEvent(report.EventTradeSubmitted, sig.ID, "trade "+out.Record.Status.String()).
			With("symbol", sig.Symbol).
			With("direction", string(sig.Direction)).
			With("order_id", out.Record.PlatformOrderID).
			With("deal_id", out.Record.PlatformDealID))
	case ledger.StatusRejected:
		p.reporter.Publish(report.NewEvent(report.EventTradeRejected, sig.ID, "trade rejected").
			With("symbol", sig.Symbol).
			With("detail", out.Record.ErrorDetail))
	case ledger.StatusFailed:
		p.reporter.Publish(report.NewEvent(report.EventTradeFailed, sig.ID, "trade failed").
			With("symbol", sig.Symbol).
			With("detail", out.Record.ErrorDetail))
	}
}

func (p *Pipeline) reportError(signalID, title string, err error) {
	logger.Errorf("%s for signal %s: %v", title, signalID, err)
	p.reporter.Publish(report.NewEvent(report.EventError, signalID, title).
		With("error", err.Error()))
}
