package commands

import (
	"context"
	"fmt"
	"math"

	"sigcopy/internal/gateway/platform"
	"sigcopy/internal/logger"
	"sigcopy/internal/report"
)

// breakEvenTolerance treats an SL within one pip of entry as already moved.
const breakEvenTolerance = 0.00001

// Manager applies management commands to every open position. Commands touch
// positions only; they never create execution records, so they cannot
// interfere with entry dedup.
type Manager struct {
	platform platform.Platform
	reporter *report.Reporter

	// bePartialVolume is closed when moving SL to break even; partialVolume
	// is the fraction of a position closed on a partial-profit command.
	bePartialVolume float64
	partialFraction float64
}

func NewManager(p platform.Platform, reporter *report.Reporter, bePartialVolume, partialFraction float64) *Manager {
	if partialFraction <= 0 || partialFraction >= 1 {
		partialFraction = 0.5
	}
	return &Manager{
		platform:        p,
		reporter:        reporter,
		bePartialVolume: bePartialVolume,
		partialFraction: partialFraction,
	}
}

// Apply executes cmd against all open positions and reports the outcome.
func (m *Manager) Apply(ctx context.Context, cmd Command) error {
	positions, err := m.platform.ListOpenPositions(ctx)
	if err != nil {
		m.reportError(cmd, err)
		return err
	}
	if len(positions) == 0 {
		logger.Infof("command %s ignored: no open positions", cmd.Kind)
		return nil
	}

	var applied, failed int
	for _, pos := range positions {
		var err error
		switch cmd.Kind {
		case KindBreakEven:
			err = m.breakEven(ctx, pos)
		case KindPartialClose:
			err = m.partialClose(ctx, pos)
		case KindCloseAll:
			err = m.platform.ClosePosition(ctx, pos.ID, 0)
		case KindExtendTP:
			tp := cmd.TargetTP
			err = m.platform.ModifyPosition(ctx, pos.ID, nil, &tp)
		default:
			err = fmt.Errorf("unknown command kind %q", cmd.Kind)
		}
		if err != nil {
			failed++
			logger.Errorf("command %s failed on position %s (%s): %v", cmd.Kind, pos.ID, pos.Symbol, err)
			continue
		}
		applied++
	}

	ev := report.NewEvent(report.EventPositionUpdate, "", string(cmd.Kind)).
		With("positions", fmt.Sprintf("%d", len(positions))).
		With("applied", fmt.Sprintf("%d", applied)).
		With("failed", fmt.Sprintf("%d", failed))
	if cmd.Kind == KindExtendTP {
		ev = ev.With("new_tp", fmt.Sprintf("%g", cmd.TargetTP))
	}
	m.reporter.Publish(ev)

	if failed > 0 {
		return fmt.Errorf("command %s failed on %d of %d positions", cmd.Kind, failed, len(positions))
	}
	return nil
}

// breakEven moves SL to the entry price, taking a small partial first when
// the position is large enough to keep running.
func (m *Manager) breakEven(ctx context.Context, pos platform.Position) error {
	if math.Abs(pos.StopLoss-pos.EntryPrice) <= breakEvenTolerance {
		logger.Debugf("position %s already at break even", pos.ID)
		return nil
	}
	if m.bePartialVolume > 0 && pos.Volume > m.bePartialVolume {
		if err := m.platform.ClosePosition(ctx, pos.ID, m.bePartialVolume); err != nil {
			return fmt.Errorf("break-even partial close: %w", err)
		}
	}
	sl := pos.EntryPrice
	return m.platform.ModifyPosition(ctx, pos.ID, &sl, nil)
}

func (m *Manager) partialClose(ctx context.Context, pos platform.Position) error {
	volume := pos.Volume * m.partialFraction
	if volume <= 0 {
		return nil
	}
	return m.platform.ClosePosition(ctx, pos.ID, volume)
}

func (m *Manager) reportError(cmd Command, err error) {
	m.reporter.Publish(report.NewEvent(report.EventError, "", "command failed").
		With("command", string(cmd.Kind)).
		With("error", err.Error()))
}
