package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"sigcopy/internal/feed"
	"sigcopy/internal/logger"
)

const defaultWorkers = 4

// Service drives the pipeline from a feed source. Messages are processed
// concurrently up to the worker limit; distinct signals never wait on each
// other, while duplicates of one signal serialize inside the ledger.
type Service struct {
	source   feed.Source
	pipeline *Pipeline
	workers  int
}

func NewService(source feed.Source, p *Pipeline, workers int) *Service {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Service{source: source, pipeline: p, workers: workers}
}

// Run blocks until ctx is cancelled. Handler errors are logged, never fatal:
// one bad message must not stop the copier.
func (s *Service) Run(ctx context.Context) error {
	g := &errgroup.Group{}
	g.SetLimit(s.workers)

	err := s.source.Run(ctx, func(ctx context.Context, msg feed.Message) error {
		g.Go(func() error {
			if err := s.pipeline.HandleMessage(ctx, msg); err != nil {
				logger.Errorf("pipeline run for message %s failed: %v", msg.ID, err)
			}
			return nil
		})
		return nil
	})

	if waitErr := g.Wait(); waitErr != nil {
		logger.Errorf("pipeline drain failed: %v", waitErr)
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return nil
	}
	return err
}
