package pipeline

import (
	"context"
	"time"

	"github.com/ebosslab/rrboss/internal/comm"
	"github.com/ebosslab/rrboss/internal/logger"
)

// stopwatch times pipeline phases. Both edges of a phase are barrier
// synchronized so the reported time covers the slowest rank, and only
// rank 0 logs.
type stopwatch struct {
	c   comm.Communicator
	log *logger.Logger
	now func() time.Time
}

func newStopwatch(c comm.Communicator, log *logger.Logger) *stopwatch {
	return &stopwatch{c: c, log: log, now: time.Now}
}

// start opens a phase.
func (s *stopwatch) start(ctx context.Context) (time.Time, error) {
	if s.c != nil {
		if err := s.c.Barrier(ctx); err != nil {
			return time.Time{}, err
		}
	}
	return s.now(), nil
}

// stop closes a phase and logs its duration on rank 0.
func (s *stopwatch) stop(ctx context.Context, began time.Time, label string) error {
	if s.c != nil {
		if err := s.c.Barrier(ctx); err != nil {
			return err
		}
	}
	if comm.RankOf(s.c) == 0 {
		s.log.Infof("%s took %.1f s", label, s.now().Sub(began).Seconds())
	}
	return nil
}
