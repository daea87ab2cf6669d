package reservations

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper drives the periodic expiry sweep. It is the only background
// scheduled operation in the core; a failed tick is logged and retried on
// the next one, never escalated to in-flight requests.
type Sweeper struct {
	cron     *cron.Cron
	manager  *Manager
	interval time.Duration
	logger   *zap.Logger
	entryID  cron.EntryID
	running  bool
}

// NewSweeper creates a sweeper ticking at the given interval
func NewSweeper(manager *Manager, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{
		cron:     cron.New(),
		manager:  manager,
		interval: interval,
		logger:   logger,
	}
}

// Start schedules the sweep loop
func (s *Sweeper) Start() error {
	if s.running {
		return fmt.Errorf("sweeper already running")
	}

	spec := fmt.Sprintf("@every %s", s.interval)
	entryID, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	s.entryID = entryID
	s.cron.Start()
	s.running = true

	s.logger.Info("Reservation sweeper started", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the sweep loop, waiting for a running tick to finish
func (s *Sweeper) Stop() {
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info("Reservation sweeper stopped")
}

func (s *Sweeper) tick() {
	released := s.manager.SweepExpired(time.Now())
	if released > 0 {
		s.logger.Info("Expired reservations released", zap.Int("count", released))
	}
}
