/*
scheduler.go - Automated monthly statistics scheduler

PURPOSE:
  Periodically makes sure the payment statistics of the previous month
  have been recorded, so the statistics endpoints have a snapshot as soon
  as a month closes.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Checks immediately on start, then on every tick
  - Skips months that already have a snapshot (EnsureRecorded)
  - Manual recording stays available via POST /api/statistics/calculate

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewStatisticsScheduler(services.Statistics)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: CalculateStatistics endpoint (manual recording)
  - dossier/statistics.go: StatisticsService
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/pension-engine/pension"
)

// StatisticsRecorder records a month's statistics unless already present.
type StatisticsRecorder interface {
	EnsureRecorded(ctx context.Context, period pension.YearMonth) (bool, error)
}

// StatisticsScheduler records the previous month's statistics.
type StatisticsScheduler struct {
	Statistics    StatisticsRecorder
	CheckInterval time.Duration
	Enabled       bool

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	// runMu guards lastRun; mu is held by Stop while the loop drains.
	runMu   sync.Mutex
	lastRun time.Time
}

// NewStatisticsScheduler creates a new scheduler.
func NewStatisticsScheduler(stats StatisticsRecorder) *StatisticsScheduler {
	return &StatisticsScheduler{
		Statistics:    stats,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Now:           time.Now,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *StatisticsScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)

	go s.run()

	log.Printf("[Scheduler] Started with check interval: %v", s.CheckInterval)
}

// Stop stops the scheduler and waits for a running check to finish.
func (s *StatisticsScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		log.Println("[Scheduler] Stopped")
	}
}

func (s *StatisticsScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.RunNow(context.Background())

	for {
		select {
		case <-s.ticker.C:
			s.RunNow(context.Background())
		case <-s.stop:
			return
		}
	}
}

// RunNow records the previous month if needed. It reports whether a
// snapshot was written.
func (s *StatisticsScheduler) RunNow(ctx context.Context) bool {
	now := s.Now()
	period := pension.YearMonthOf(now).Previous()

	recorded, err := s.Statistics.EnsureRecorded(ctx, period)
	s.runMu.Lock()
	s.lastRun = now
	s.runMu.Unlock()
	if err != nil {
		log.Printf("[Scheduler] Error recording statistics for %s: %v", period.Display(), err)
		return false
	}
	if recorded {
		log.Printf("[Scheduler] Recorded statistics for %s", period.Display())
	}
	return recorded
}

// NextRunTime returns when the next scheduled check will occur.
func (s *StatisticsScheduler) NextRunTime() time.Time {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.lastRun.IsZero() {
		return s.Now()
	}
	return s.lastRun.Add(s.CheckInterval)
}
