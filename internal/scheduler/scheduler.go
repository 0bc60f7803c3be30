package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher refreshes the weather of every tracked city.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// Scheduler periodically refreshes the stored weather of all cities.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	refresher  Refresher
	interval   time.Duration
	jobTimeout time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, refresher Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	// A slow run is never overlapped by the next one.
	s.SingletonModeAll()
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{
		scheduler:  s,
		refresher:  refresher,
		interval:   interval,
		jobTimeout: 2 * time.Minute,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	log.Println("scheduler: running weather refresh job")

	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	if err := s.refresher.RefreshAll(ctx); err != nil {
		log.Printf("scheduler: refresh finished with errors: %v", err)
	}
	log.Printf("scheduler: completed weather refresh job in %s", time.Since(start).Round(time.Millisecond))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
