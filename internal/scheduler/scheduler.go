package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/temperature-dashboard/internal/logger"
	"github.com/i474232898/temperature-dashboard/internal/state"
)

// Dashboard is the part of the facade the refresh job drives.
type Dashboard interface {
	LoadDepartments(ctx context.Context) error
	LoadTemperaturesForDate(ctx context.Context, date time.Time) error
	SelectedDate() state.Observable[time.Time]
}

// Scheduler periodically refreshes the département list and the selected date's temperatures.
type Scheduler struct {
	scheduler *gocron.Scheduler
	dashboard Dashboard
	interval  time.Duration
	timeout   time.Duration
	l         *logger.Logger
}

// New creates a new Scheduler.
func New(interval time.Duration, dashboard Dashboard, l *logger.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		dashboard: dashboard,
		interval:  interval,
		timeout:   2 * time.Minute,
		l:         l,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens one interval after Start.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 30
	}

	_, err := s.scheduler.Every(minutes).Minutes().WaitForSchedule().Do(s.Refresh)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Refresh reloads departments and the selected date's temperatures concurrently.
func (s *Scheduler) Refresh() {
	s.l.Info("scheduler: running refresh job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.dashboard.LoadDepartments(ctx); err != nil {
			s.l.Warning("scheduler: departments refresh failed", map[string]any{"cause": err})
		}
	}()
	go func() {
		defer wg.Done()
		date, _ := state.Current(s.dashboard.SelectedDate())
		if err := s.dashboard.LoadTemperaturesForDate(ctx, date); err != nil {
			s.l.Warning("scheduler: temperatures refresh failed", map[string]any{"cause": err})
		}
	}()
	wg.Wait()

	s.l.Info("scheduler: completed refresh job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
