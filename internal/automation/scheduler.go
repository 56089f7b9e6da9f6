package automation

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"

	"autoblog/internal/logger"
)

const (
	maxPollInterval = time.Minute
	defaultJitter   = 30 * time.Minute
	day             = 24 * time.Hour
)

// Slots returns the daily publishing times as offsets from midnight.
// One post runs at 09:00, two at 09:00 and 17:00. Larger counts are spread
// evenly with a random delay in [0, jitter).
func Slots(postsPerDay int, rng *rand.Rand, jitter time.Duration) []time.Duration {
	switch {
	case postsPerDay <= 1:
		return []time.Duration{9 * time.Hour}
	case postsPerDay == 2:
		return []time.Duration{9 * time.Hour, 17 * time.Hour}
	}

	if jitter < 0 {
		jitter = 0
	}
	spacing := day / time.Duration(postsPerDay)
	slots := make([]time.Duration, 0, postsPerDay)
	for i := 0; i < postsPerDay; i++ {
		offset := spacing * time.Duration(i)
		if jitter > 0 && rng != nil {
			offset += time.Duration(rng.Int63n(int64(jitter)))
		}
		slots = append(slots, min(offset, day-time.Minute))
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// Schedule is a set of daily cron expressions.
type Schedule struct {
	specs []string
	exprs []*cronexpr.Expression
}

// NewSchedule builds the daily schedule for postsPerDay.
func NewSchedule(postsPerDay int, rng *rand.Rand, jitter time.Duration) (*Schedule, error) {
	slots := Slots(postsPerDay, rng, jitter)
	s := &Schedule{}
	for _, slot := range slots {
		spec := fmt.Sprintf("%d %d * * *", int(slot.Minutes())%60, int(slot.Hours()))
		expr, err := cronexpr.Parse(spec)
		if err != nil {
			return nil, fmt.Errorf("failed to parse schedule %q: %w", spec, err)
		}
		s.specs = append(s.specs, spec)
		s.exprs = append(s.exprs, expr)
	}
	return s, nil
}

// Specs returns the cron expressions of the schedule.
func (s *Schedule) Specs() []string {
	return append([]string(nil), s.specs...)
}

// Next returns the earliest slot strictly after now.
func (s *Schedule) Next(now time.Time) time.Time {
	var next time.Time
	for _, expr := range s.exprs {
		t := expr.Next(now)
		if t.IsZero() {
			continue
		}
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	return next
}

// Scheduler calls a job at every slot of a Schedule.
type Scheduler struct {
	job      func(ctx context.Context)
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	schedule *Schedule
	next     time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler creates a scheduler polling at pollInterval, clamped to a minute.
func NewScheduler(schedule *Schedule, pollInterval time.Duration, job func(ctx context.Context)) *Scheduler {
	if pollInterval <= 0 || pollInterval > maxPollInterval {
		pollInterval = maxPollInterval
	}
	return &Scheduler{
		job:      job,
		interval: pollInterval,
		now:      time.Now,
		schedule: schedule,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// NextRun returns the next due time. It is zero before Run starts.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Specs returns the cron expressions of the active schedule.
func (s *Scheduler) Specs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule.Specs()
}

// SetSchedule replaces the schedule and recomputes the next run.
func (s *Scheduler) SetSchedule(schedule *Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedule = schedule
	s.next = schedule.Next(s.now())
}

// Stop ends the loop after any in-flight job. It is safe to call repeatedly.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Done is closed once Run has returned.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Run blocks until ctx is done or Stop is called.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)

	s.mu.Lock()
	s.next = s.schedule.Next(s.now())
	next := s.next
	s.mu.Unlock()
	logger.Info("Scheduler started", "next_run", next.Format(time.RFC3339), "poll_interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped", "reason", ctx.Err().Error())
			return
		case <-s.stop:
			logger.Info("Scheduler stopped", "reason", "stop requested")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	due := !s.next.IsZero() && !s.now().Before(s.next)
	s.mu.Unlock()
	if !due {
		return
	}

	s.runJob(ctx)

	s.mu.Lock()
	s.next = s.schedule.Next(s.now())
	next := s.next
	s.mu.Unlock()
	logger.Info("Next scheduled run", "next_run", next.Format(time.RFC3339))
}

func (s *Scheduler) runJob(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Scheduled run panicked", fmt.Errorf("%v", r))
		}
	}()
	s.job(ctx)
}
