package automation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"autoblog/internal/config"
	"autoblog/internal/core"
	"autoblog/internal/logger"
)

const defaultRecentLogs = 10

// Service is the process level facade over the orchestrator and scheduler.
type Service struct {
	orch *Orchestrator
	rng  *rand.Rand
	now  func() time.Time

	inProgress atomic.Bool

	mu        sync.Mutex
	scheduler *Scheduler
	stopping  *Scheduler // Stopped, possibly still finishing a run
	cancel    context.CancelFunc
	lastRun   *core.RunLogEntry
}

// NewService wraps orch. The settings held by orch drive the schedule.
func NewService(orch *Orchestrator) *Service {
	return &Service{
		orch: orch,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		now:  orch.deps.Now,
	}
}

// Orchestrator returns the underlying orchestrator.
func (s *Service) Orchestrator() *Orchestrator { return s.orch }

// Start launches the scheduler in the background. After a Stop the new loop
// begins once the previous one has exited.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler != nil {
		return ErrSchedulerRunning
	}

	settings := s.orch.Settings()
	schedule, err := NewSchedule(settings.PostsPerDay, s.rng, jitterOf(settings))
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	scheduler := NewScheduler(schedule, settings.PollInterval, s.scheduledRun)
	scheduler.now = s.now
	s.scheduler = scheduler
	s.cancel = cancel

	previous := s.stopping
	go func() {
		if previous != nil {
			<-previous.Done()
		}
		scheduler.Run(runCtx)
	}()
	logger.Info("Automation started", "posts_per_day", settings.PostsPerDay, "slots", strings.Join(schedule.Specs(), ", "))
	return nil
}

// Stop asks the scheduler to exit once any in-flight run completes.
func (s *Service) Stop() error {
	s.mu.Lock()
	scheduler := s.scheduler
	cancel := s.cancel
	if scheduler != nil {
		s.stopping = scheduler
	}
	s.scheduler = nil
	s.cancel = nil
	s.mu.Unlock()

	if scheduler == nil {
		return ErrSchedulerStopped
	}
	scheduler.Stop()
	go func() {
		<-scheduler.Done()
		cancel()
		s.mu.Lock()
		if s.stopping == scheduler {
			s.stopping = nil
		}
		s.mu.Unlock()
	}()
	logger.Info("Automation stop requested")
	return nil
}

// Shutdown stops the scheduler and waits for it, and any loop still
// finishing after an earlier Stop, to exit or for ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	loops := make([]*Scheduler, 0, 2)
	for _, sched := range []*Scheduler{s.scheduler, s.stopping} {
		if sched != nil {
			loops = append(loops, sched)
		}
	}
	s.mu.Unlock()

	_ = s.Stop()
	for _, sched := range loops {
		select {
		case <-sched.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Running reports whether the scheduler is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler != nil
}

// RunNow executes one pipeline pass synchronously. It fails with
// core.ErrRunInProgress while another pass is executing.
func (s *Service) RunNow(ctx context.Context, topic *core.Topic) (core.RunLogEntry, error) {
	if !s.inProgress.CompareAndSwap(false, true) {
		return core.RunLogEntry{}, core.ErrRunInProgress
	}
	defer s.inProgress.Store(false)

	metrics := s.orch.deps.Metrics
	metrics.SetInProgress(true)
	defer metrics.SetInProgress(false)

	entry := s.orch.GenerateAndPublish(ctx, topic)

	s.mu.Lock()
	s.lastRun = &entry
	s.mu.Unlock()
	return entry, nil
}

// scheduledRun is the scheduler job. It honours the minimum gap between posts.
func (s *Service) scheduledRun(ctx context.Context) {
	settings := s.orch.Settings()
	if gap := EffectiveGap(settings); gap > 0 {
		if last, ok := s.lastSuccessTime(); ok {
			if since := s.now().Sub(last); since < gap {
				logger.Info("Skipping scheduled run, last post too recent",
					"hours_since_last_post", fmt.Sprintf("%.1f", since.Hours()),
					"min_hours", gap.Hours())
				return
			}
		}
	}

	entry, err := s.RunNow(ctx, nil)
	if err != nil {
		logger.Warn("Skipping scheduled run", "error", err.Error())
		return
	}
	logger.Info("Scheduled run finished", "status", string(entry.Status), "run_id", entry.ID)
}

func (s *Service) lastSuccessTime() (time.Time, bool) {
	runLog := s.orch.RunLog()
	if runLog == nil {
		return time.Time{}, false
	}
	entries, err := runLog.Entries()
	if err != nil {
		return time.Time{}, false
	}
	entry, ok := lastSuccess(entries)
	return entry.Timestamp, ok
}

// EffectiveGap is the minimum time between scheduled posts. It never exceeds
// half the slot spacing, so a gap cannot swallow a whole slot.
func EffectiveGap(settings config.Automation) time.Duration {
	if settings.MinHoursBetweenPosts <= 0 {
		return 0
	}
	gap := time.Duration(settings.MinHoursBetweenPosts * float64(time.Hour))
	posts := max(settings.PostsPerDay, 1)
	return min(gap, day/time.Duration(posts)/2)
}

func jitterOf(settings config.Automation) time.Duration {
	if settings.Jitter < 0 {
		return defaultJitter
	}
	return settings.Jitter
}

// Status is a point in time view of the automation.
type Status struct {
	Running       bool               `json:"running"`
	RunInProgress bool               `json:"run_in_progress"`
	Stopping      bool               `json:"stopping"`
	NextRun       *time.Time         `json:"next_run,omitempty"`
	LastRun       *core.RunLogEntry  `json:"last_run,omitempty"`
	LastPostTime  *time.Time         `json:"last_post_time,omitempty"`
	PostsPerDay   int                `json:"posts_per_day"`
	Slots         []string           `json:"slots,omitempty"`
	Failures      map[string]int     `json:"failure_counts"`
	Settings      config.Automation  `json:"config"`
	RecentLogs    []core.RunLogEntry `json:"recent_logs"`
}

// Status reports the scheduler state and the last recent log entries, newest first.
func (s *Service) Status(recent int) Status {
	if recent <= 0 {
		recent = defaultRecentLogs
	}
	settings := s.orch.Settings()

	st := Status{
		RunInProgress: s.inProgress.Load(),
		PostsPerDay:   settings.PostsPerDay,
		Failures:      s.orch.Failures().Snapshot(),
		Settings:      settings,
		RecentLogs:    []core.RunLogEntry{},
	}

	s.mu.Lock()
	st.Stopping = s.stopping != nil
	if s.scheduler != nil {
		st.Running = true
		if next := s.scheduler.NextRun(); !next.IsZero() {
			st.NextRun = &next
		}
		st.Slots = s.scheduler.Specs()
	}
	if s.lastRun != nil {
		last := *s.lastRun
		st.LastRun = &last
	}
	s.mu.Unlock()

	if runLog := s.orch.RunLog(); runLog != nil {
		if entries, err := runLog.Entries(); err == nil {
			st.RecentLogs = newestFirst(entries, recent)
			if st.LastRun == nil && len(entries) > 0 {
				last := entries[len(entries)-1]
				st.LastRun = &last
			}
			if entry, ok := lastSuccess(entries); ok {
				ts := entry.Timestamp
				st.LastPostTime = &ts
			}
		}
	}
	return st
}

// Settings returns the current automation settings.
func (s *Service) Settings() config.Automation {
	return s.orch.Settings()
}

// SettingsPatch is a partial update. Nil fields are left unchanged.
type SettingsPatch struct {
	PostsPerDay          *int     `json:"posts_per_day,omitempty"`
	MinHoursBetweenPosts *float64 `json:"min_hours_between_posts,omitempty"`
	Sources              []string `json:"trending_sources,omitempty"`
	Categories           []string `json:"categories,omitempty"`
	MinSEOScore          *int     `json:"min_seo_score,omitempty"`
	MaxRetries           *int     `json:"max_retries,omitempty"`
	ShareOnSocial        *bool    `json:"share_on_social,omitempty"`
}

// UpdateSettings validates and applies patch. A running scheduler picks up a
// new posts per day value immediately.
func (s *Service) UpdateSettings(patch SettingsPatch) (config.Automation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.orch.Settings()
	next := current
	if patch.PostsPerDay != nil {
		next.PostsPerDay = *patch.PostsPerDay
	}
	if patch.MinHoursBetweenPosts != nil {
		next.MinHoursBetweenPosts = *patch.MinHoursBetweenPosts
	}
	if patch.Sources != nil {
		next.Sources = append([]string(nil), patch.Sources...)
	}
	if patch.Categories != nil {
		next.Categories = append([]string(nil), patch.Categories...)
	}
	if patch.MinSEOScore != nil {
		next.MinSEOScore = *patch.MinSEOScore
	}
	if patch.MaxRetries != nil {
		next.MaxRetries = *patch.MaxRetries
	}
	if patch.ShareOnSocial != nil {
		next.ShareOnSocial = *patch.ShareOnSocial
	}

	if problems := config.ValidateAutomation(next); len(problems) > 0 {
		return current, fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}

	s.orch.SetSettings(next)
	if s.scheduler != nil && next.PostsPerDay != current.PostsPerDay {
		schedule, err := NewSchedule(next.PostsPerDay, s.rng, jitterOf(next))
		if err != nil {
			return next, err
		}
		s.scheduler.SetSchedule(schedule)
	}
	logger.Info("Automation settings updated", "posts_per_day", next.PostsPerDay, "min_seo_score", next.MinSEOScore)
	return next, nil
}
