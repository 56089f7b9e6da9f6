package automation

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"
)

func TestSlots(t *testing.T) {
	if got := Slots(1, nil, 0); len(got) != 1 || got[0] != 9*time.Hour {
		t.Errorf("Slots(1) = %v", got)
	}
	if got := Slots(2, nil, 0); len(got) != 2 || got[0] != 9*time.Hour || got[1] != 17*time.Hour {
		t.Errorf("Slots(2) = %v", got)
	}

	got := Slots(4, nil, 0)
	want := []time.Duration{0, 6 * time.Hour, 12 * time.Hour, 18 * time.Hour}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Slots(4)[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	rng := rand.New(rand.NewSource(7))
	jittered := Slots(3, rng, 30*time.Minute)
	for i, slot := range jittered {
		base := time.Duration(i) * 8 * time.Hour
		if slot < base || slot >= base+30*time.Minute {
			t.Errorf("slot %d = %s outside [%s, %s)", i, slot, base, base+30*time.Minute)
		}
	}

	for _, slot := range Slots(24, rand.New(rand.NewSource(1)), 3*time.Hour) {
		if slot >= 24*time.Hour {
			t.Errorf("slot %s falls outside the day", slot)
		}
	}
}

func TestScheduleNext(t *testing.T) {
	one, err := NewSchedule(1, nil, 0)
	if err != nil {
		t.Fatalf("NewSchedule failed: %v", err)
	}
	if specs := one.Specs(); len(specs) != 1 || specs[0] != "0 9 * * *" {
		t.Errorf("unexpected specs %v", specs)
	}

	morning := time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC)
	if got := one.Next(morning); !got.Equal(time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Next(08:00) = %s", got)
	}
	atNine := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	if got := one.Next(atNine); !got.Equal(time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Next(09:00) should be strictly after now, got %s", got)
	}

	two, _ := NewSchedule(2, nil, 0)
	if got := two.Next(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)); !got.Equal(time.Date(2025, 3, 4, 17, 0, 0, 0, time.UTC)) {
		t.Errorf("Next(10:00) with two slots = %s", got)
	}

	four, _ := NewSchedule(4, nil, 0)
	if got := four.Next(time.Date(2025, 3, 4, 19, 0, 0, 0, time.UTC)); !got.Equal(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Next(19:00) with four slots = %s", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSchedulerRunsDueJobOnce(t *testing.T) {
	clock := newTestClock(time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC))
	schedule, _ := NewSchedule(1, nil, 0)

	var runs int32
	s := NewScheduler(schedule, time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})
	s.now = clock.Now

	go s.Run(context.Background())
	waitFor(t, func() bool { return !s.NextRun().IsZero() })

	if got := s.NextRun(); !got.Equal(time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected next run %s", got)
	}

	time.Sleep(10 * time.Millisecond)
	if atomic.LoadInt32(&runs) != 0 {
		t.Fatal("job ran before its slot")
	}

	clock.Set(time.Date(2025, 3, 4, 9, 0, 30, 0, time.UTC))
	waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 1 })
	waitFor(t, func() bool { return s.NextRun().Day() == 5 })

	time.Sleep(10 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Errorf("expected exactly one run, got %d", got)
	}

	s.Stop()
	s.Stop()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerRecoversFromPanic(t *testing.T) {
	clock := newTestClock(time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC))
	schedule, _ := NewSchedule(1, nil, 0)

	var runs int32
	s := NewScheduler(schedule, time.Millisecond, func(ctx context.Context) {
		if atomic.AddInt32(&runs, 1) == 1 {
			panic("boom")
		}
	})
	s.now = clock.Now

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	waitFor(t, func() bool { return !s.NextRun().IsZero() })

	clock.Set(time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC))
	waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 1 })

	clock.Set(time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC))
	waitFor(t, func() bool { return atomic.LoadInt32(&runs) == 2 })

	cancel()
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}

func TestNewSchedulerClampsPollInterval(t *testing.T) {
	schedule, _ := NewSchedule(1, nil, 0)
	if s := NewScheduler(schedule, 10*time.Minute, func(context.Context) {}); s.interval != time.Minute {
		t.Errorf("expected interval clamped to a minute, got %s", s.interval)
	}
	if s := NewScheduler(schedule, 0, func(context.Context) {}); s.interval != time.Minute {
		t.Errorf("expected default interval, got %s", s.interval)
	}
}
