package game

import "time"

// Fixed timer limits. These are rules constants, not configuration.
const (
	turnTimeLimit     = 60 * time.Second
	responseTimeLimit = 30 * time.Second
	clockTick         = time.Second
)

// Task is a scheduled callback handle.
type Task interface {
	// Stop cancels the task if it has not fired yet.
	Stop() bool
}

// Scheduler creates cancellable one-shot timers. The match never sleeps or
// blocks on time directly; injecting the scheduler lets tests drive both
// clocks without wall-clock waits.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Task
}

type realTask struct {
	timer *time.Timer
}

func (t *realTask) Stop() bool {
	return t.timer.Stop()
}

type realScheduler struct{}

// NewScheduler returns a Scheduler backed by the runtime timer wheel.
func NewScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) Schedule(d time.Duration, fn func()) Task {
	return &realTask{timer: time.AfterFunc(d, fn)}
}
