package schedule

import (
	"sync"
	"time"
)

type State int

const (
	Idle State = iota
	Scheduled
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	}
	return "unknown"
}

// Task runs fn once a quiet period of delay has elapsed since the last Schedule call.
type Task struct {
	mu      sync.Mutex
	clock   Clock
	delay   time.Duration
	fn      func()
	state   State
	timer   Timer
	gen     uint64
	rerun   bool
	missed  bool
	stopped bool
}

func NewTask(clock Clock, delay time.Duration, fn func()) *Task {
	if clock == nil {
		clock = RealClock{}
	}
	return &Task{clock: clock, delay: delay, fn: fn}
}

// Schedule starts or restarts the quiet period. Scheduling while fn is running arms a new timer
// that fires after the run completes at the earliest.
func (t *Task) Schedule() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.arm()
}

func (t *Task) arm() {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(t.delay, func() { t.fire(gen) })
	if t.state == Running {
		t.rerun = true
		return
	}
	t.state = Scheduled
}

func (t *Task) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.stopped {
		t.mu.Unlock()
		return
	}
	if t.state == Running {
		t.missed = true
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.state = Running
	t.mu.Unlock()

	t.run()
}

func (t *Task) run() {
	for {
		t.fn()

		t.mu.Lock()
		if t.missed && !t.stopped {
			t.missed = false
			t.rerun = false
			t.timer = nil
			t.mu.Unlock()
			continue
		}
		if t.rerun && t.timer != nil && !t.stopped {
			t.state = Scheduled
		} else {
			t.state = Idle
		}
		t.rerun = false
		t.mu.Unlock()
		return
	}
}

// Cancel drops a pending run. It returns true when a run was pending. A run already in progress
// is not interrupted.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelLocked()
}

func (t *Task) cancelLocked() bool {
	if t.timer == nil {
		return false
	}
	t.timer.Stop()
	t.timer = nil
	t.gen++
	t.rerun = false
	t.missed = false
	if t.state == Scheduled {
		t.state = Idle
	}
	return true
}

// Flush runs a pending task immediately on the caller's goroutine. It reports whether fn ran.
func (t *Task) Flush() bool {
	t.mu.Lock()
	if t.stopped || t.state != Scheduled {
		t.mu.Unlock()
		return false
	}
	t.cancelLocked()
	t.state = Running
	t.mu.Unlock()

	t.run()
	return true
}

// Stop cancels any pending run and refuses future ones.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.stopped = true
}

func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Task) SetDelay(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delay = d
}
