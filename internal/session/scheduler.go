package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Schedule sets the scheduler intervals. A zero AutosaveInterval disables autosave.
type Schedule struct {
	TickInterval     time.Duration
	IncomeInterval   time.Duration
	AutosaveInterval time.Duration
}

// Scheduler drives a Session from wall-clock tickers. A stopped scheduler
// cannot be restarted; build a new one.
type Scheduler struct {
	session  *Session
	schedule Schedule

	running  atomic.Bool
	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewScheduler(s *Session, sched Schedule) *Scheduler {
	if sched.TickInterval <= 0 {
		sched.TickInterval = 16 * time.Millisecond
	}
	if sched.IncomeInterval <= 0 {
		sched.IncomeInterval = time.Second
	}
	return &Scheduler{
		session:  s,
		schedule: sched,
		stopChan: make(chan struct{}),
	}
}

// Start launches the tick, income and autosave loops. Calling it twice is harmless.
func (sc *Scheduler) Start() {
	if !sc.running.CompareAndSwap(false, true) {
		return
	}
	sc.loop(sc.schedule.TickInterval, sc.session.Tick)
	sc.loop(sc.schedule.IncomeInterval, func() { sc.session.PassiveIncome() })
	if sc.schedule.AutosaveInterval > 0 {
		sc.loop(sc.schedule.AutosaveInterval, sc.autosave)
	}
}

// Stop halts every loop and waits for them to exit. It is idempotent.
func (sc *Scheduler) Stop() {
	sc.stopOnce.Do(func() {
		close(sc.stopChan)
		sc.wg.Wait()
		sc.running.Store(false)
	})
}

func (sc *Scheduler) Running() bool { return sc.running.Load() }

func (sc *Scheduler) loop(every time.Duration, fn func()) {
	sc.wg.Add(1)
	go func() {
		defer sc.wg.Done()
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-sc.stopChan:
				return
			case <-t.C:
				fn()
			}
		}
	}()
}

func (sc *Scheduler) autosave() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sc.session.Save(ctx); err != nil {
		sc.session.logEvent("error", "autosave_failed", map[string]any{"error": err.Error()})
	}
}
