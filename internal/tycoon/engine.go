package tycoon

import "time"

// Engine carries the rules. It holds no economy state of its own: every
// operation takes the *State it mutates, so one Engine can drive any number
// of factories.
type Engine struct {
	Tuning Tuning
	Clock  Clock
	// Notify receives events synchronously, inside whatever lock guards the
	// state. It must not call back into the engine.
	Notify func(Event)
}

func NewEngine(t Tuning, clk Clock) Engine {
	if clk == nil {
		clk = RealClock{}
	}
	return Engine{Tuning: t, Clock: clk}
}

// NewState builds a fresh economy from a layout and takes the free starter offer.
func (e Engine) NewState(l Layout) *State {
	st := newState(l, e.Tuning)
	e.claimStarter(st)
	return st
}

func (e Engine) now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock.Now()
}

func (e Engine) emit(ev Event) {
	if e.Notify == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	e.Notify(ev)
}
