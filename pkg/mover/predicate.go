package mover

import (
	"github.com/rockit-astro/domed/pkg/domelog"
	"github.com/rockit-astro/domed/pkg/shutter"
)

// Predicate is evaluated once per movement-loop iteration, after the sleep,
// with the total number of command writes attempted so far (failed writes
// included). It reports
// whether the movement has reached its requested limit.
//
// Spec §9 flags that the original implementation builds these as closures
// inside a per-side loop, a classic late-binding hazard in languages with
// shared mutable loop variables. Re-expressed here as explicit, independently
// constructed objects bound to one side each — there is no loop variable to
// capture incorrectly.
type Predicate interface {
	Satisfied(stepCount int) bool
}

// LimitPredicate terminates once the given side reaches target status, as
// read through status.
type LimitPredicate struct {
	Side   shutter.Side
	Target shutter.Status
	Status func(shutter.Side) shutter.Status
}

func (p *LimitPredicate) Satisfied(int) bool {
	return p.Status(p.Side) == p.Target
}

// StepCountPredicate terminates once stepCount reaches Max. Max <= 0 never
// terminates (full-travel moves pass steps=0 and rely on the shutter
// reaching its limit, or the overall movement timeout, instead).
type StepCountPredicate struct {
	Max int
}

func (p *StepCountPredicate) Satisfied(stepCount int) bool {
	return p.Max > 0 && stepCount >= p.Max
}

// BeltSlackPredicate terminates a move early if the belt-tension oracle
// reports slack, and marks the attempt as Failed so the caller can fold
// that into the command outcome (spec §4.5: "also marks the attempt failed
// if the sensor reports slack"). It is only ever wired into open-direction
// moves (spec §4.6: "Close ... does not consult belt sensors").
type BeltSlackPredicate struct {
	Side      shutter.Side
	Tensioned func(shutter.Side) (bool, error)
	Failed    *bool
	Logger    domelog.Logger
	Tag       string
}

func (p *BeltSlackPredicate) Satisfied(int) bool {
	if p.Tensioned == nil {
		return false
	}
	logger := p.Logger
	if logger == nil {
		logger = domelog.Discard
	}
	p.Logger = logger
	tensioned, err := p.Tensioned(p.Side)
	if err != nil {
		p.Logger.Error(p.Tag, "belt sensor query failed", "side", string(p.Side), "err", err)
		return false
	}
	if !tensioned {
		p.Logger.Error(p.Tag, "belt is slack", "side", string(p.Side))
		*p.Failed = true
		return true
	}
	return false
}

// Any combines predicates with logical OR, short-circuiting left to right.
// It is itself a Predicate, which is how the open/close command assembles
// "limit reached OR step budget exhausted OR belt slack" into the single
// predicate [Move] expects.
type Any []Predicate

func (a Any) Satisfied(stepCount int) bool {
	for _, p := range a {
		if p == nil {
			continue
		}
		if p.Satisfied(stepCount) {
			return true
		}
	}
	return false
}
