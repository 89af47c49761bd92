// Package pipeline runs an ordered list of gates over one piece of state.
//
// A gate either calls next to hand control to the following gate or
// returns without calling it, which ends the run early. Gates that need to
// report a terminal outcome record it in the state they are given.
package pipeline

import (
	"context"
	"fmt"
)

// Next continues the run with the following gate.
type Next func(ctx context.Context) error

// Gate is one stage of a run.
type Gate[S any] interface {
	Handle(ctx context.Context, state S, next Next) error
}

// GateFunc adapts a function to Gate.
type GateFunc[S any] func(ctx context.Context, state S, next Next) error

func (f GateFunc[S]) Handle(ctx context.Context, state S, next Next) error {
	return f(ctx, state, next)
}

// Run executes gates in order against state. It reports whether every gate
// called next. An error returned by a gate is passed back unchanged.
//
// Calling next more than once from the same gate panics.
func Run[S any](ctx context.Context, state S, gates ...Gate[S]) (completed bool, err error) {
	called := make([]bool, len(gates))

	var dispatch func(ctx context.Context, i int) error
	dispatch = func(ctx context.Context, i int) error {
		if i == len(gates) {
			completed = true
			return nil
		}
		return gates[i].Handle(ctx, state, func(ctx context.Context) error {
			if called[i] {
				panic(fmt.Sprintf("pipeline: next called more than once by gate %d (%T)", i, gates[i]))
			}
			called[i] = true
			return dispatch(ctx, i+1)
		})
	}

	err = dispatch(ctx, 0)
	return completed, err
}
