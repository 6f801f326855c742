// Package fanout runs independent work items concurrently and gathers every
// outcome, so one failing item never aborts its siblings.
package fanout

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Outcome is the settled result of one item.
type Outcome[O any] struct {
	Index int
	Value O
	Err   error
}

// Outcomes holds settled results in input order.
type Outcomes[O any] []Outcome[O]

// Collect calls fn for every item concurrently and waits for all of them.
// A panic in fn is converted into that item's error.
func Collect[I, O any](ctx context.Context, items []I, fn func(context.Context, I) (O, error)) Outcomes[O] {
	out := make(Outcomes[O], len(items))

	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			out[i] = run(ctx, i, item, fn)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func run[I, O any](ctx context.Context, i int, item I, fn func(context.Context, I) (O, error)) (o Outcome[O]) {
	o.Index = i
	defer func() {
		if r := recover(); r != nil {
			o.Err = fmt.Errorf("panic: %v", r)
		}
	}()
	o.Value, o.Err = fn(ctx, item)
	return o
}

// Successes returns the values of items that did not fail, in input order.
func (oc Outcomes[O]) Successes() []O {
	values := make([]O, 0, len(oc))
	for _, o := range oc {
		if o.Err == nil {
			values = append(values, o.Value)
		}
	}
	return values
}

// Failures returns the outcomes that failed, in input order.
func (oc Outcomes[O]) Failures() Outcomes[O] {
	var failed Outcomes[O]
	for _, o := range oc {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
