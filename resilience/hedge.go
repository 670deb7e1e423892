package resilience

import (
	"context"
	"time"
)

type hedgeResult[T any] struct {
	val T
	err error
}

// Hedge runs primary immediately, and starts secondary if primary has not
// returned (successfully or not) within delay, or as soon as primary fails
// (whichever comes first). The first successful result wins; if both
// fail, primary's error is returned.
func Hedge[T any](ctx context.Context, primary, secondary func(context.Context) (T, error), delay time.Duration) (T, error) {
	var zero T

	primaryCh := make(chan hedgeResult[T], 1)
	go func() {
		v, err := primary(ctx)
		primaryCh <- hedgeResult[T]{v, err}
	}()

	secondaryCh := make(chan hedgeResult[T], 1)
	secondaryStarted := false
	startSecondary := func() {
		if secondaryStarted {
			return
		}
		secondaryStarted = true
		go func() {
			v, err := secondary(ctx)
			secondaryCh <- hedgeResult[T]{v, err}
		}()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	var primaryErr error
	primaryDone, secondaryDone := false, false

	for {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()

		case res := <-primaryCh:
			primaryDone = true
			if res.err == nil {
				return res.val, nil
			}
			primaryErr = res.err
			if !secondaryStarted {
				startSecondary()
			} else if secondaryDone {
				return zero, primaryErr
			}

		case <-timer.C:
			if !primaryDone {
				startSecondary()
			}

		case res := <-secondaryCh:
			secondaryDone = true
			if res.err == nil {
				return res.val, nil
			}
			if primaryDone {
				return zero, primaryErr
			}
		}
	}
}
