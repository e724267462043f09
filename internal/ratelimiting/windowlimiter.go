package ratelimiting

import (
	"context"
	"slices"
	"sync"
	"time"
)

// windowLimiter allows at most limit operations to finish within any window.
type windowLimiter struct {
	limit     int
	window    time.Duration
	nowFunc   func() time.Time
	afterFunc func(time.Duration) <-chan time.Time

	availableSlots   chan struct{}
	finishedRequests []time.Time
	mutex            sync.Mutex
}

func NewWindowLimiter(
	limit int,
	window time.Duration,
	nowFunc func() time.Time,
	afterFunc func(time.Duration) <-chan time.Time,
) *windowLimiter {
	availableSlots := make(chan struct{}, limit)
	for range limit {
		availableSlots <- struct{}{}
	}

	// Seed the history with requests that are already outside the window
	finishedRequests := make([]time.Time, limit)
	outsideWindow := nowFunc().Add(-window)
	for i := range limit {
		finishedRequests[i] = outsideWindow
	}

	return &windowLimiter{
		limit:     limit,
		window:    window,
		nowFunc:   nowFunc,
		afterFunc: afterFunc,

		availableSlots:   availableSlots,
		finishedRequests: finishedRequests,
	}
}

func insertSortedOrder(arr []time.Time, t time.Time) []time.Time {
	i, _ := slices.BinarySearchFunc(arr, t, func(a, b time.Time) int {
		return a.Compare(b)
	})
	return slices.Insert(arr, i, t)
}

func (l *windowLimiter) Limit(ctx context.Context, minOperationTime time.Duration, operation func(ctx context.Context)) bool {
	return l.LimitCancelable(ctx, minOperationTime, alwaysRan(operation))
}

func (l *windowLimiter) LimitCancelable(ctx context.Context, minOperationTime time.Duration, operation func(ctx context.Context) bool) bool {
	select {
	case <-l.availableSlots:
		defer func() {
			l.availableSlots <- struct{}{}
		}()
	case <-ctx.Done():
		return false
	}

	oldestRequest, ok := l.grabOldestFinishedRequest(ctx, minOperationTime)
	if !ok {
		return false
	}
	// Put back what we grabbed unless the operation ran
	requestToInsert := oldestRequest
	defer func() {
		l.insertFinishedRequest(requestToInsert)
	}()

	if wait := l.computeWait(oldestRequest); wait > 0 {
		select {
		case <-ctx.Done():
			return false
		case <-l.afterFunc(wait):
		}
	}

	if !operation(ctx) {
		return false
	}

	requestToInsert = l.nowFunc()
	return true
}

func (l *windowLimiter) computeWait(oldRequest time.Time) time.Duration {
	return l.window - l.nowFunc().Sub(oldRequest)
}

func (l *windowLimiter) insertFinishedRequest(finishedRequest time.Time) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.finishedRequests = insertSortedOrder(l.finishedRequests, finishedRequest)
}

func (l *windowLimiter) grabOldestFinishedRequest(ctx context.Context, minOperationTime time.Duration) (time.Time, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	oldestRequest := l.finishedRequests[0]
	if !fitsBeforeDeadline(ctx, l.nowFunc(), l.computeWait(oldestRequest)+minOperationTime) {
		return time.Time{}, false
	}

	l.finishedRequests = l.finishedRequests[1:]
	return oldestRequest, true
}

func fitsBeforeDeadline(ctx context.Context, now time.Time, duration time.Duration) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return true
	}
	return duration <= deadline.Sub(now)
}
