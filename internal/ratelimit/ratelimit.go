package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Delayer pauses between page visits.
type Delayer interface {
	Pause(ctx context.Context) error
}

// Jitter sleeps a uniformly random duration between minDelay and maxDelay
// on every Pause.
type Jitter struct {
	minDelay time.Duration
	maxDelay time.Duration
	rng      *rand.Rand
	mu       sync.Mutex
}

func NewJitter(minDelay, maxDelay time.Duration) *Jitter {
	return NewJitterWithSource(minDelay, maxDelay, rand.NewSource(time.Now().UnixNano()))
}

func NewJitterWithSource(minDelay, maxDelay time.Duration, src rand.Source) *Jitter {
	if maxDelay < minDelay {
		minDelay, maxDelay = maxDelay, minDelay
	}
	return &Jitter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		rng:      rand.New(src),
	}
}

// Pause blocks for the next delay or until ctx is done.
func (j *Jitter) Pause(ctx context.Context) error {
	delay := j.Next()
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Next returns the next delay without sleeping.
func (j *Jitter) Next() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.minDelay == j.maxDelay {
		return j.minDelay
	}

	delta := j.maxDelay - j.minDelay
	return j.minDelay + time.Duration(j.rng.Int63n(int64(delta)+1))
}

// None never waits.
type None struct{}

func (None) Pause(ctx context.Context) error { return ctx.Err() }
