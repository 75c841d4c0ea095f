// Package tween interpolates values linearly over a fixed duration,
// sampled by the caller once per display refresh.
package tween

import "time"

// Lerper is a value that can interpolate towards another of its type.
type Lerper[T any] interface {
	Lerp(to T, k float64) T
}

// Tween moves from one value to another between start and start+duration.
// The zero Tween is settled at the zero value.
type Tween[T Lerper[T]] struct {
	from, to T
	start    time.Time
	duration time.Duration
	running  bool
}

// Settled returns a tween resting at v.
func Settled[T Lerper[T]](v T) Tween[T] {
	return Tween[T]{from: v, to: v}
}

// Set jumps to v and stops any running interpolation.
func (tw *Tween[T]) Set(v T) {
	tw.from, tw.to = v, v
	tw.running = false
}

// Retarget starts a new interpolation towards to, beginning at wherever
// the value sits at now (mid-flight values included).
func (tw *Tween[T]) Retarget(to T, now time.Time, d time.Duration) {
	from := tw.At(now)
	if d <= 0 {
		tw.Set(to)
		return
	}
	tw.from, tw.to = from, to
	tw.start = now
	tw.duration = d
	tw.running = true
}

// At samples the value at now. After the duration it is exactly the target.
func (tw *Tween[T]) At(now time.Time) T {
	if !tw.running {
		return tw.to
	}
	k := Progress(tw.start, now, tw.duration)
	if k >= 1 {
		return tw.to
	}
	return tw.from.Lerp(tw.to, k)
}

// Step samples at now and marks the tween settled once it reached the target.
func (tw *Tween[T]) Step(now time.Time) T {
	v := tw.At(now)
	if tw.running && Progress(tw.start, now, tw.duration) >= 1 {
		tw.running = false
		tw.from = tw.to
	}
	return v
}

// Target returns the value the tween is heading to.
func (tw *Tween[T]) Target() T { return tw.to }

// Running reports whether an interpolation is in progress.
func (tw *Tween[T]) Running() bool { return tw.running }

// Progress returns the elapsed fraction of d since start, clamped to [0,1].
func Progress(start, now time.Time, d time.Duration) float64 {
	if d <= 0 {
		return 1
	}
	k := float64(now.Sub(start)) / float64(d)
	switch {
	case k < 0:
		return 0
	case k > 1:
		return 1
	}
	return k
}
