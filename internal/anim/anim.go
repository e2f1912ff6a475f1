// Package anim provides a single-flight tween engine driven by external frame
// ticks, plus the easing curve and interpolators used by the sky map.
package anim

import (
	"math"
	"time"

	"github.com/litescript/ls-skymap/internal/metrics"
)

// Interpolator blends from toward to by factor t in [0, 1].
type Interpolator[T any] func(from, to T, t float64) T

// stepper is the type-erased view of a running tween.
type stepper interface {
	step(now time.Time) (done bool)
	kind() string
}

// Tween animates one value of type T from From to To over Duration.
type Tween[T any] struct {
	Name     string
	From, To T
	Duration time.Duration
	Started  time.Time
	Lerp     Interpolator[T]
	Update   func(T)
}

func (tw *Tween[T]) step(now time.Time) bool {
	p := 1.0
	if tw.Duration > 0 {
		elapsed := now.Sub(tw.Started)
		p = math.Max(0, math.Min(float64(elapsed)/float64(tw.Duration), 1))
	}

	if p >= 1 {
		// Exact target, never an interpolated approximation of it
		tw.Update(tw.To)
		return true
	}
	tw.Update(tw.Lerp(tw.From, tw.To, Ease(p)))
	return false
}

func (tw *Tween[T]) kind() string { return tw.Name }

// Engine runs at most one tween at a time. It is owned by a single goroutine
// (the UI update loop or a headless ticker) and is not safe for concurrent use.
type Engine struct {
	clock  func() time.Time
	active stepper
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used to stamp tween starts.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// NewEngine creates an idle engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.clock() }

// Running reports whether a tween is in flight.
func (e *Engine) Running() bool { return e.active != nil }

// Start begins animating from -> to, cancelling any tween already in flight.
// The cancelled tween's update callback is never invoked again.
func Start[T any](e *Engine, name string, from, to T, d time.Duration, lerp Interpolator[T], update func(T)) {
	if e.active != nil {
		metrics.TweensCancelled.WithLabelValues(e.active.kind()).Inc()
	}
	e.active = &Tween[T]{
		Name:     name,
		From:     from,
		To:       to,
		Duration: d,
		Started:  e.clock(),
		Lerp:     lerp,
		Update:   update,
	}
	metrics.TweensStarted.WithLabelValues(name).Inc()
}

// Tick advances the active tween to now and reports whether the engine is
// still running afterwards. Ticks while idle are no-ops.
func (e *Engine) Tick(now time.Time) bool {
	cur := e.active
	if cur == nil {
		return false
	}
	done := cur.step(now)
	// The update callback may have started a replacement tween.
	if done && e.active == cur {
		e.active = nil
	}
	return e.active != nil
}

// Stop cancels the active tween without a final update.
func (e *Engine) Stop() {
	if e.active != nil {
		metrics.TweensCancelled.WithLabelValues(e.active.kind()).Inc()
	}
	e.active = nil
}

// Ease is the quadratic ease-in-out curve.
func Ease(p float64) float64 {
	if p < 0.5 {
		return 2 * p * p
	}
	q := 1 - p
	return 1 - 2*q*q
}

// Lerp linear interpolation
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpAngle interpolates between angles in degrees, taking the shortest path.
func LerpAngle(a, b, t float64) float64 {
	return a + normalizeDelta(b-a)*t
}

// LerpTime interpolates linearly between two instants. The span is taken in
// float seconds, so instants centuries apart interpolate correctly where a
// time.Duration would saturate.
func LerpTime(a, b time.Time, t float64) time.Time {
	span := float64(b.Unix()-a.Unix()) + float64(b.Nanosecond()-a.Nanosecond())/1e9
	whole, frac := math.Modf(span * t)
	return time.Unix(a.Unix()+int64(whole), int64(a.Nanosecond())+int64(math.Round(frac*1e9))).In(a.Location())
}

// normalizeDelta wraps an angle difference into (-180, 180].
func normalizeDelta(d float64) float64 {
	d = math.Mod(d, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}
