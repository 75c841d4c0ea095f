package render

import (
	"sync"
	"time"

	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/scene"
	"github.com/spacehole-rogue/starview/internal/tween"
)

var _ scene.Viewport = (*Viewport)(nil)

// Viewport owns the world-to-screen transform and its pan/zoom animation.
// Transform samples the clock, so callers always see the interpolated
// state; Update settles a finished animation once per frame.
type Viewport struct {
	mu       sync.Mutex
	size     geom.Point
	motion   tween.Tween[geom.Transform]
	duration time.Duration
	now      func() time.Time
}

// NewViewport creates a w x h viewport at the identity transform. Animated
// changes take duration.
func NewViewport(w, h float64, duration time.Duration, now func() time.Time) *Viewport {
	if now == nil {
		now = time.Now
	}
	return &Viewport{
		size:     geom.Pt(w, h),
		motion:   tween.Settled(geom.Identity),
		duration: duration,
		now:      now,
	}
}

func (v *Viewport) Transform() geom.Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.motion.At(v.now())
}

func (v *Viewport) SetTransform(t geom.Transform, animate bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !animate {
		v.motion.Set(t)
		return
	}
	v.motion.Retarget(t, v.now(), v.duration)
}

func (v *Viewport) Target() geom.Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.motion.Target()
}

func (v *Viewport) Animating() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.motion.Running()
}

// Update settles an animation whose time is up. The host calls it once
// per tick.
func (v *Viewport) Update(now time.Time) {
	v.mu.Lock()
	v.motion.Step(now)
	v.mu.Unlock()
}

func (v *Viewport) Size() (w, h float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.size.X, v.size.Y
}

func (v *Viewport) Resize(w, h float64) {
	v.mu.Lock()
	v.size = geom.Pt(w, h)
	v.mu.Unlock()
}
