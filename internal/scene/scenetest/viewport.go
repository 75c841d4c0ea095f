package scenetest

import (
	"sync"

	"github.com/spacehole-rogue/starview/internal/geom"
)

// Viewport is a scene.Viewport whose animations advance only when the
// test calls Advance or Finish.
type Viewport struct {
	mu        sync.Mutex
	size      geom.Point
	current   geom.Transform
	from      geom.Transform
	target    geom.Transform
	animating bool
}

func (v *Viewport) Transform() geom.Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

func (v *Viewport) SetTransform(t geom.Transform, animate bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.target = t
	if !animate {
		v.current = t
		v.animating = false
		return
	}
	v.from = v.current
	v.animating = true
}

// Advance moves a running animation to fraction k of the way.
func (v *Viewport) Advance(k float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.animating {
		return
	}
	if k >= 1 {
		v.current = v.target
		v.animating = false
		return
	}
	v.current = v.from.Lerp(v.target, k)
}

// Finish completes a running animation.
func (v *Viewport) Finish() { v.Advance(1) }

// Target returns where the running animation ends.
func (v *Viewport) Target() geom.Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.target
}

func (v *Viewport) Animating() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.animating
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
