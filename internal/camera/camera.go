// Package camera converts between screen pixels and world units and
// drives the backend viewport's pan and zoom.
package camera

import (
	"sync"

	"github.com/spacehole-rogue/starview/internal/config"
	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/logging"
	"github.com/spacehole-rogue/starview/internal/scene"
)

// Camera owns pan and zoom. All conversions use geom.Transform on the
// viewport's current state; the backend never converts on its own.
type Camera struct {
	mu      sync.Mutex
	handle  *scene.Handle
	minZoom float64
	maxZoom float64
	width   float64
	height  float64
	// last is the most recent transform read from a live viewport, served
	// while the handle is revoked.
	last geom.Transform
	log  logging.Log
}

// New creates a camera bound to h with the given screen size.
func New(h *scene.Handle, cfg config.CameraConfig, width, height float64, log logging.Log) *Camera {
	c := &Camera{
		minZoom: cfg.MinZoom,
		maxZoom: cfg.MaxZoom,
		width:   width,
		height:  height,
		last:    geom.Identity,
		log:     logging.OrNop(log).With(logging.Component("camera")),
	}
	c.Bind(h)
	return c
}

// Bind moves the camera to a new render context, carrying size, pan and
// zoom over so the view does not jump.
func (c *Camera) Bind(h *scene.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if vp, err := c.viewportLocked(); err == nil {
		c.last = vp.Transform()
	}
	c.handle = h
	vp, err := c.viewportLocked()
	if err != nil {
		c.log.Warn("bind to revoked render context", logging.Err(err))
		return
	}
	vp.Resize(c.width, c.height)
	vp.SetTransform(c.last, false)
}

func (c *Camera) viewportLocked() (scene.Viewport, error) {
	b, err := c.handle.Backend()
	if err != nil {
		return nil, err
	}
	return b.Viewport(), nil
}

// Transform returns the current (possibly mid-animation) transform.
func (c *Camera) Transform() geom.Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transformLocked()
}

func (c *Camera) transformLocked() geom.Transform {
	vp, err := c.viewportLocked()
	if err != nil {
		return c.last
	}
	c.last = vp.Transform()
	return c.last
}

// ScreenToWorld converts a screen pixel to world units.
func (c *Camera) ScreenToWorld(sx, sy float64) geom.Point {
	return c.Transform().ScreenToWorld(geom.Pt(sx, sy))
}

// WorldToScreen converts world units to a screen pixel.
func (c *Camera) WorldToScreen(wx, wy float64) geom.Point {
	return c.Transform().WorldToScreen(geom.Pt(wx, wy))
}

// Zoom returns the current scale.
func (c *Camera) Zoom() float64 {
	return c.Transform().Scale
}

// Animating reports whether the backend is interpolating the viewport.
func (c *Camera) Animating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	vp, err := c.viewportLocked()
	return err == nil && vp.Animating()
}

// Clamp limits z to the configured zoom range.
func (c *Camera) Clamp(z float64) float64 {
	return min(max(z, c.minZoom), c.maxZoom)
}

// SetZoom changes the scale around the screen center. The value is clamped
// to the zoom range.
func (c *Camera) SetZoom(z float64, animate bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoomAroundLocked(c.Clamp(z), geom.Pt(c.width/2, c.height/2), animate)
}

// ZoomAt multiplies the scale by factor keeping the world point under the
// screen pixel (sx, sy) fixed.
func (c *Camera) ZoomAt(factor, sx, sy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.transformLocked()
	c.zoomAroundLocked(c.Clamp(t.Scale*factor), geom.Pt(sx, sy), false)
}

func (c *Camera) zoomAroundLocked(scale float64, anchor geom.Point, animate bool) {
	t := c.baseLocked(animate)
	w := t.ScreenToWorld(anchor)
	next := geom.Transform{Pan: anchor.Sub(w.Mul(scale)), Scale: scale}
	c.applyLocked(next, animate)
}

// CenterOn puts world point (x, y) at the screen center.
func (c *Camera) CenterOn(x, y float64, animate bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.baseLocked(animate)
	center := geom.Pt(c.width/2, c.height/2)
	next := geom.Transform{Pan: center.Sub(geom.Pt(x, y).Mul(t.Scale)), Scale: t.Scale}
	c.applyLocked(next, animate)
}

// PanBy shifts the view by a screen-space delta.
func (c *Camera) PanBy(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.transformLocked()
	t.Pan = t.Pan.Add(geom.Pt(dx, dy))
	c.applyLocked(t, false)
}

// baseLocked is the transform a change composes against: the end of a
// running animation for animated changes, the screen state otherwise.
func (c *Camera) baseLocked(animate bool) geom.Transform {
	if !animate {
		return c.transformLocked()
	}
	vp, err := c.viewportLocked()
	if err != nil {
		return c.last
	}
	c.last = vp.Transform()
	return vp.Target()
}

func (c *Camera) applyLocked(t geom.Transform, animate bool) {
	vp, err := c.viewportLocked()
	if err != nil {
		c.log.Debug("viewport change skipped", logging.Err(err))
		return
	}
	vp.SetTransform(t, animate)
	if !animate {
		c.last = t
	}
}

// Resize records the screen size used by layout. Pan and zoom are kept.
func (c *Camera) Resize(w, h float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width, c.height = w, h
	if vp, err := c.viewportLocked(); err == nil {
		vp.Resize(w, h)
	}
}

// Size returns the screen size.
func (c *Camera) Size() (w, h float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// ViewBounds returns the world rectangle currently on screen.
func (c *Camera) ViewBounds() geom.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.transformLocked()
	a := t.ScreenToWorld(geom.Pt(0, 0))
	b := t.ScreenToWorld(geom.Pt(c.width, c.height))
	return geom.R(a.X, a.Y, b.X, b.Y)
}

// Scale is Zoom under the name the overlay's view source expects.
func (c *Camera) Scale() float64 { return c.Zoom() }
