package main

import (
	"context"
	"math"
	"sync"
)

const (
	GridUnit          = 20.0
	ResizeSensitivity = 0.005
	RotationOffsetDeg = 135.0
)

// GestureState is the controller's current mode
type GestureState int

const (
	GestureIdle GestureState = iota
	GestureDragging
	GestureResizing
	GestureRotating
)

func (s GestureState) String() string {
	switch s {
	case GestureDragging:
		return "dragging"
	case GestureResizing:
		return "resizing"
	case GestureRotating:
		return "rotating"
	}
	return "idle"
}

// PointerKind is the phase of a pointer event
type PointerKind string

const (
	PointerDown PointerKind = "down"
	PointerMove PointerKind = "move"
	PointerUp   PointerKind = "up"
)

// HitTarget is the part of the item a pointer-down landed on
type HitTarget string

const (
	TargetBody         HitTarget = "body"
	TargetResizeHandle HitTarget = "resize"
	TargetRotateHandle HitTarget = "rotate"
	TargetControl      HitTarget = "control" // buttons and inputs inside the item
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an on-screen bounding box
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// PointerEvent is one synthetic or forwarded pointer event. Target and
// Bounds are only read on PointerDown.
type PointerEvent struct {
	Kind   PointerKind `json:"kind" validate:"required,oneof=down move up"`
	Point  Point       `json:"point"`
	Target HitTarget   `json:"target,omitempty" validate:"omitempty,oneof=body resize rotate control"`
	Bounds Rect        `json:"bounds"`
}

// gestureOrigin is captured on pointer-down and released on pointer-up
type gestureOrigin struct {
	pointer Point
	offset  Point
	scale   float64
	center  Point
}

// GestureController turns pointer events on one item into position updates
type GestureController struct {
	mu         sync.Mutex
	store      ItemStore
	itemID     string
	snapToGrid bool
	state      GestureState
	origin     gestureOrigin
}

// NewGestureController creates an idle controller for itemID. snapToGrid
// rounds dragged positions to GridUnit.
func NewGestureController(store ItemStore, itemID string, snapToGrid bool) *GestureController {
	return &GestureController{
		store:      store,
		itemID:     itemID,
		snapToGrid: snapToGrid,
	}
}

func (g *GestureController) State() GestureState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Handle feeds one event to the state machine. The result reports whether
// the event must not propagate to the container.
func (g *GestureController) Handle(ev PointerEvent) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch ev.Kind {
	case PointerDown:
		return g.down(ev)
	case PointerMove:
		g.move(ev.Point)
	case PointerUp:
		g.state = GestureIdle
		g.origin = gestureOrigin{}
	}
	return false
}

func (g *GestureController) down(ev PointerEvent) bool {
	if ev.Target == TargetControl {
		return true
	}
	if g.state != GestureIdle {
		return true
	}

	item, ok := g.store.Item(g.itemID)
	if !ok {
		return false
	}

	switch ev.Target {
	case TargetResizeHandle:
		scale := item.Position.Scale
		if scale == 0 {
			scale = 1
		}
		g.origin = gestureOrigin{pointer: ev.Point, scale: scale}
		g.state = GestureResizing
	case TargetRotateHandle:
		g.origin = gestureOrigin{pointer: ev.Point, center: ev.Bounds.Center()}
		g.state = GestureRotating
	default:
		g.origin = gestureOrigin{
			pointer: ev.Point,
			offset:  Point{X: ev.Point.X - ev.Bounds.X, Y: ev.Point.Y - ev.Bounds.Y},
		}
		g.state = GestureDragging
	}

	g.store.BringToFront(g.itemID)
	return true
}

func (g *GestureController) move(p Point) {
	switch g.state {
	case GestureDragging:
		x, y := p.X-g.origin.offset.X, p.Y-g.origin.offset.Y
		if g.snapToGrid {
			x, y = snap(x), snap(y)
		}
		g.store.UpdatePosition(g.itemID, PositionPatch{X: &x, Y: &y})
	case GestureResizing:
		scale := ClampScale(g.origin.scale + (p.X-g.origin.pointer.X)*ResizeSensitivity)
		g.store.UpdatePosition(g.itemID, PositionPatch{Scale: &scale})
	case GestureRotating:
		angle := RotationAngle(g.origin.center, p)
		g.store.UpdatePosition(g.itemID, PositionPatch{Rotation: &angle})
	}
}

// RotationAngle is the handle angle in degrees for a pointer at p around center
func RotationAngle(center, p Point) float64 {
	return math.Atan2(p.Y-center.Y, p.X-center.X)*180/math.Pi - RotationOffsetDeg
}

func snap(v float64) float64 {
	return math.Round(v/GridUnit) * GridUnit
}

// Run drives the controller from events until the channel closes or ctx is
// done. Stop-propagation results are discarded.
func (g *GestureController) Run(ctx context.Context, events <-chan PointerEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			g.Handle(ev)
		}
	}
}
