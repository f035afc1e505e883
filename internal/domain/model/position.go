// Package model contains domain models passed between layers.
package model

import "math"

// Side identifies one of the two competing teams by stone color.
type Side string

// Known sides.
const (
	SideRed    Side = "red"
	SideYellow Side = "yellow"
)

// Opponent returns the other side. Unknown labels map to red so the result
// is always one of the two known sides.
func (s Side) Opponent() Side {
	if s == SideRed {
		return SideYellow
	}
	return SideRed
}

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideRed || s == SideYellow
}

// Point is a location on the sheet in meters, relative to the button.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Button is the center of the house.
var Button = Point{}

// DistanceTo returns the Euclidean distance between p and q.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// IsOrigin reports whether p sits exactly on the button.
func (p Point) IsOrigin() bool {
	return p.X == 0 && p.Y == 0
}

// Midpoint returns the point halfway between p and q.
func (p Point) Midpoint(q Point) Point {
	return Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
}

// Position is an observed stone: a point tagged with the side that owns it.
type Position struct {
	Side Side    `json:"color"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Point drops the side label.
func (p Position) Point() Point {
	return Point{X: p.X, Y: p.Y}
}
