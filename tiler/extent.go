package tiler

import (
	"github.com/go-spatial/geom"
)

// Extent represents the minx, miny, maxx and maxy of a tile in projection meters.
type Extent [4]float64

func (e Extent) ToGeomExtent() geom.Extent {
	return geom.Extent{e[0], e[1], e[2], e[3]}
}

func FromGeomExtent(e geom.Extent) Extent {
	return Extent{e[0], e[1], e[2], e[3]}
}

// Vertices return the vertices of the extent, ordered
// (minx,miny), (maxx,miny), (maxx,maxy), (minx,maxy)
func (e Extent) Vertices() [][2]float64 {
	return [][2]float64{
		{e.MinX(), e.MinY()},
		{e.MaxX(), e.MinY()},
		{e.MaxX(), e.MaxY()},
		{e.MinX(), e.MaxY()},
	}
}

// Polygon returns the extent as a closed polygon.
func (e Extent) Polygon() geom.Polygon {
	ring := e.Vertices()
	ring = append(ring, ring[0])
	return geom.Polygon{ring}
}

// Buffer grows the extent by d on every side.
func (e Extent) Buffer(d float64) Extent {
	return Extent{e[0] - d, e[1] - d, e[2] + d, e[3] + d}
}

// Contains reports whether the point lies inside or on the border of the extent.
func (e Extent) Contains(pt geom.Point) bool {
	return e.MinX() <= pt.X() && pt.X() <= e.MaxX() &&
		e.MinY() <= pt.Y() && pt.Y() <= e.MaxY()
}

func (e Extent) MinX() float64 {
	return e[0]
}

func (e Extent) MinY() float64 {
	return e[1]
}

func (e Extent) MaxX() float64 {
	return e[2]
}

func (e Extent) MaxY() float64 {
	return e[3]
}

// XSpan is the width of the extent in meters
func (e Extent) XSpan() float64 {
	return e[2] - e[0]
}

// YSpan is the height of the extent in meters
func (e Extent) YSpan() float64 {
	return e[3] - e[1]
}
