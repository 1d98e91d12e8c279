package tiler

import "errors"

var (
	// ErrInvalidCoordinateForZoom is returned when a tile column or row lies outside the grid of its zoom level.
	ErrInvalidCoordinateForZoom = errors.New("invalid coordinate for zoom")
	ErrInvalidZoom              = errors.New("invalid zoom")
	ErrNonSquareTiles           = errors.New("only square tiles are supported")
	ErrAsymmetricBounds         = errors.New("projection bounds must be a square centered on the origin")
	ErrInvalidPoint             = errors.New("invalid point")
	ErrInvalidQuadKey           = errors.New("invalid quadkey")
)
