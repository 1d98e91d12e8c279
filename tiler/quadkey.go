package tiler

import (
	"fmt"
	"strings"

	"github.com/pdok/tmstiler/mathhelp"
	"github.com/pdok/tmstiler/morton"
)

// QuadKey returns the Bing Maps quadkey of a TMS tile.
// Zoom level 0 has the empty quadkey.
// See https://learn.microsoft.com/en-us/bingmaps/articles/bing-maps-tile-system
func (e *Engine) QuadKey(tile Tile) (string, error) {
	xtiles, _, err := e.TilesPerDimension(tile.Zoom)
	if err != nil {
		return "", err
	}
	if !mathhelp.BetweenHalfOpen(tile.X, 0, xtiles) {
		return "", fmt.Errorf("%w: x(%d) not within xtiles(%d) for zoom(%d)", ErrInvalidCoordinateForZoom, tile.X, xtiles, tile.Zoom)
	}
	row, err := e.FlipY(tile.Zoom, tile.Y)
	if err != nil {
		return "", err
	}
	z := morton.MustEncode(uint(tile.X), uint(row))
	var sb strings.Builder
	sb.Grow(tile.Zoom)
	for level := tile.Zoom - 1; level >= 0; level-- {
		sb.WriteByte(byte('0' + morton.Digit(z, uint(level))))
	}
	return sb.String(), nil
}

// TileFromQuadKey is the inverse of QuadKey.
func (e *Engine) TileFromQuadKey(quadKey string) (Tile, error) {
	zoom := len(quadKey)
	if _, _, err := e.TilesPerDimension(zoom); err != nil {
		return Tile{}, err
	}
	var z morton.Z
	for i := 0; i < zoom; i++ {
		c := quadKey[i]
		if c < '0' || c > '3' {
			return Tile{}, fmt.Errorf("%w: %q", ErrInvalidQuadKey, quadKey)
		}
		z = z<<2 | morton.Z(c-'0')
	}
	x, row := morton.Decode(z)
	y, err := e.FlipY(zoom, int(row))
	if err != nil {
		return Tile{}, err
	}
	return Tile{Zoom: zoom, X: int(x), Y: y}, nil
}
