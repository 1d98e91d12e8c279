// Package tiler converts between Spherical Mercator meters, the TMS tile grid and tile raster pixels.
//
// TMS tile (0, 0) is the lower-left tile of the grid. Pixel (0, 0) is the upper-left corner of a tile.
// An Engine is immutable and safe for concurrent use.
package tiler

import (
	"fmt"
	"math"

	"github.com/pdok/tmstiler/mathhelp"
)

// Tile is a TMS tile address.
type Tile struct {
	Zoom int `json:"zoom"`
	X    int `json:"x"`
	Y    int `json:"y"`
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

// Pixel is a raster position inside a tile, y increasing downward.
type Pixel struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// TilesPerDimension returns the number of tile columns and rows at the zoom level.
// See http://wiki.openstreetmap.org/wiki/Slippy_map_tilenames
func (e *Engine) TilesPerDimension(zoom int) (xtiles, ytiles int, err error) {
	if zoom < 0 || zoom > MaxZoom {
		return 0, 0, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidZoom, zoom, MaxZoom)
	}
	if e.cfg.TileWidth != e.cfg.TileHeight {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrNonSquareTiles, e.cfg.TileWidth, e.cfg.TileHeight)
	}
	tileCount := mathhelp.Pow2(uint(zoom))
	return tileCount, tileCount, nil
}

// TileExtent calculates the Spherical Mercator extent of a TMS tile.
// Unless StrictBounds is set, a column or row equal to the tile count is accepted and
// yields the degenerate tile just beyond the grid edge.
func (e *Engine) TileExtent(zoom, tileX, tileY int) (Extent, error) {
	xtiles, ytiles, err := e.TilesPerDimension(zoom)
	if err != nil {
		return Extent{}, err
	}
	if !e.inGrid(tileX, xtiles) {
		return Extent{}, fmt.Errorf("%w: x(%d) not within xtiles(%d) for zoom(%d)", ErrInvalidCoordinateForZoom, tileX, xtiles, zoom)
	}
	if !e.inGrid(tileY, ytiles) {
		return Extent{}, fmt.Errorf("%w: y(%d) not within ytiles(%d) for zoom(%d)", ErrInvalidCoordinateForZoom, tileY, ytiles, zoom)
	}

	metersPerTileX := (e.cfg.XMax - e.cfg.XMin) / float64(xtiles)
	metersPerTileY := (e.cfg.YMax - e.cfg.YMin) / float64(ytiles)
	if metersPerTileX != metersPerTileY {
		panic(fmt.Errorf("meters per tile differ between x(%v) and y(%v)", metersPerTileX, metersPerTileY))
	}

	// tile indices start at the lower-left of the grid, world coordinates are centered on zero
	return Extent{
		float64(tileX)*metersPerTileX - e.cfg.XMax,
		float64(tileY)*metersPerTileY - e.cfg.YMax,
		float64(tileX+1)*metersPerTileX - e.cfg.XMax,
		float64(tileY+1)*metersPerTileY - e.cfg.YMax,
	}, nil
}

func (e *Engine) inGrid(i, tiles int) bool {
	if e.cfg.StrictBounds {
		return mathhelp.BetweenHalfOpen(i, 0, tiles)
	}
	return mathhelp.BetweenInc(i, 0, tiles)
}

// PointToPixel maps a Spherical Mercator point to the raster pixel of the given tile.
// Points outside the tile are snapped to its border.
func (e *Engine) PointToPixel(zoom, tileX, tileY int, xm, ym float64) (Pixel, error) {
	if !finite(xm) || !finite(ym) {
		return Pixel{}, fmt.Errorf("%w: (%v, %v)", ErrInvalidPoint, xm, ym)
	}
	extent, err := e.TileExtent(zoom, tileX, tileY)
	if err != nil {
		return Pixel{}, err
	}

	xm = mathhelp.Clamp(xm, extent.MinX(), extent.MaxX())
	ym = mathhelp.Clamp(ym, extent.MinY(), extent.MaxY())

	tileWidthMeters := extent.XSpan()
	tileHeightMeters := extent.YSpan()
	metersPerPixelX := tileWidthMeters / float64(e.cfg.TileWidth)
	metersPerPixelY := tileHeightMeters / float64(e.cfg.TileHeight)

	// lower-left corner of the tile becomes the origin, still in meters
	shiftedX := xm - extent.MinX()
	shiftedY := ym - extent.MinY()
	// raster y runs downward
	rasterY := tileHeightMeters - shiftedY

	px := int(shiftedX / metersPerPixelX)
	py := int(math.Abs(rasterY / metersPerPixelY))

	if !mathhelp.BetweenInc(px, 0, int(e.cfg.TileWidth)) || !mathhelp.BetweenInc(py, 0, int(e.cfg.TileHeight)) {
		panic(fmt.Errorf("pixel (%d, %d) outside of %dx%d raster for point (%v, %v) in tile %d/%d/%d",
			px, py, e.cfg.TileWidth, e.cfg.TileHeight, xm, ym, zoom, tileX, tileY))
	}
	return Pixel{X: px, Y: py}, nil
}

// LonLatToMeters projects a WGS84 longitude/latitude to Spherical Mercator meters.
func (e *Engine) LonLatToMeters(lon, lat float64) (xm, ym float64) {
	xm = lon * (e.cfg.XMax / 180)
	ym = math.Log(math.Tan(math.Pi/4+lat*math.Pi/360)) * (e.cfg.YMax / math.Pi)
	return xm, ym
}

// LonLatToTile returns the column and row of the tile containing lon/lat.
// The row is counted from the north edge of the grid like the common tile calculators do,
// use FlipY or LonLatToTMSTile for the TMS row.
func (e *Engine) LonLatToTile(zoom int, lon, lat float64) (tileX, tileY int, err error) {
	if !finite(lon) || !finite(lat) {
		return 0, 0, fmt.Errorf("%w: (%v, %v)", ErrInvalidPoint, lon, lat)
	}
	xtiles, ytiles, err := e.TilesPerDimension(zoom)
	if err != nil {
		return 0, 0, err
	}
	xm, ym := e.LonLatToMeters(lon, lat)
	metersPerTileX := (e.cfg.XMax - e.cfg.XMin) / float64(xtiles)
	metersPerTileY := (e.cfg.YMax - e.cfg.YMin) / float64(ytiles)
	tileX = cellIndex(xm-e.cfg.XMin, metersPerTileX, xtiles)
	tileY = cellIndex(e.cfg.YMax-ym, metersPerTileY, ytiles)
	return tileX, tileY, nil
}

// MetersToTile returns the TMS tile whose extent contains the point.
func (e *Engine) MetersToTile(zoom int, xm, ym float64) (Tile, error) {
	if !finite(xm) || !finite(ym) {
		return Tile{}, fmt.Errorf("%w: (%v, %v)", ErrInvalidPoint, xm, ym)
	}
	xtiles, ytiles, err := e.TilesPerDimension(zoom)
	if err != nil {
		return Tile{}, err
	}
	metersPerTileX := (e.cfg.XMax - e.cfg.XMin) / float64(xtiles)
	metersPerTileY := (e.cfg.YMax - e.cfg.YMin) / float64(ytiles)
	return Tile{
		Zoom: zoom,
		X:    cellIndex(xm-e.cfg.XMin, metersPerTileX, xtiles),
		Y:    cellIndex(ym-e.cfg.YMin, metersPerTileY, ytiles),
	}, nil
}

// LonLatToTMSTile returns the TMS tile containing lon/lat.
func (e *Engine) LonLatToTMSTile(zoom int, lon, lat float64) (Tile, error) {
	if !finite(lon) || !finite(lat) {
		return Tile{}, fmt.Errorf("%w: (%v, %v)", ErrInvalidPoint, lon, lat)
	}
	xm, ym := e.LonLatToMeters(lon, lat)
	return e.MetersToTile(zoom, xm, ym)
}

// FlipY converts a TMS row to a north-origin row and back.
func (e *Engine) FlipY(zoom, tileY int) (int, error) {
	_, ytiles, err := e.TilesPerDimension(zoom)
	if err != nil {
		return 0, err
	}
	if !mathhelp.BetweenHalfOpen(tileY, 0, ytiles) {
		return 0, fmt.Errorf("%w: y(%d) not within ytiles(%d) for zoom(%d)", ErrInvalidCoordinateForZoom, tileY, ytiles, zoom)
	}
	return ytiles - 1 - tileY, nil
}

// NeighborTiles returns the tiles around the given tile, leaving out those beyond the grid.
// The order of the result is not significant.
func (e *Engine) NeighborTiles(zoom, tileX, tileY int) ([]Tile, error) {
	xtiles, ytiles, err := e.TilesPerDimension(zoom)
	if err != nil {
		return nil, err
	}
	neighbors := make([]Tile, 0, 8)
	for dy := 1; dy >= -1; dy-- {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			x, y := tileX+dx, tileY+dy
			if !mathhelp.BetweenHalfOpen(x, 0, xtiles) || !mathhelp.BetweenHalfOpen(y, 0, ytiles) {
				continue
			}
			neighbors = append(neighbors, Tile{Zoom: zoom, X: x, Y: y})
		}
	}
	return neighbors, nil
}

// cellIndex floors offset/cellSize into [0, cells-1].
func cellIndex(offset, cellSize float64, cells int) int {
	i := int(math.Floor(offset / cellSize))
	return mathhelp.Clamp(i, 0, cells-1)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
