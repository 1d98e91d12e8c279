// Package layer turns the points of a configured layer into pixel polygons on a tile raster.
//
// Data access and drawing are left to the caller through the PointSource and Canvas interfaces.
package layer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-spatial/geom"
	"github.com/pdok/tmstiler/mapslicehelp"
	"github.com/pdok/tmstiler/processing"
	"github.com/pdok/tmstiler/tiler"
	"github.com/pdok/tmstiler/tileurl"
)

const (
	SphericalMercatorSRID = 3857
	WGS84SRID             = 4326

	// number of vertices of a round pixel, like a buffer with 2 segments per quarter circle
	roundPixelVertices = 8
)

var ErrUnsupportedSRID = errors.New("unsupported srid")

// Point is a measurement location with its values.
type Point struct {
	Location geom.Point
	SRID     uint
	Values   map[string]float64
}

func (p Point) Value(field string) (float64, bool) {
	v, ok := p.Values[field]
	return v, ok
}

// PointSource queries the points of a layer that fall within an extent in Spherical Mercator meters.
// Points are sent on the channel, which must not be closed by the PointSource.
type PointSource interface {
	PointsWithin(ctx context.Context, layer string, extent tiler.Extent, points chan<- Point) error
}

// Canvas is the raster drawing sink of a single tile.
type Canvas interface {
	FillPolygon(ring []tiler.Pixel, color string) error
}

// Points is an in-memory PointSource serving the same points for every layer.
type Points struct {
	engine *tiler.Engine
	points []Point
}

// NewPoints serves points, projecting WGS84 points with the engine to test them against an extent.
func NewPoints(engine *tiler.Engine, points []Point) *Points {
	return &Points{engine: engine, points: points}
}

func (ps *Points) PointsWithin(ctx context.Context, _ string, extent tiler.Extent, points chan<- Point) error {
	for _, p := range ps.points {
		if err := ctx.Err(); err != nil {
			return err
		}
		x, y, err := toSphericalMercator(ps.engine, p)
		if err != nil {
			return err
		}
		if !extent.Contains(geom.Point{x, y}) {
			continue
		}
		points <- p
	}
	return nil
}

type Option func(*Manager)

// WithLegend sets the legend of a layer. Layers without one use the ReferenceLegend.
func WithLegend(layer string, legend Legend) Option {
	return func(m *Manager) {
		m.legends[layer] = legend
	}
}

// Manager renders the tiles of configured layers.
type Manager struct {
	engine  *tiler.Engine
	layers  *Layers
	source  PointSource
	legends map[string]Legend
}

func NewManager(engine *tiler.Engine, layers *Layers, source PointSource, options ...Option) (*Manager, error) {
	for pair := layers.Oldest(); pair != nil; pair = pair.Next() {
		cfg := pair.Value
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config for layer %s: %w", pair.Key, err)
		}
		layers.Set(pair.Key, cfg)
	}
	m := &Manager{
		engine:  engine,
		layers:  layers,
		source:  source,
		legends: make(map[string]Legend),
	}
	for _, option := range options {
		option(m)
	}
	for name := range m.legends {
		if _, ok := layers.Get(name); !ok {
			return nil, fmt.Errorf("%w: legend given for %s", ErrLayerNotConfigured, name)
		}
	}
	return m, nil
}

// LayerNames returns the configured layers in configuration order.
func (m *Manager) LayerNames() []string {
	return mapslicehelp.OrderedMapKeys(m.layers)
}

type pixelPolygon struct {
	ring  []tiler.Pixel
	color string
}

// RenderTile draws every point of the requested layer and tile on the canvas
// and returns the mime type of the requested image format.
func (m *Manager) RenderTile(ctx context.Context, req tileurl.Request, canvas Canvas) (string, error) {
	cfg, ok := m.layers.Get(req.Layer)
	if !ok {
		return "", fmt.Errorf("%w: %s not in %v", ErrLayerNotConfigured, req.Layer, m.LayerNames())
	}
	extent, err := m.engine.TileExtent(req.Zoom, req.X, req.Y)
	if err != nil {
		return "", err
	}
	legend, ok := m.legends[req.Layer]
	if !ok {
		legend = ReferenceLegend{}
	}

	// one pixel (bin) extra so points at the edge are included
	source := &pointReader{ctx: ctx, source: m.source, layer: req.Layer, extent: extent.Buffer(cfg.PixelSize)}
	target := &canvasWriter{canvas: canvas}
	_, err = processing.Process[Point, pixelPolygon](req.String(), source, target, func(p Point) ([]pixelPolygon, error) {
		ring, err := m.PixelRing(cfg, req.Tile(), p)
		if err != nil {
			return nil, err
		}
		return []pixelPolygon{{ring: ring, color: legend.ColorStr(p, cfg.ValueField)}}, nil
	})
	if err != nil {
		return "", err
	}
	return req.MimeType(), nil
}

// PixelRing returns the closed ring of raster pixels covered by the bin of a point.
func (m *Manager) PixelRing(cfg Config, tile tiler.Tile, p Point) ([]tiler.Pixel, error) {
	x, y, err := toSphericalMercator(m.engine, p)
	if err != nil {
		return nil, err
	}
	x, y = adjustToUpperLeft(cfg, x, y)

	var vertices [][2]float64
	if cfg.RoundPixels {
		vertices = roundPixel(x+cfg.PixelSize/2, y-cfg.PixelSize/2, cfg.PixelSize/2)
	} else {
		bin := tiler.Extent{x, y - cfg.PixelSize, x + cfg.PixelSize, y}
		vertices = bin.Vertices()
		// start at the upper-left, clockwise on the raster
		vertices = [][2]float64{vertices[3], vertices[2], vertices[1], vertices[0], vertices[3]}
	}

	ring := make([]tiler.Pixel, 0, len(vertices))
	for _, v := range vertices {
		px, err := m.engine.PointToPixel(tile.Zoom, tile.X, tile.Y, v[0], v[1])
		if err != nil {
			return nil, err
		}
		ring = append(ring, px)
	}
	return ring, nil
}

func toSphericalMercator(engine *tiler.Engine, p Point) (x, y float64, err error) {
	switch p.SRID {
	case SphericalMercatorSRID:
		return p.Location.X(), p.Location.Y(), nil
	case WGS84SRID:
		x, y = engine.LonLatToMeters(p.Location.X(), p.Location.Y())
		return x, y, nil
	default:
		return 0, 0, fmt.Errorf("%w: %d", ErrUnsupportedSRID, p.SRID)
	}
}

// adjustToUpperLeft moves the point so it represents the upper-left corner of its bin.
func adjustToUpperLeft(cfg Config, x, y float64) (float64, float64) {
	size := cfg.PixelSize
	switch cfg.PointPosition {
	case UpperRight:
		x -= size
	case LowerRight:
		x -= size
		y += size
	case LowerLeft:
		y += size
	case Center:
		x -= size / 2
		y += size / 2
	}
	return x, y
}

// roundPixel approximates a circle with a closed ring of roundPixelVertices vertices.
func roundPixel(cx, cy, radius float64) [][2]float64 {
	ring := make([][2]float64, 0, roundPixelVertices+1)
	for i := 0; i < roundPixelVertices; i++ {
		angle := 2 * math.Pi * float64(i) / roundPixelVertices
		ring = append(ring, [2]float64{cx + radius*math.Cos(angle), cy + radius*math.Sin(angle)})
	}
	return append(ring, ring[0])
}

type pointReader struct {
	ctx    context.Context
	source PointSource
	layer  string
	extent tiler.Extent
}

func (r *pointReader) Read(points chan<- Point) error {
	return r.source.PointsWithin(r.ctx, r.layer, r.extent, points)
}

type canvasWriter struct {
	canvas Canvas
}

func (w *canvasWriter) Write(polygons <-chan pixelPolygon) error {
	for polygon := range polygons {
		if err := w.canvas.FillPolygon(polygon.ring, polygon.color); err != nil {
			return err
		}
	}
	return nil
}
