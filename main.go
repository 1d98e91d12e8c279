package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/carlmjohnson/versioninfo"
	"github.com/go-spatial/geom"
	"github.com/iancoleman/strcase"
	"github.com/urfave/cli/v2"

	"github.com/pdok/tmstiler/geomhelp"
	"github.com/pdok/tmstiler/layer"
	"github.com/pdok/tmstiler/tiler"
	"github.com/pdok/tmstiler/tileurl"
	"github.com/pdok/tmstiler/tms20"
)

const CONFIG string = `config`
const ZOOM string = `zoom`
const TILEX string = `x`
const TILEY string = `y`
const XMETERS string = `xm`
const YMETERS string = `ym`
const LONGITUDE string = `lon`
const LATITUDE string = `lat`
const TMS string = `tms`
const WKT string = `wkt`
const MAXLEN string = `maxlen`
const MINZOOM string = `minzoom`
const MAXZOOM string = `maxzoom`
const LAYERS string = `layers`
const POINTS string = `points`
const URL string = `url`

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

//nolint:funlen
func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "tmstiler"
	app.Usage = "Convert between Spherical Mercator meters, TMS tiles and tile pixels"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    CONFIG,
			Aliases: []string{"c"},
			Usage:   "JSON file with the projection bounds and tile pixel size. Defaults to EPSG:3857 with 256x256 tiles",
			EnvVars: []string{envVar(CONFIG)},
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:   "extent",
			Usage:  "Spherical Mercator extent of a TMS tile",
			Flags:  append(tileFlags(), &cli.BoolFlag{Name: WKT, Usage: "Print the extent as a WKT polygon", EnvVars: []string{envVar(WKT)}}, maxLenFlag()),
			Action: extentAction,
		},
		{
			Name:  "pixel",
			Usage: "Raster pixel of a Spherical Mercator point within a TMS tile",
			Flags: append(tileFlags(),
				&cli.Float64Flag{Name: XMETERS, Usage: "X in meters", Required: true, EnvVars: []string{envVar(XMETERS)}},
				&cli.Float64Flag{Name: YMETERS, Usage: "Y in meters", Required: true, EnvVars: []string{envVar(YMETERS)}},
			),
			Action: pixelAction,
		},
		{
			Name:  "tile",
			Usage: "Tile containing a longitude/latitude. The row counts from the north unless --tms is given",
			Flags: []cli.Flag{
				zoomFlag(),
				&cli.Float64Flag{Name: LONGITUDE, Usage: "Longitude in degrees", Required: true, EnvVars: []string{envVar(LONGITUDE)}},
				&cli.Float64Flag{Name: LATITUDE, Usage: "Latitude in degrees", Required: true, EnvVars: []string{envVar(LATITUDE)}},
				&cli.BoolFlag{Name: TMS, Usage: "Count the row from the south, like TMS", EnvVars: []string{envVar(TMS)}},
			},
			Action: tileAction,
		},
		{
			Name:   "neighbors",
			Usage:  "TMS tiles around a TMS tile",
			Flags:  tileFlags(),
			Action: neighborsAction,
		},
		{
			Name:   "quadkey",
			Usage:  "Bing Maps quadkey of a TMS tile",
			Flags:  tileFlags(),
			Action: quadKeyAction,
		},
		{
			Name:      "quadkeytile",
			Usage:     "TMS tile of a Bing Maps quadkey",
			ArgsUsage: "<quadkey>",
			Action:    quadKeyTileAction,
		},
		{
			Name:      "parse",
			Usage:     "Layer, zoom, x, y and format of a tile url",
			ArgsUsage: "<url>",
			Action:    parseAction,
		},
		{
			Name:  "tilematrixset",
			Usage: "OGC Tile Matrix Set (2.0) JSON describing the tile grid",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: MINZOOM, Value: 0, Usage: "First zoom level", EnvVars: []string{envVar(MINZOOM)}},
				&cli.IntFlag{Name: MAXZOOM, Value: 20, Usage: "Last zoom level", EnvVars: []string{envVar(MAXZOOM)}},
			},
			Action: tileMatrixSetAction,
		},
		{
			Name:  "polygons",
			Usage: "Pixel polygons the points of a layer cover in the tile of a url",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: LAYERS, Aliases: []string{"l"}, Usage: "JSON file with the layer configs", Required: true, EnvVars: []string{envVar(LAYERS)}},
				&cli.StringFlag{Name: POINTS, Aliases: []string{"p"}, Usage: "JSON file with the points", Required: true, EnvVars: []string{envVar(POINTS)}},
				&cli.StringFlag{Name: URL, Aliases: []string{"u"}, Usage: "Tile url, e.g. http://host/layer/8/136/167.png", Required: true, EnvVars: []string{envVar(URL)}},
				maxLenFlag(),
			},
			Action: polygonsAction,
		},
	}
	return app
}

func envVar(name string) string {
	return strcase.ToScreamingSnake("tmstiler_" + name)
}

func zoomFlag() cli.Flag {
	return &cli.IntFlag{Name: ZOOM, Aliases: []string{"z"}, Usage: "Zoom level", Required: true, EnvVars: []string{envVar(ZOOM)}}
}

func tileFlags() []cli.Flag {
	return []cli.Flag{
		zoomFlag(),
		&cli.IntFlag{Name: TILEX, Usage: "TMS tile column", Required: true, EnvVars: []string{envVar(TILEX)}},
		&cli.IntFlag{Name: TILEY, Usage: "TMS tile row, counted from the south", Required: true, EnvVars: []string{envVar(TILEY)}},
	}
}

func maxLenFlag() cli.Flag {
	return &cli.UintFlag{Name: MAXLEN, Value: 0, Usage: "Truncate WKT output to this many characters, 0 means no truncation", EnvVars: []string{envVar(MAXLEN)}}
}

func newEngine(c *cli.Context) (*tiler.Engine, error) {
	cfg := tiler.DefaultConfig()
	if path := c.String(CONFIG); path != "" {
		var err error
		cfg, err = tiler.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("error loading config %s: %w", path, err)
		}
	}
	return tiler.NewEngine(cfg)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func extentAction(c *cli.Context) error {
	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	extent, err := engine.TileExtent(c.Int(ZOOM), c.Int(TILEX), c.Int(TILEY))
	if err != nil {
		return err
	}
	if c.Bool(WKT) {
		_, err = fmt.Fprintln(c.App.Writer, geomhelp.WktMustEncode(extent.Polygon(), c.Uint(MAXLEN)))
		return err
	}
	return writeJSON(c.App.Writer, extent)
}

func pixelAction(c *cli.Context) error {
	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	pixel, err := engine.PointToPixel(c.Int(ZOOM), c.Int(TILEX), c.Int(TILEY), c.Float64(XMETERS), c.Float64(YMETERS))
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, pixel)
}

func tileAction(c *cli.Context) error {
	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	zoom, lon, lat := c.Int(ZOOM), c.Float64(LONGITUDE), c.Float64(LATITUDE)
	if c.Bool(TMS) {
		tile, err := engine.LonLatToTMSTile(zoom, lon, lat)
		if err != nil {
			return err
		}
		return writeJSON(c.App.Writer, tile)
	}
	x, y, err := engine.LonLatToTile(zoom, lon, lat)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, tiler.Tile{Zoom: zoom, X: x, Y: y})
}

func neighborsAction(c *cli.Context) error {
	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	neighbors, err := engine.NeighborTiles(c.Int(ZOOM), c.Int(TILEX), c.Int(TILEY))
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, neighbors)
}

func quadKeyAction(c *cli.Context) error {
	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	quadKey, err := engine.QuadKey(tiler.Tile{Zoom: c.Int(ZOOM), X: c.Int(TILEX), Y: c.Int(TILEY)})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, quadKey)
	return err
}

func quadKeyTileAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one quadkey, got %d arguments", c.NArg())
	}
	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	tile, err := engine.TileFromQuadKey(c.Args().First())
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, tile)
}

func parseAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one url, got %d arguments", c.NArg())
	}
	req, err := tileurl.Parse(c.Args().First())
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, struct {
		tileurl.Request
		MimeType string `json:"mimeType"`
	}{req, req.MimeType()})
}

func tileMatrixSetAction(c *cli.Context) error {
	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	tms, err := tms20.FromConfig(engine.Config(), c.Int(MINZOOM), c.Int(MAXZOOM))
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, &tms)
}

type jsonPoint struct {
	X      float64            `json:"x"`
	Y      float64            `json:"y"`
	SRID   uint               `json:"srid"`
	Values map[string]float64 `json:"values"`
}

func readPoints(path string) ([]layer.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []jsonPoint
	if err = json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("could not read points from %s: %w", path, err)
	}
	points := make([]layer.Point, 0, len(raw))
	for _, p := range raw {
		srid := p.SRID
		if srid == 0 {
			srid = layer.SphericalMercatorSRID
		}
		points = append(points, layer.Point{Location: geom.Point{p.X, p.Y}, SRID: srid, Values: p.Values})
	}
	return points, nil
}

// wktCanvas writes every filled polygon as a line of "<color>\t<wkt in pixel space>".
type wktCanvas struct {
	w      io.Writer
	maxLen uint
}

func (c *wktCanvas) FillPolygon(ring []tiler.Pixel, color string) error {
	pts := make([][2]float64, len(ring))
	for i, px := range ring {
		pts[i] = [2]float64{float64(px.X), float64(px.Y)}
	}
	_, err := fmt.Fprintf(c.w, "%s\t%s\n", color, geomhelp.WktMustEncode(geom.Polygon{pts}, c.maxLen))
	return err
}

func polygonsAction(c *cli.Context) error {
	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	layers, err := layer.LoadLayers(c.String(LAYERS))
	if err != nil {
		return err
	}
	points, err := readPoints(c.String(POINTS))
	if err != nil {
		return err
	}
	req, err := tileurl.Parse(c.String(URL))
	if err != nil {
		return err
	}
	manager, err := layer.NewManager(engine, layers, layer.NewPoints(engine, points))
	if err != nil {
		return err
	}

	log.Printf("=== start %s ===", req)
	mimeType, err := manager.RenderTile(context.Background(), req, &wktCanvas{w: c.App.Writer, maxLen: c.Uint(MAXLEN)})
	if err != nil {
		return err
	}
	log.Printf("=== done %s (%s) ===", req, mimeType)
	return nil
}
