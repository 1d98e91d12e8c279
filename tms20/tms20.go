// Package tms20 describes the tile grid of a tiler.Engine as an OGC Tile Matrix Set (v2.0).
// See https://www.ogc.org/standard/tms/
package tms20

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/go-spatial/geom"
	"github.com/perimeterx/marshmallow"

	"github.com/pdok/tmstiler/mathhelp"
	"github.com/pdok/tmstiler/tiler"
)

const (
	WebMercatorCRS             = "http://www.opengis.net/def/crs/EPSG/0/3857"
	GoogleMapsCompatibleScales = "http://www.opengis.net/def/wkss/OGC/1.0/GoogleMapsCompatible"
	// standardized rendering pixel size in meters
	standardizedPixelSize = 0.00028
)

// TileMatrixSet is a definition of a tile matrix set following the Tile Matrix Set standard.
type TileMatrixSet struct {
	// Tile matrix set identifier. Implementation of 'identifier'
	ID string `json:"id,omitempty"`
	// Title of this tile matrix set, normally used for display to a human
	Title string `json:"title,omitempty"`
	// Brief narrative description of this tile matrix set, normally available for display to a human
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	// Reference to an official source for this TileMatrixSet
	URI         string   `validate:"omitempty,uri" json:"uri,omitempty"`
	OrderedAxes []string `validate:"omitempty,len=2" json:"orderedAxes,omitempty"`
	// Coordinate Reference System (CRS)
	CRS CRS `validate:"required" json:"-"`
	// Reference to a well-known scale set
	WellKnownScaleSet string `validate:"omitempty,uri" json:"wellKnownScaleSet,omitempty"`
	// Minimum bounding rectangle surrounding the tile matrix set, in the supported CRS
	BoundingBox *TwoDBoundingBox `json:"boundingBox,omitempty"`
	// Describes scale levels and its tile matrices
	TileMatrices map[int]TileMatrix `validate:"required,min=1,dive" json:"-"`
}

func (tms *TileMatrixSet) MarshalJSON() ([]byte, error) {
	var tileMatrices []*TileMatrix
	for i := range tms.TileMatrices {
		tm := tms.TileMatrices[i]
		tileMatrices = append(tileMatrices, &(tm))
	}
	sort.Slice(tileMatrices, func(i, j int) bool {
		iID, _ := strconv.ParseInt(tileMatrices[i].ID, 10, 64)
		jID, _ := strconv.ParseInt(tileMatrices[j].ID, 10, 64)
		return iID < jID
	})
	return json.Marshal(struct {
		TileMatrixSet                     // not a pointer, because it would cause recursion to this function
		SpecialCRS          CRS           `json:"crs"`
		SpecialTileMatrices []*TileMatrix `json:"tileMatrices"`
	}{
		TileMatrixSet:       *tms,
		SpecialCRS:          tms.CRS,
		SpecialTileMatrices: tileMatrices,
	})
}

func (tms *TileMatrixSet) UnmarshalJSON(data []byte) error {
	err := defaults.Set(tms)
	if err != nil {
		return err
	}

	specials, err := marshmallow.Unmarshal(data, tms, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}

	// CRS
	rawCrs, ok := specials["crs"]
	if !ok {
		return fmt.Errorf(`missing key "crs"`)
	}
	err = tms.CRS.UnmarshalJSONFromMap(rawCrs)
	if err != nil {
		return err
	}

	// TileMatrices
	rawTileMatrices, ok := specials["tileMatrices"]
	if !ok {
		return fmt.Errorf(`missing key "tileMatrices"`)
	}
	tms.TileMatrices, err = unmarshalTileMatrices(rawTileMatrices)
	if err != nil {
		return err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(tms)
}

func unmarshalTileMatrices(rawTileMatrices interface{}) (map[int]TileMatrix, error) {
	rawTileMatricesList, ok := rawTileMatrices.([]interface{})
	if !ok {
		return nil, fmt.Errorf(`"tileMatrices" should be an array`)
	}
	tileMatrices := make(map[int]TileMatrix, len(rawTileMatricesList))
	for _, rawTileMatrix := range rawTileMatricesList {
		rawTileMatrixMap, ok := rawTileMatrix.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf(`"tileMatrices" should be objects`)
		}
		var tileMatrix TileMatrix
		err := tileMatrix.UnmarshalJSONFromMap(rawTileMatrixMap)
		if err != nil {
			return nil, err
		}
		tileMatrixID, err := strconv.ParseInt(tileMatrix.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("only integer-like ids are supported for tile matrices: %w", err)
		}
		tileMatrices[int(tileMatrixID)] = tileMatrix
	}
	return tileMatrices, nil
}

var crsURIRegexURL = regexp.MustCompile("https?://.+/def/crs/(?P<authority>[^/]+)/[^/]+/(?P<code>[^/]+)$")

// CRS references one coordinate reference system by URI. It (un)marshals as a plain string.
type CRS string

func (crs *CRS) UnmarshalJSON(data []byte) error {
	return UnmarshalJSONUsingUnmarshalJSONFromMap(crs, data)
}

func (crs *CRS) UnmarshalJSONFromMap(data interface{}) error {
	dataString, ok := data.(string)
	if !ok {
		return fmt.Errorf(`crs is not a string but a %T`, data)
	}
	*crs = CRS(dataString)
	return nil
}

func (crs CRS) AuthorityName() string {
	parts := crsURIRegexURL.FindStringSubmatch(string(crs))
	if parts == nil {
		return ""
	}
	return parts[1]
}

func (crs CRS) AuthorityCode() string {
	parts := crsURIRegexURL.FindStringSubmatch(string(crs))
	if parts == nil {
		return ""
	}
	return parts[2]
}

// Minimum bounding rectangle surrounding a 2D resource in the CRS indicated elsewhere
type TwoDBoundingBox struct {
	LowerLeft   TwoDPoint `validate:"required" json:"lowerLeft"`
	UpperRight  TwoDPoint `validate:"required" json:"upperRight"`
	CRS         CRS       `json:"crs,omitempty"`
	OrderedAxes []string  `validate:"omitempty,len=2" json:"orderedAxes,omitempty"`
}

// A 2D Point in the CRS indicated elsewhere
type TwoDPoint [2]float64

func (p TwoDPoint) XY() [2]float64 {
	return p
}

func (p *TwoDPoint) UnmarshalJSON(data []byte) error {
	return UnmarshalJSONUsingUnmarshalJSONFromMap(p, data)
}

func (p *TwoDPoint) UnmarshalJSONFromMap(data interface{}) error {
	dataSlice, ok := data.([]interface{})
	if !ok || len(dataSlice) != 2 {
		return fmt.Errorf(`TwoDPoint should be an array of 2 numbers, got %v`, data)
	}
	for i, rawCoord := range dataSlice {
		coord, ok := rawCoord.(float64)
		if !ok {
			return fmt.Errorf(`TwoDPoint coordinate is not a number but a %T`, rawCoord)
		}
		p[i] = coord
	}
	return nil
}

// A tile matrix, usually corresponding to a particular zoom level of a TileMatrixSet.
type TileMatrix struct {
	// Identifier selecting one of the scales defined in the TileMatrixSet and representing the scaleDenominator the tile.
	ID string `validate:"required" json:"id"`
	// Title of this tile matrix, normally used for display to a human
	Title string `json:"title,omitempty"`
	// Scale denominator of this tile matrix
	ScaleDenominator float64 `validate:"required,gt=0" json:"scaleDenominator"`
	// Cell size of this tile matrix
	CellSize float64 `validate:"required,gt=0" json:"cellSize"`
	// The corner of the tile matrix (_topLeft_ or _bottomLeft_) used as the origin for numbering tile rows and columns.
	// This corner is also a corner of the (0, 0) tile.
	CornerOfOrigin CornerOfOrigin `default:"topLeft" validate:"oneof=topLeft bottomLeft" json:"cornerOfOrigin,omitempty"`
	// Precise position in CRS coordinates of the corner of origin for this tile matrix.
	PointOfOrigin TwoDPoint `validate:"required" json:"pointOfOrigin"`
	// Width of each tile of this tile matrix in pixels
	TileWidth uint `validate:"required,min=1" json:"tileWidth"`
	// Height of each tile of this tile matrix in pixels
	TileHeight uint `validate:"required,min=1" json:"tileHeight"`
	// Width of the matrix (number of tiles in width)
	MatrixWidth uint `validate:"required,min=1" json:"matrixWidth"`
	// Height of the matrix (number of tiles in height)
	MatrixHeight uint `validate:"required,min=1" json:"matrixHeight"`
}

func (tm *TileMatrix) UnmarshalJSON(data []byte) error {
	return UnmarshalJSONUsingUnmarshalJSONFromMap(tm, data)
}

func (tm *TileMatrix) UnmarshalJSONFromMap(data interface{}) error {
	err := defaults.Set(tm)
	if err != nil {
		return err
	}

	dataMap, ok := data.(map[string]interface{})
	if !ok {
		return fmt.Errorf(`data is not a map but a %T`, data)
	}

	_, err = marshmallow.UnmarshalFromJSONMap(dataMap, tm, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(tm)
}

type CornerOfOrigin string

const (
	TopLeft    CornerOfOrigin = "topLeft"
	BottomLeft CornerOfOrigin = "bottomLeft"
)

func (c *CornerOfOrigin) UnmarshalJSON(data []byte) error {
	return UnmarshalJSONUsingUnmarshalJSONFromMap(c, data)
}

func (c *CornerOfOrigin) UnmarshalJSONFromMap(data interface{}) error {
	dataString, ok := data.(string)
	if !ok {
		return fmt.Errorf(`CornerOfOrigin data is not a string but a %T`, data)
	}
	switch dataString {
	case "":
		fallthrough
	case string(TopLeft):
		*c = TopLeft
	case string(BottomLeft):
		*c = BottomLeft
	default:
		return fmt.Errorf(`unknown CornerOfOrigin: %v`, data)
	}
	return nil
}

// FromConfig describes the grid of an engine with the given config, for zoom levels minZoom up to and including maxZoom.
// Tile rows are numbered from the bottom, like TMS.
func FromConfig(cfg tiler.Config, minZoom, maxZoom int) (TileMatrixSet, error) {
	var tms TileMatrixSet
	if err := cfg.Validate(); err != nil {
		return tms, err
	}
	if minZoom < 0 || maxZoom > tiler.MaxZoom || minZoom > maxZoom {
		return tms, fmt.Errorf("%w: [%d, %d]", tiler.ErrInvalidZoom, minZoom, maxZoom)
	}
	if cfg.TileWidth != cfg.TileHeight {
		return tms, fmt.Errorf("%w: %dx%d", tiler.ErrNonSquareTiles, cfg.TileWidth, cfg.TileHeight)
	}

	tms = TileMatrixSet{
		ID:                "WebMercatorQuadTMS",
		Title:             "Spherical Mercator TMS tiles with the origin at the lower-left",
		CRS:               WebMercatorCRS,
		OrderedAxes:       []string{"X", "Y"},
		WellKnownScaleSet: GoogleMapsCompatibleScales,
		BoundingBox: &TwoDBoundingBox{
			LowerLeft:  TwoDPoint{cfg.XMin, cfg.YMin},
			UpperRight: TwoDPoint{cfg.XMax, cfg.YMax},
			CRS:        WebMercatorCRS,
		},
		TileMatrices: make(map[int]TileMatrix, maxZoom-minZoom+1),
	}
	for zoom := minZoom; zoom <= maxZoom; zoom++ {
		tiles := uint(mathhelp.Pow2(uint(zoom)))
		cellSize := (cfg.XMax - cfg.XMin) / float64(tiles*cfg.TileWidth)
		tms.TileMatrices[zoom] = TileMatrix{
			ID:               strconv.Itoa(zoom),
			ScaleDenominator: cellSize / standardizedPixelSize,
			CellSize:         cellSize,
			CornerOfOrigin:   BottomLeft,
			PointOfOrigin:    TwoDPoint{cfg.XMin, cfg.YMin},
			TileWidth:        cfg.TileWidth,
			TileHeight:       cfg.TileHeight,
			MatrixWidth:      tiles,
			MatrixHeight:     tiles,
		}
	}
	return tms, nil
}

func (tms *TileMatrixSet) SRID() uint {
	code, err := strconv.ParseUint(tms.CRS.AuthorityCode(), 10, 64)
	if err != nil {
		panic(fmt.Errorf(`could not parse uri authority code "%w"`, err))
	}
	return uint(code)
}

// Size returns the number of tile columns and rows at zoom.
func (tms *TileMatrixSet) Size(zoom int) (tiler.Tile, bool) {
	tm, ok := tms.TileMatrices[zoom]
	if !ok {
		return tiler.Tile{}, false
	}
	return tiler.Tile{Zoom: zoom, X: int(tm.MatrixWidth), Y: int(tm.MatrixHeight)}, true
}

// FromNative returns the tile containing the point.
func (tms *TileMatrixSet) FromNative(zoom int, pt geom.Point) (tiler.Tile, bool) {
	tm, ok := tms.TileMatrices[zoom]
	if !ok {
		return tiler.Tile{}, false
	}

	tileSizeX := float64(tm.TileWidth) * tm.CellSize
	minX := tm.PointOfOrigin.XY()[0]
	x := int((pt.X() - minX) / tileSizeX)
	if !mathhelp.BetweenHalfOpen(x, 0, int(tm.MatrixWidth)) || pt.X() < minX {
		return tiler.Tile{}, false
	}

	tileSizeY := float64(tm.TileHeight) * tm.CellSize
	var offsetY float64
	switch tm.CornerOfOrigin {
	case BottomLeft:
		offsetY = pt.Y() - tm.PointOfOrigin.XY()[1]
	default:
		offsetY = tm.PointOfOrigin.XY()[1] - pt.Y()
	}
	y := int(offsetY / tileSizeY)
	if !mathhelp.BetweenHalfOpen(y, 0, int(tm.MatrixHeight)) || offsetY < 0 {
		return tiler.Tile{}, false
	}

	return tiler.Tile{Zoom: zoom, X: x, Y: y}, true
}

// ToNative returns the extent of the tile.
func (tms *TileMatrixSet) ToNative(tile tiler.Tile) (tiler.Extent, bool) {
	tm, ok := tms.TileMatrices[tile.Zoom]
	if !ok {
		return tiler.Extent{}, false
	}
	if !mathhelp.BetweenInc(tile.X, 0, int(tm.MatrixWidth)) || !mathhelp.BetweenInc(tile.Y, 0, int(tm.MatrixHeight)) {
		// not >= because "should be able to take tiles with x and y values 1 higher than the max"
		return tiler.Extent{}, false
	}

	tileSizeX := float64(tm.TileWidth) * tm.CellSize
	tileSizeY := float64(tm.TileHeight) * tm.CellSize
	minX := tm.PointOfOrigin.XY()[0] + float64(tile.X)*tileSizeX
	var minY float64
	switch tm.CornerOfOrigin {
	case BottomLeft:
		minY = tm.PointOfOrigin.XY()[1] + float64(tile.Y)*tileSizeY
	default:
		minY = tm.PointOfOrigin.XY()[1] - float64(tile.Y+1)*tileSizeY
	}
	return tiler.Extent{minX, minY, minX + tileSizeX, minY + tileSizeY}, true
}

// UnmarshalJSONUsingUnmarshalJSONFromMap decodes data generically and hands it to target,
// so a type decodes the same way on its own and as a field decoded by marshmallow.
func UnmarshalJSONUsingUnmarshalJSONFromMap(target marshmallow.UnmarshalerFromJSONMap, data []byte) error {
	var raw interface{}
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}
	return target.UnmarshalJSONFromMap(raw)
}
