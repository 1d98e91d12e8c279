package tms20

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/go-spatial/geom"
	"github.com/pdok/tmstiler/tiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfig(t *testing.T) {
	tms, err := FromConfig(tiler.DefaultConfig(), 0, 12)
	require.NoError(t, err)
	assert.Equal(t, uint(3857), tms.SRID())
	assert.Len(t, tms.TileMatrices, 13)

	tm0 := tms.TileMatrices[0]
	// the well known GoogleMapsCompatible zoom 0 values
	assert.InDelta(t, 156543.0339, tm0.CellSize, 1e-3)
	assert.InDelta(t, 559082264.0287178, tm0.ScaleDenominator, 1)
	assert.Equal(t, BottomLeft, tm0.CornerOfOrigin)

	size, ok := tms.Size(8)
	require.True(t, ok)
	assert.Equal(t, tiler.Tile{Zoom: 8, X: 256, Y: 256}, size)
	_, ok = tms.Size(13)
	assert.False(t, ok)
}

func TestFromConfigInvalid(t *testing.T) {
	_, err := FromConfig(tiler.DefaultConfig(), 5, 2)
	assert.ErrorIs(t, err, tiler.ErrInvalidZoom)
	_, err = FromConfig(tiler.DefaultConfig(), 0, tiler.MaxZoom+1)
	assert.ErrorIs(t, err, tiler.ErrInvalidZoom)

	cfg := tiler.DefaultConfig()
	cfg.TileHeight = 512
	_, err = FromConfig(cfg, 0, 1)
	assert.ErrorIs(t, err, tiler.ErrNonSquareTiles)
}

func TestTileMatrixSet_AgreesWithEngine(t *testing.T) {
	engine, err := tiler.NewEngine(tiler.DefaultConfig())
	require.NoError(t, err)
	tms, err := FromConfig(engine.Config(), 0, 10)
	require.NoError(t, err)

	tiles := []tiler.Tile{
		{Zoom: 8, X: 136, Y: 167},
		{Zoom: 5, X: 29, Y: 12},
		{Zoom: 6, X: 16, Y: 40},
		{Zoom: 10, X: 911, Y: 626},
		{Zoom: 0, X: 0, Y: 0},
		{Zoom: 3, X: 8, Y: 8},
	}
	for _, tile := range tiles {
		t.Run(tile.String(), func(t *testing.T) {
			want, err := engine.TileExtent(tile.Zoom, tile.X, tile.Y)
			require.NoError(t, err)
			got, ok := tms.ToNative(tile)
			require.True(t, ok)
			for i := range want {
				assert.InDelta(t, want[i], got[i], 1e-6)
			}

			if tile.X == 1<<tile.Zoom {
				return
			}
			center := geom.Point{want.MinX() + want.XSpan()/2, want.MinY() + want.YSpan()/2}
			found, ok := tms.FromNative(tile.Zoom, center)
			require.True(t, ok)
			assert.Equal(t, tile, found)
		})
	}

	_, ok := tms.ToNative(tiler.Tile{Zoom: 2, X: 5, Y: 0})
	assert.False(t, ok)
	_, ok = tms.FromNative(2, geom.Point{-3e7, 0})
	assert.False(t, ok)
	_, ok = tms.FromNative(2, geom.Point{0, 3e7})
	assert.False(t, ok)
	_, ok = tms.FromNative(11, geom.Point{0, 0})
	assert.False(t, ok)
}

func TestTileMatrixSet_TopLeft(t *testing.T) {
	tms, err := FromConfig(tiler.DefaultConfig(), 2, 2)
	require.NoError(t, err)
	tm := tms.TileMatrices[2]
	tm.CornerOfOrigin = TopLeft
	tm.PointOfOrigin = TwoDPoint{-tiler.SphericalMercatorMax, tiler.SphericalMercatorMax}
	tms.TileMatrices[2] = tm

	quarter := tiler.SphericalMercatorMax / 2
	found, ok := tms.FromNative(2, geom.Point{-quarter - 1, quarter + 1})
	require.True(t, ok)
	assert.Equal(t, tiler.Tile{Zoom: 2, X: 0, Y: 0}, found)

	extent, ok := tms.ToNative(tiler.Tile{Zoom: 2, X: 0, Y: 0})
	require.True(t, ok)
	assert.InDelta(t, tiler.SphericalMercatorMax, extent.MaxY(), 1e-6)
	assert.InDelta(t, quarter, extent.MinY(), 1e-6)
}

func TestTileMatrixSet_JSON(t *testing.T) {
	tms, err := FromConfig(tiler.DefaultConfig(), 0, 3)
	require.NoError(t, err)

	marshalled, err := json.Marshal(&tms)
	require.NoError(t, err)
	assert.Contains(t, string(marshalled), `"crs":"http://www.opengis.net/def/crs/EPSG/0/3857"`)
	assert.Contains(t, string(marshalled), `"cornerOfOrigin":"bottomLeft"`)

	var got TileMatrixSet
	require.NoError(t, json.Unmarshal(marshalled, &got))
	assert.Equal(t, tms, got)
}

func TestTileMatrixSet_UnmarshalJSONFile(t *testing.T) {
	data, err := os.ReadFile("testdata/WebMercatorQuad.json")
	require.NoError(t, err)

	var tms TileMatrixSet
	require.NoError(t, json.Unmarshal(data, &tms))
	assert.Equal(t, "WebMercatorQuad", tms.ID)
	assert.Equal(t, CRS(WebMercatorCRS), tms.CRS)
	assert.Equal(t, uint(3857), tms.SRID())
	assert.Equal(t, []string{"X", "Y"}, tms.OrderedAxes)
	require.NotNil(t, tms.BoundingBox)
	assert.Equal(t, TwoDPoint{-20037508.3427892, -20037508.3427892}, tms.BoundingBox.LowerLeft)
	assert.Equal(t, CRS(WebMercatorCRS), tms.BoundingBox.CRS)
	require.Len(t, tms.TileMatrices, 2)

	tm1 := tms.TileMatrices[1]
	assert.Equal(t, TopLeft, tm1.CornerOfOrigin)
	assert.Equal(t, TwoDPoint{-20037508.3427892, 20037508.3427892}, tm1.PointOfOrigin)
	assert.Equal(t, uint(2), tm1.MatrixWidth)
	// cornerOfOrigin left out
	assert.Equal(t, TopLeft, tms.TileMatrices[0].CornerOfOrigin)

	tile, ok := tms.FromNative(1, geom.Point{1000, 1000})
	require.True(t, ok)
	assert.Equal(t, tiler.Tile{Zoom: 1, X: 1, Y: 0}, tile)
}

func TestTileMatrix_UnmarshalJSON(t *testing.T) {
	var tm TileMatrix
	require.NoError(t, json.Unmarshal([]byte(`{"id": "3", "cornerOfOrigin": "bottomLeft", "scaleDenominator": 1, "cellSize": 1, "pointOfOrigin": [-1, -1], "tileWidth": 256, "tileHeight": 256, "matrixWidth": 8, "matrixHeight": 8}`), &tm))
	assert.Equal(t, BottomLeft, tm.CornerOfOrigin)
	assert.Equal(t, TwoDPoint{-1, -1}, tm.PointOfOrigin)
}

func TestTileMatrixSet_UnmarshalJSONInvalid(t *testing.T) {
	const matrix = `"scaleDenominator": 1, "cellSize": 1, "pointOfOrigin": [-1, 1], "tileWidth": 256, "tileHeight": 256, "matrixWidth": 1, "matrixHeight": 1`
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{name: "missing tile matrices",
			json:    `{"id": "x", "crs": "http://www.opengis.net/def/crs/EPSG/0/3857"}`,
			wantErr: `missing key "tileMatrices"`},
		{name: "missing crs",
			json:    `{"id": "x", "tileMatrices": [{"id": "0", ` + matrix + `}]}`,
			wantErr: `missing key "crs"`},
		{name: "crs not a string",
			json:    `{"id": "x", "crs": 3857, "tileMatrices": [{"id": "0", ` + matrix + `}]}`,
			wantErr: "crs is not a string"},
		{name: "non integer id",
			json:    `{"id": "x", "crs": "http://www.opengis.net/def/crs/EPSG/0/3857", "tileMatrices": [{"id": "a", ` + matrix + `}]}`,
			wantErr: "only integer-like ids"},
		{name: "bad corner",
			json:    `{"id": "x", "crs": "http://www.opengis.net/def/crs/EPSG/0/3857", "tileMatrices": [{"id": "0", "cornerOfOrigin": "middle", ` + matrix + `}]}`,
			wantErr: "unknown CornerOfOrigin"},
		{name: "point of origin with 3 coordinates",
			json:    `{"id": "x", "crs": "http://www.opengis.net/def/crs/EPSG/0/3857", "tileMatrices": [{"id": "0", "scaleDenominator": 1, "cellSize": 1, "pointOfOrigin": [-1, 1, 0], "tileWidth": 256, "tileHeight": 256, "matrixWidth": 1, "matrixHeight": 1}]}`,
			wantErr: "TwoDPoint should be an array of 2 numbers"},
		{name: "missing cell size",
			json:    `{"id": "x", "crs": "http://www.opengis.net/def/crs/EPSG/0/3857", "tileMatrices": [{"id": "0", "scaleDenominator": 1, "pointOfOrigin": [-1, 1], "tileWidth": 256, "tileHeight": 256, "matrixWidth": 1, "matrixHeight": 1}]}`,
			wantErr: "CellSize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tms TileMatrixSet
			err := json.Unmarshal([]byte(tt.json), &tms)
			assert.ErrorContains(t, err, tt.wantErr, fmt.Sprintf("%+v", tms))
		})
	}
}

func TestCRS(t *testing.T) {
	assert.Equal(t, "EPSG", CRS(WebMercatorCRS).AuthorityName())
	assert.Equal(t, "3857", CRS(WebMercatorCRS).AuthorityCode())
	assert.Equal(t, "", CRS("urn:nothing").AuthorityCode())
	tms := TileMatrixSet{CRS: "urn:nothing"}
	assert.Panics(t, func() { tms.SRID() })
}
