package tiler

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, Config{
		XMin:       -SphericalMercatorMax,
		XMax:       SphericalMercatorMax,
		YMin:       -SphericalMercatorMax,
		YMax:       SphericalMercatorMax,
		TileWidth:  256,
		TileHeight: 256,
	}, cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		file    string
		want    Config
		wantErr error
		errText string
	}{
		{
			file: "config.json",
			want: Config{
				XMin:         -SphericalMercatorMax,
				XMax:         SphericalMercatorMax,
				YMin:         -SphericalMercatorMax,
				YMax:         SphericalMercatorMax,
				TileWidth:    512,
				TileHeight:   512,
				StrictBounds: true,
			},
		},
		{file: "unknown-key.json", errText: "tileSize"},
		{file: "asymmetric.json", wantErr: ErrAsymmetricBounds},
		{file: "does-not-exist.json", errText: "no such file"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, err := LoadConfig(filepath.Join("testdata", tt.file))
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				require.ErrorContains(t, err, tt.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TileWidth = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.YMax = 10
	cfg.YMin = -10
	assert.ErrorIs(t, cfg.Validate(), ErrAsymmetricBounds)

	cfg = DefaultConfig()
	cfg.TileHeight = 512
	assert.NoError(t, cfg.Validate(), "non-square tiles surface from TilesPerDimension")
}
