package tiler

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/pdok/tmstiler/mapslicehelp"
	"github.com/perimeterx/marshmallow"
)

// SphericalMercatorMax is the half width of the EPSG:3857 square, as used by openlayers.
// See http://docs.openlayers.org/library/spherical_mercator.html
const SphericalMercatorMax = 20037508.34

// MaxZoom is the deepest zoom level the engine accepts.
const MaxZoom = 30

// Config holds the projection bounds and tile pixel size the engine works with.
type Config struct {
	XMin float64 `default:"-20037508.34" validate:"ltfield=XMax" json:"xmin"`
	XMax float64 `default:"20037508.34" validate:"gt=0" json:"xmax"`
	YMin float64 `default:"-20037508.34" validate:"ltfield=YMax" json:"ymin"`
	YMax float64 `default:"20037508.34" validate:"gt=0" json:"ymax"`
	// Width of each tile in pixels
	TileWidth uint `default:"256" validate:"min=1" json:"tileWidth"`
	// Height of each tile in pixels
	TileHeight uint `default:"256" validate:"min=1" json:"tileHeight"`
	// Reject tile columns and rows equal to the number of tiles at a zoom level.
	StrictBounds bool `json:"strictBounds"`
}

// DefaultConfig returns the Spherical Mercator world with 256x256 pixel tiles.
func DefaultConfig() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(fmt.Errorf("could not set config defaults: %w", err))
	}
	return cfg
}

// LoadConfig reads a JSON config file. Missing keys get their defaults, unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = cfg.UnmarshalJSON(data)
	return cfg, err
}

func (cfg *Config) UnmarshalJSON(data []byte) error {
	err := defaults.Set(cfg)
	if err != nil {
		return err
	}

	unknown, err := marshmallow.Unmarshal(data, cfg, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		return fmt.Errorf(`unknown config keys: %v`, mapslicehelp.SortedKeys(unknown))
	}

	return cfg.Validate()
}

// Validate checks the field constraints and that the bounds form a square centered on the origin.
func (cfg *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	if cfg.XMax != cfg.YMax || cfg.XMin != -cfg.XMax || cfg.YMin != -cfg.YMax {
		return fmt.Errorf("%w: (%v, %v, %v, %v)", ErrAsymmetricBounds, cfg.XMin, cfg.YMin, cfg.XMax, cfg.YMax)
	}
	return nil
}
