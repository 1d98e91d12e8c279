package layer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/pdok/tmstiler/mapslicehelp"
	"github.com/perimeterx/marshmallow"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var ErrLayerNotConfigured = errors.New("layer not configured")

// PointPosition tells which part of a raster pixel (bin) the stored point represents.
type PointPosition string

const (
	UpperLeft  PointPosition = "upperleft"
	UpperRight PointPosition = "upperright"
	LowerLeft  PointPosition = "lowerleft"
	LowerRight PointPosition = "lowerright"
	Center     PointPosition = "center"
)

func (pp *PointPosition) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return pp.UnmarshalJSONFromMap(raw)
}

// UnmarshalJSONFromMap accepts any string, Config.Validate checks the value.
func (pp *PointPosition) UnmarshalJSONFromMap(data interface{}) error {
	dataString, ok := data.(string)
	if !ok {
		return fmt.Errorf(`PointPosition data is not a string but a %T`, data)
	}
	*pp = PointPosition(dataString)
	return nil
}

// Config describes how the points of one layer are drawn.
type Config struct {
	// Raster pixel or bin size in meters
	PixelSize float64 `validate:"required,gt=0" json:"pixelSize"`
	// Pixel position represented by the point
	PointPosition PointPosition `validate:"required,oneof=upperleft upperright lowerleft lowerright center" json:"pointPosition"`
	// Name of the value the legend colors by
	ValueField string `default:"value" validate:"required" json:"valueField"`
	// Draw a circle around the bin center instead of a square
	RoundPixels bool   `json:"roundPixels"`
	WMSType     string `default:"TMS" validate:"oneof=TMS" json:"wmsType"`
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
		return fmt.Errorf(`unknown layer config keys: %v`, mapslicehelp.SortedKeys(unknown))
	}

	return cfg.Validate()
}

// Validate applies the defaults for unset optional fields and checks the required ones.
func (cfg *Config) Validate() error {
	if err := defaults.Set(cfg); err != nil {
		return err
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(cfg)
}

// Layers maps layer names to their config, keeping the configured order.
type Layers = orderedmap.OrderedMap[string, Config]

func NewLayers() *Layers {
	return orderedmap.New[string, Config]()
}

// LoadLayers reads a JSON object of layer name to layer config.
func LoadLayers(path string) (*Layers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	layers := NewLayers()
	err = layers.UnmarshalJSON(data)
	if err != nil {
		return nil, fmt.Errorf("could not read layers from %s: %w", path, err)
	}
	return layers, nil
}
