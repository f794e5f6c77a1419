package svgcanvas

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ImageSaveMode controls how raster images are written by the serializer.
type ImageSaveMode string

const (
	// ImagesEmbed replaces image references by their cached data URI.
	ImagesEmbed ImageSaveMode = "embed"
	// ImagesRef keeps image references as they are.
	ImagesRef ImageSaveMode = "ref"
)

// Config holds the editor settings consulted by the import
// and serialization passes.
type Config struct {
	// BaseUnit is the display unit used for the root width and height.
	BaseUnit string `toml:"base_unit"`
	// DynamicOutput writes a viewBox on the root instead of a fixed size.
	DynamicOutput bool `toml:"dynamic_output"`
	// RoundDigits is the number of decimals kept for numeric attributes.
	RoundDigits int `toml:"round_digits"`
	// ShowOutsideCanvas sets overflow="visible" on the imported root.
	ShowOutsideCanvas bool `toml:"show_outside_canvas"`
	// Dimensions is the default canvas size, in pixels.
	Dimensions [2]float64 `toml:"dimensions"`
	// IDPrefix prefixes every generated element id.
	IDPrefix string `toml:"id_prefix"`
	// Images selects between embedded or referenced images on save.
	Images ImageSaveMode `toml:"images"`
	// ApplyImageOptions enables the image save mode when serializing.
	ApplyImageOptions bool `toml:"apply_image_options"`
	// GeckoDefsWorkaround moves gradients and patterns into <defs> on import.
	GeckoDefsWorkaround bool `toml:"gecko_defs_workaround"`
}

// DefaultConfig returns the settings used when none are provided.
func DefaultConfig() Config {
	return Config{
		BaseUnit:          "px",
		RoundDigits:       5,
		ShowOutsideCanvas: true,
		Dimensions:        [2]float64{640, 480},
		IDPrefix:          "svg_",
		Images:            ImagesEmbed,
		ApplyImageOptions: true,
	}
}

// ParseConfig decodes a TOML document on top of the default settings.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("svgcanvas: invalid configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfig reads the TOML file at `path`.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), err
	}
	return ParseConfig(data)
}

func (cfg Config) validate() error {
	if cfg.RoundDigits < 0 || cfg.RoundDigits > 15 {
		return fmt.Errorf("svgcanvas: round_digits out of range: %d", cfg.RoundDigits)
	}
	if cfg.Images != ImagesEmbed && cfg.Images != ImagesRef {
		return fmt.Errorf("svgcanvas: unknown image mode %q", cfg.Images)
	}
	if cfg.Dimensions[0] <= 0 || cfg.Dimensions[1] <= 0 {
		return fmt.Errorf("svgcanvas: invalid dimensions %v", cfg.Dimensions)
	}
	return nil
}
