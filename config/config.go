// Package config carries the tunable rendering and matching parameters of
// the placement and finalization engine. Values load from a TOML file and
// fall back to the fixed defaults the rendering contract is specified
// against.
package config

import (
	"compress/zlib"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
)

// DefaultLocation is the conventional config file location.
var DefaultLocation = "./signdoc.conf"

// Config is the root of the config. The zero value is not usable; start
// from Default.
type Config struct {
	// SignatureWidth and SignatureHeight are the fixed render size, in
	// document-space units, of a signature image baked into the output.
	SignatureWidth  float64 `toml:"signature_width"`
	SignatureHeight float64 `toml:"signature_height"`

	// TextFontSize is the point size used for baked-in text fields.
	TextFontSize float64 `toml:"text_font_size"`

	// TextFieldWidth and TextFieldHeight bound the backing rectangle drawn
	// behind text on the raster path and drive clamping on both paths.
	TextFieldWidth  float64 `toml:"text_field_width"`
	TextFieldHeight float64 `toml:"text_field_height"`

	// CanvasWidth and CanvasHeight size the raster canvas for sources that
	// carry no intrinsic dimensions (text and word-processing documents).
	CanvasWidth  int `toml:"canvas_width"`
	CanvasHeight int `toml:"canvas_height"`

	// MatchTolerance is the position radius, in document-space units, used
	// to associate an overlay with a deleted placeholder.
	MatchTolerance float64 `toml:"match_tolerance"`

	// CompressLevel is the zlib level for streams added to PDF output.
	CompressLevel int `toml:"compress_level"`

	// StorageQuota caps the byte size of the session store. Zero disables
	// the cap.
	StorageQuota int64 `toml:"storage_quota"`
}

// Default returns the configuration the rendering contract assumes:
// 200x50 signatures, 12pt text, an 800x600 fallback canvas and a matching
// tolerance of 5 units.
func Default() Config {
	return Config{
		SignatureWidth:  200,
		SignatureHeight: 50,
		TextFontSize:    12,
		TextFieldWidth:  150,
		TextFieldHeight: 25,
		CanvasWidth:     800,
		CanvasHeight:    600,
		MatchTolerance:  5,
		CompressLevel:   zlib.DefaultCompression,
	}
}

// Read loads the config file at the given location over the defaults.
func Read(configfile string) (Config, error) {
	c := Default()

	if _, err := os.Stat(configfile); err != nil {
		return c, fmt.Errorf("config file is missing: %s", configfile)
	}

	if _, err := toml.DecodeFile(configfile, &c); err != nil {
		return c, fmt.Errorf("config parse failed: %w", err)
	}

	if err := c.ValidateFields(); err != nil {
		return c, err
	}
	return c, nil
}

// ValidateFields validates all the fields of the config.
func (c Config) ValidateFields() error {
	if _, err := govalidator.ValidateStruct(c); err != nil {
		return err
	}
	if c.SignatureWidth <= 0 || c.SignatureHeight <= 0 {
		return fmt.Errorf("config: signature render size must be positive")
	}
	if c.TextFontSize <= 0 {
		return fmt.Errorf("config: text font size must be positive")
	}
	if c.TextFieldWidth <= 0 || c.TextFieldHeight <= 0 {
		return fmt.Errorf("config: text field size must be positive")
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("config: canvas size must be positive")
	}
	if c.MatchTolerance < 0 {
		return fmt.Errorf("config: match tolerance must not be negative")
	}
	if c.CompressLevel < zlib.HuffmanOnly || c.CompressLevel > zlib.BestCompression {
		return fmt.Errorf("config: compress level %d out of range", c.CompressLevel)
	}
	return nil
}
