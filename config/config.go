// Package config defines the conversion profiles and loads them
// from a JSON file. Comments and trailing commas are accepted.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	"github.com/tailscale/hujson"
)

var (
	// ErrNotFound is returned when the config file does not exist.
	ErrNotFound = errors.New("profile config file not found")
	// ErrParse is returned when the config file is not a valid list of profiles.
	ErrParse = errors.New("invalid profile config file")
)

// ColorConversion sets the fill of the elements matched by XPath.
type ColorConversion struct {
	XPath string `json:"XPath"`
	Color string `json:"Color"`
}

// Output is one PNG produced for every input file.
type Output struct {
	// Path is relative to the output directory.
	// The placeholder {name} is replaced by the input base name.
	Path             string            `json:"Path"`
	ColorConversions []ColorConversion `json:"ColorConversions"`
	// Width and Height override the size of the document, in pixels.
	Width  *float64 `json:"Width"`
	Height *float64 `json:"Height"`
}

// Profile groups outputs sharing the same inputs and color conversions.
type Profile struct {
	// Name is an optional label, used in log lines.
	Name             string            `json:"Name"`
	ColorConversions []ColorConversion `json:"ColorConversions"`
	Output           []Output          `json:"Output"`
	OutputDirectory  string            `json:"OutputDirectory"`
	Input            []string          `json:"Input"`
	Overwrite        bool              `json:"Overwrite"`
}

// Label returns the profile name, or its position in the config.
func (p Profile) Label(index int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("#%d", index+1)
}

// Load reads the profiles stored in `path`.
// The returned error wraps ErrNotFound or ErrParse.
func Load(fsys afero.Fs, path string) ([]Profile, error) {
	data, err := afero.ReadFile(fsys, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return Parse(data)
}

// Parse decodes a JSON array of profiles.
func Parse(data []byte) ([]Profile, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	var profiles []Profile
	if err := json.Unmarshal(std, &profiles); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return profiles, nil
}
