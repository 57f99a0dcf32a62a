package convert

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/benoitkugler/svgtopng/config"
	"github.com/spf13/afero"
)

// ErrInputNotFound is returned for an input which is neither
// a file nor a directory.
var ErrInputNotFound = errors.New("input path not found")

var (
	errNoOutputDir = errors.New("no output directory")
	errNoInput     = errors.New("no input")
)

// Paths are the effective locations of a profile.
type Paths struct {
	Inputs    []string
	OutputDir string
}

func resolve(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResolveProfilePaths computes the inputs and the output directory of `profile`,
// relative paths being resolved against `baseDir`, the directory of the config file.
// The invocation `input`, if any, is appended to the profile inputs, and
// `outputDir` is used when the profile does not define its own directory.
// The output directory is created if needed.
func ResolveProfilePaths(fsys afero.Fs, profile config.Profile, input, outputDir, baseDir string) (Paths, error) {
	var out Paths
	for _, in := range profile.Input {
		out.Inputs = append(out.Inputs, resolve(baseDir, in))
	}
	if input != "" {
		out.Inputs = append(out.Inputs, input)
	}
	if len(out.Inputs) == 0 {
		return out, errNoInput
	}

	out.OutputDir = outputDir
	if profile.OutputDirectory != "" {
		out.OutputDir = resolve(baseDir, profile.OutputDirectory)
	}
	if out.OutputDir == "" {
		return out, errNoOutputDir
	}
	if err := fsys.MkdirAll(out.OutputDir, 0o755); err != nil {
		return out, fmt.Errorf("creating output directory: %w", err)
	}
	return out, nil
}

// listInput returns the SVG files designated by `path`:
// the file itself, or the *.svg files directly contained in the directory,
// sorted by name.
func listInput(fsys afero.Fs, path string) ([]string, error) {
	info, err := fsys.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	} else if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := afero.ReadDir(fsys, path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".svg") {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	return files, nil
}

// baseName is the file name without its extension.
func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
