package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/benoitkugler/svgtopng/config"
	"github.com/spf13/afero"
)

// NamePlaceholder is replaced by the input base name in output paths.
const NamePlaceholder = "{name}"

var errEmptyPath = errors.New("empty output path")

// Plan is the destination of one output.
type Plan struct {
	Target string
	Skip   bool // the target exists and must not be overwritten
}

// PlanOutput computes the target of `output` for the input named `baseName`.
// Unless the target is skipped, its parent directory is created.
func PlanOutput(fsys afero.Fs, output config.Output, baseName, outputDir string, overwrite bool) (Plan, error) {
	if output.Path == "" {
		return Plan{}, errEmptyPath
	}
	plan := Plan{Target: filepath.Join(outputDir, strings.ReplaceAll(output.Path, NamePlaceholder, baseName))}
	if !overwrite {
		exists, err := afero.Exists(fsys, plan.Target)
		if err != nil {
			return plan, err
		}
		if exists {
			plan.Skip = true
			return plan, nil
		}
	}
	if err := fsys.MkdirAll(filepath.Dir(plan.Target), 0o755); err != nil {
		return plan, fmt.Errorf("creating directory for %s: %w", plan.Target, err)
	}
	return plan, nil
}
