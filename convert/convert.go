// Package convert runs the conversion profiles: for every profile,
// every input file is normalized, recolored and rendered once per output.
package convert

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/benoitkugler/svgtopng/config"
	"github.com/benoitkugler/svgtopng/svgdoc"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"
)

// Renderer turns an SVG document into PNG bytes.
// A zero dimension means the intrinsic size of the document.
type Renderer interface {
	Render(svg []byte, width, height float64) ([]byte, error)
}

// Invocation are the parameters given on the command line.
type Invocation struct {
	ConfigPath string
	Input      string // optional, added to the inputs of every profile
	OutputDir  string // used by profiles without OutputDirectory
}

// Converter holds the services used by a run.
// Its fields are read-only once Convert is called.
type Converter struct {
	Fs       afero.Fs
	Renderer Renderer
	Log      *Reporter
	// Jobs bounds the number of files and outputs processed
	// at the same time. Defaults to runtime.NumCPU().
	Jobs int
}

// Convert loads the config and runs all its profiles.
// Only a config failure is returned as an error: other failures are
// reported and counted in the summary.
func (c *Converter) Convert(ctx context.Context, inv Invocation) (Summary, error) {
	profiles, err := config.Load(c.Fs, inv.ConfigPath)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			c.Log.Errorf("Profile config file not found: %s", inv.ConfigPath)
		} else {
			c.Log.Errorf("Invalid profile config file: %v", err)
		}
		return c.Log.Summary(), err
	}
	c.RunProfiles(ctx, profiles, inv.Input, inv.OutputDir, filepath.Dir(inv.ConfigPath))
	return c.Log.Summary(), ctx.Err()
}

// RunProfiles processes all the profiles concurrently, and returns
// when every unit is done.
func (c *Converter) RunProfiles(ctx context.Context, profiles []config.Profile, input, outputDir, baseDir string) {
	jobs := c.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	r := &run{Converter: c, sem: semaphore.NewWeighted(int64(jobs))}

	var wg sync.WaitGroup
	for i, profile := range profiles {
		wg.Add(1)
		go func(label string, p config.Profile) {
			defer wg.Done()
			r.runProfile(ctx, label, p, input, outputDir, baseDir)
		}(profile.Label(i), profile)
	}
	wg.Wait()
}

// run is the state shared by the units of one RunProfiles call.
// Only the leaf stages acquire the semaphore, so that a unit
// never holds it while waiting on its children.
type run struct {
	*Converter
	sem *semaphore.Weighted
}

// profileJob is what a file needs to know about its profile.
type profileJob struct {
	label     string
	profile   config.Profile
	outputDir string
}

// outputJob is one (file, profile, output) unit.
type outputJob struct {
	profileJob
	file     string
	baseName string
	output   config.Output
}

func (r *run) runProfile(ctx context.Context, label string, profile config.Profile, input, outputDir, baseDir string) {
	paths, err := ResolveProfilePaths(r.Fs, profile, input, outputDir, baseDir)
	if err != nil {
		r.Log.Errorf("Profile %s: %v", label, err)
		return
	}
	if len(profile.Output) == 0 {
		r.Log.Infof("Profile %s has no output", label)
		return
	}
	job := profileJob{label: label, profile: profile, outputDir: paths.OutputDir}

	var wg sync.WaitGroup
	for _, in := range paths.Inputs {
		wg.Add(1)
		go func(in string) {
			defer wg.Done()
			r.runInput(ctx, job, in)
		}(in)
	}
	wg.Wait()
}

func (r *run) runInput(ctx context.Context, job profileJob, input string) {
	files, err := listInput(r.Fs, input)
	if errors.Is(err, ErrInputNotFound) {
		r.Log.Errorf("Input path not found: %s", input)
		return
	} else if err != nil {
		r.Log.Errorf("An error occurred: %s: %v", input, err)
		return
	}

	var wg sync.WaitGroup
	for _, file := range files {
		wg.Add(1)
		go func(file string) {
			defer wg.Done()
			r.runFile(ctx, job, file)
		}(file)
	}
	wg.Wait()
}

func (r *run) runFile(ctx context.Context, job profileJob, file string) {
	svg, err := r.prepareFile(ctx, job, file)
	if err != nil {
		r.Log.unitFailed(file, err)
		return
	}

	var wg sync.WaitGroup
	for _, output := range job.profile.Output {
		wg.Add(1)
		go func(unit outputJob) {
			defer wg.Done()
			r.runOutput(ctx, unit, svg)
		}(outputJob{profileJob: job, file: file, baseName: baseName(file), output: output})
	}
	wg.Wait()
}

// prepareFile reads and normalizes `file`, applies the profile color rules
// and returns the serialized result, shared by all the outputs.
func (r *run) prepareFile(ctx context.Context, job profileJob, file string) (_ []byte, err error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)
	defer recoverUnit(&err)

	raw, err := afero.ReadFile(r.Fs, file)
	if err != nil {
		return nil, err
	}
	doc, err := svgdoc.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if err := doc.ApplyColorRules(colorRules(job.profile.ColorConversions)); err != nil {
		return nil, err
	}
	return doc.Bytes(), nil
}

func (r *run) runOutput(ctx context.Context, unit outputJob, svg []byte) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.Log.unitFailed(unit.file, err)
		return
	}
	defer r.sem.Release(1)

	if err := r.writeOutput(unit, svg); err != nil {
		r.Log.unitFailed(unit.file, err)
	}
}

func (r *run) writeOutput(unit outputJob, svg []byte) (err error) {
	defer recoverUnit(&err)

	// each output works on its own copy
	doc, err := svgdoc.ParseBytes(svg)
	if err != nil {
		return err
	}
	if err := doc.ApplyColorRules(colorRules(unit.output.ColorConversions)); err != nil {
		return err
	}

	plan, err := PlanOutput(r.Fs, unit.output, unit.baseName, unit.outputDir, unit.profile.Overwrite)
	if err != nil {
		return err
	}
	if plan.Skip {
		r.Log.fileSkipped(plan.Target)
		return nil
	}

	png, err := r.Renderer.Render(doc.Bytes(), valueOrZero(unit.output.Width), valueOrZero(unit.output.Height))
	if err != nil {
		return err
	}
	if err := afero.WriteFile(r.Fs, plan.Target, png, 0o644); err != nil {
		return err
	}
	r.Log.fileWritten(plan.Target)
	return nil
}

// recoverUnit turns a panic into the error of the unit,
// so that it does not take the other units down.
func recoverUnit(err *error) {
	if p := recover(); p != nil {
		*err = fmt.Errorf("unexpected panic: %v", p)
	}
}

func colorRules(conversions []config.ColorConversion) []svgdoc.ColorRule {
	out := make([]svgdoc.ColorRule, len(conversions))
	for i, cv := range conversions {
		out[i] = svgdoc.ColorRule{Selector: cv.XPath, Color: cv.Color}
	}
	return out
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
