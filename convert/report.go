package convert

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/benoitkugler/svgtopng/svgdoc"
)

// Summary counts the outcomes of a run.
type Summary struct {
	Written int64
	Skipped int64
	Errors  int64
}

// OK is true when no error has been reported.
func (s Summary) OK() bool { return s.Errors == 0 }

func (s Summary) String() string {
	return fmt.Sprintf("%d written, %d skipped, %d errors", s.Written, s.Skipped, s.Errors)
}

// Reporter prints one line per event and keeps the counters
// of the run. It is safe for concurrent use.
type Reporter struct {
	log     *log.Logger
	verbose bool

	written, skipped, failures atomic.Int64
}

// NewReporter writes to `w`. In verbose mode, every written file
// is also reported.
func NewReporter(w io.Writer, verbose bool) *Reporter {
	return &Reporter{log: log.New(w, "", 0), verbose: verbose}
}

func (r *Reporter) Infof(format string, args ...interface{}) {
	r.log.Printf("[INFO]: "+format, args...)
}

func (r *Reporter) Errorf(format string, args ...interface{}) {
	r.failures.Add(1)
	r.log.Printf("[ERROR]: "+format, args...)
}

func (r *Reporter) fileWritten(path string) {
	r.written.Add(1)
	if r.verbose {
		r.Infof("Written: %s", path)
	}
}

func (r *Reporter) fileSkipped(path string) {
	r.skipped.Add(1)
	r.Infof("Skipping existing file: %s", path)
}

// unitFailed prints the line matching the kind of `err`.
func (r *Reporter) unitFailed(file string, err error) {
	var selErr *svgdoc.SelectorError
	switch {
	case errors.As(err, &selErr):
		r.Errorf("Invalid XPath: %s (%s)", selErr.Selector, file)
	case errors.Is(err, svgdoc.ErrMalformedDocument):
		r.Errorf("Invalid svg file: %s (%v)", file, err)
	default:
		r.Errorf("An error occurred: %s: %v", file, err)
	}
}

// Summary returns the counters at the time of the call.
func (r *Reporter) Summary() Summary {
	return Summary{
		Written: r.written.Load(),
		Skipped: r.skipped.Load(),
		Errors:  r.failures.Load(),
	}
}
