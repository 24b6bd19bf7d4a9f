package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/pgdatadiff/pgdatadiff/diff/verdict"
)

// SpinnerReporter renders an animated spinner per entity on a TTY,
// replacing it with a glyphed verdict line once the comparison finishes.
type SpinnerReporter struct {
	out     io.Writer
	spinner *spinner.Spinner
}

var _ Reporter = (*SpinnerReporter)(nil)

func NewSpinnerReporter() *SpinnerReporter {
	return NewSpinnerReporterWithWriter(os.Stdout)
}

func NewSpinnerReporterWithWriter(out io.Writer) *SpinnerReporter {
	return &SpinnerReporter{
		out:     out,
		spinner: spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out)),
	}
}

func (r *SpinnerReporter) Start(label string) {
	r.spinner.Suffix = " " + label
	r.spinner.Start()
}

func (r *SpinnerReporter) Complete(res verdict.Result) {
	r.spinner.Stop()
	fmt.Fprintf(r.out, "%s %s\n", verdictGlyph(res.Verdict), res.Message)
}

func (r *SpinnerReporter) Close() {
	r.spinner.Stop()
}

func verdictGlyph(v verdict.Verdict) string {
	switch v {
	case verdict.Match:
		return "✔"
	case verdict.Mismatch:
		return "✖"
	default:
		return "⚠"
	}
}
