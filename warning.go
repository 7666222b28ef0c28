package pdfmin

import (
	"fmt"
	"strings"

	"github.com/tsawler/pdfmin/core"
	"github.com/tsawler/pdfmin/downscale"
)

// Warning describes an image that was left unchanged for a reason worth
// reporting.
type Warning struct {
	Ref     core.IndirectRef
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("image %s: %s", w.Ref, w.Message)
}

// FormatWarnings joins warnings into a single string, one per line.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}

// warningsFromReport converts skips and failures to warnings. Images
// already at the target resolution are not reported.
func warningsFromReport(report *downscale.Report) []Warning {
	if report == nil {
		return nil
	}

	var warnings []Warning
	for _, s := range report.Skipped {
		if s.Reason == downscale.SkipAtTarget {
			continue
		}
		msg := string(s.Reason)
		if s.Err != nil {
			msg += ": " + s.Err.Error()
		}
		warnings = append(warnings, Warning{Ref: s.Ref, Message: msg})
	}
	for _, f := range report.Failures {
		warnings = append(warnings, Warning{Ref: f.Ref, Message: f.Err.Error()})
	}
	return warnings
}
