package report

import (
	"fmt"
	"strings"

	"github.com/suykerbuyk/phasetime/internal/classify"
)

// Format renders r as the plain-text diagnostics stream. The output is
// deterministic for a given report.
func Format(r classify.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total measured time: %.3f s\n", r.TotalMeasuredS)
	fmt.Fprintf(&b, "Total time: %g s\n", r.TotalReportedS)

	pct := r.Threshold * 100

	fmt.Fprintf(&b, "\nPhases (above %.1f%%)\n", pct)
	if len(r.Important()) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, e := range r.Important() {
		rebuild := ""
		if e.Rebuild {
			rebuild = "  rebuild"
		}
		fmt.Fprintf(&b, "  %-32s %6d  %12.3f s  %8.4f%%%s\n",
			Prettify(e.Label), e.Count, e.DurationS, e.Ratio*100, rebuild)
	}

	fmt.Fprintf(&b, "\nElements in 'Other' category (<%.1f%%):\n", pct)
	for _, e := range r.Folded {
		fmt.Fprintf(&b, " - '%-30s': %.4f%%\n", Prettify(e.Label), e.Ratio*100)
	}
	other := r.Other()
	fmt.Fprintf(&b, "  %-32s %6d  %12.3f s  %8.4f%%\n",
		"total", other.Count, other.DurationS, other.Ratio*100)

	fmt.Fprintf(&b, "\nUnaccounted for: %.4f%%\n", r.Unaccounted*100)

	var skipped []string
	for _, f := range r.Files {
		if f.Skipped {
			skipped = append(skipped, fmt.Sprintf("  %s: %s\n", f.Path, f.Reason))
		}
	}
	if len(skipped) > 0 {
		fmt.Fprintf(&b, "\nSkipped logs (%d)\n", len(skipped))
		for _, s := range skipped {
			b.WriteString(s)
		}
	}

	return b.String()
}
