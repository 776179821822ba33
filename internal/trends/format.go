package trends

import (
	"fmt"
	"strings"
)

// Format renders r as aligned terminal output. display maps a catalogue
// label to the name shown; labels missing from it are printed as is.
func Format(r Result, display func(string) string) string {
	if display == nil {
		display = func(s string) string { return s }
	}
	if r.TotalRuns == 0 {
		return "phasetime trends\n\n  No runs recorded. Use --record or set history.enabled.\n"
	}

	var b strings.Builder
	b.WriteString("phasetime trends\n")

	fmt.Fprintf(&b, "\nOverview (%d runs)\n", r.TotalRuns)
	if len(r.Phases) == 0 {
		b.WriteString("  (no phases)\n")
	}
	for _, p := range r.Phases {
		detail := ""
		if p.Direction != "stable" && p.DeltaPct != 0 {
			detail = fmt.Sprintf(" (%+.0f%%)", p.DeltaPct)
		}
		fmt.Fprintf(&b, "  %-32s %8s avg  %s %s%s\n",
			display(p.Label), percent(p.OverallAvg), directionArrow(p.Direction), p.Direction, detail)
	}

	for _, p := range r.Phases {
		if len(p.Points) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", display(p.Label))
		fmt.Fprintf(&b, "  %-5s %-16s %8s %8s\n", "run", "recorded", "share", "avg")
		for _, pt := range p.Points {
			avg := ""
			if pt.RollingAvg > 0 {
				avg = percent(pt.RollingAvg)
			}
			fmt.Fprintf(&b, "  %-5d %-16s %8s %8s%s\n",
				pt.RunID, pt.RecordedAt.Local().Format("2006-01-02 15:04"), percent(pt.Value), avg, marker(pt))
		}
	}

	var anomalies []string
	for _, p := range r.Phases {
		for _, pt := range p.Points {
			if pt.Anomaly {
				anomalies = append(anomalies, fmt.Sprintf("  run %-5d %-32s %s (avg %s)  %s",
					pt.RunID, display(p.Label), percent(pt.Value), percent(pt.RollingAvg), kind(pt)))
			}
		}
	}
	if len(anomalies) > 0 {
		b.WriteString("\nAnomalies\n")
		for _, a := range anomalies {
			b.WriteString(a)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}

func kind(p Point) string {
	if p.Value < p.RollingAvg {
		return "dip"
	}
	return "spike"
}

func marker(p Point) string {
	if !p.Anomaly {
		return ""
	}
	if kind(p) == "dip" {
		return "  v dip"
	}
	return "  ^ spike"
}

func directionArrow(dir string) string {
	switch dir {
	case "improving":
		return "↓"
	case "worsening":
		return "↑"
	default:
		return "→"
	}
}
