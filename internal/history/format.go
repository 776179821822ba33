package history

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format renders runs as aligned terminal output. top maps a run id to
// the label of its largest phase; missing ids print "-".
func Format(runs []Run, top map[int64]string) string {
	if len(runs) == 0 {
		return "phasetime history\n\n  No runs recorded. Use --record or set history.enabled.\n"
	}

	var b strings.Builder
	b.WriteString("phasetime history\n\n")
	fmt.Fprintf(&b, "  %-5s %-20s %12s %12s %12s  %-28s %s\n",
		"id", "recorded", "run time", "measured", "unaccounted", "top phase", "logs")
	for _, r := range runs {
		label := top[r.ID]
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(&b, "  %-5d %-20s %10.1f s %10.1f s %11.2f%%  %-28s %s\n",
			r.ID,
			r.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			r.TotalReportedS,
			r.TotalMeasuredS,
			r.Unaccounted*100,
			label,
			logList(r.Files),
		)
	}
	return b.String()
}

func logList(files []string) string {
	switch len(files) {
	case 0:
		return "-"
	case 1:
		return filepath.Base(files[0])
	}
	return fmt.Sprintf("%s +%d", filepath.Base(files[0]), len(files)-1)
}
