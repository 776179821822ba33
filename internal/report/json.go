package report

import (
	json "github.com/goccy/go-json"

	"github.com/suykerbuyk/phasetime/internal/classify"
)

// Document is the JSON form of a report.
type Document struct {
	Threshold      float64    `json:"threshold"`
	TotalMeasuredS float64    `json:"total_measured_s"`
	TotalReportedS float64    `json:"total_reported_s"`
	Unaccounted    float64    `json:"unaccounted"`
	Phases         []PhaseDoc `json:"phases"`
	Other          OtherDoc   `json:"other"`
	Files          []FileDoc  `json:"files"`
}

// PhaseDoc is one ranked phase.
type PhaseDoc struct {
	Label     string  `json:"label"`
	Display   string  `json:"display"`
	Count     int     `json:"count"`
	DurationS float64 `json:"duration_s"`
	Ratio     float64 `json:"ratio"`
	Rebuild   bool    `json:"rebuild"`
}

// OtherDoc is the Other bucket together with the phases folded into it.
type OtherDoc struct {
	Display   string     `json:"display"`
	Count     int        `json:"count"`
	DurationS float64    `json:"duration_s"`
	Ratio     float64    `json:"ratio"`
	Folded    []PhaseDoc `json:"folded"`
}

// FileDoc is one input log.
type FileDoc struct {
	Path     string  `json:"path"`
	RunTimeS float64 `json:"run_time_s"`
	Matched  int     `json:"matched"`
	Unparsed int     `json:"unparsed"`
	Skipped  bool    `json:"skipped,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

// NewDocument converts r into its JSON form.
func NewDocument(r classify.Report) Document {
	other := r.Other()
	d := Document{
		Threshold:      r.Threshold,
		TotalMeasuredS: r.TotalMeasuredS,
		TotalReportedS: r.TotalReportedS,
		Unaccounted:    r.Unaccounted,
		Phases:         phaseDocs(r.Important()),
		Other: OtherDoc{
			Display:   OtherLabel(r.Threshold),
			Count:     other.Count,
			DurationS: other.DurationS,
			Ratio:     other.Ratio,
			Folded:    phaseDocs(r.Folded),
		},
		Files: make([]FileDoc, len(r.Files)),
	}
	for i, f := range r.Files {
		d.Files[i] = FileDoc{
			Path:     f.Path,
			RunTimeS: f.RunTimeS,
			Matched:  f.Matched,
			Unparsed: f.Unparsed,
			Skipped:  f.Skipped,
			Reason:   f.Reason,
		}
	}
	return d
}

func phaseDocs(entries []classify.Entry) []PhaseDoc {
	out := make([]PhaseDoc, len(entries))
	for i, e := range entries {
		out[i] = PhaseDoc{
			Label:     e.Label,
			Display:   Prettify(e.Label),
			Count:     e.Count,
			DurationS: e.DurationS,
			Ratio:     e.Ratio,
			Rebuild:   e.Rebuild,
		}
	}
	return out
}

// JSON renders r as indented JSON with a trailing newline.
func JSON(r classify.Report) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(r), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
