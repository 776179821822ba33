// Package phase holds the catalogue of timed execution phases that the
// log scanner looks for. A catalogue is immutable once built and is passed
// explicitly to every stage that needs it.
package phase

import (
	"errors"
	"fmt"
	"strings"
)

// Marker is the text that follows a phase label on a completion line,
// e.g. "space_rebuild: took 12.3 ms".
const Marker = " took"

var (
	ErrEmptyCatalogue = errors.New("phase catalogue is empty")
	ErrDuplicateLabel = errors.New("duplicate phase label")
	ErrEmptyLabel     = errors.New("empty phase label")
)

// Definition names one phase of interest.
type Definition struct {
	Label   string `toml:"label" yaml:"label" json:"label"`
	Rebuild bool   `toml:"rebuild" yaml:"rebuild" json:"rebuild"`
}

// Catalogue is an ordered, immutable set of phase match rules.
// Rules are evaluated in order and the first match wins, so a line is
// attributed to at most one phase.
type Catalogue struct {
	defs    []Definition
	markers []string
}

// New validates defs and compiles them into a Catalogue.
func New(defs []Definition) (*Catalogue, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyCatalogue
	}

	seen := make(map[string]bool, len(defs))
	c := &Catalogue{
		defs:    make([]Definition, len(defs)),
		markers: make([]string, len(defs)),
	}
	for i, d := range defs {
		if strings.TrimSpace(d.Label) == "" {
			return nil, fmt.Errorf("phase %d: %w", i, ErrEmptyLabel)
		}
		if seen[d.Label] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, d.Label)
		}
		seen[d.Label] = true
		c.defs[i] = d
		c.markers[i] = d.Label + Marker
	}
	return c, nil
}

// MustNew is like New but panics on an invalid catalogue.
func MustNew(defs []Definition) *Catalogue {
	c, err := New(defs)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of phases.
func (c *Catalogue) Len() int { return len(c.defs) }

// At returns the i-th phase definition.
func (c *Catalogue) At(i int) Definition { return c.defs[i] }

// Definitions returns a copy of the phase definitions in catalogue order.
func (c *Catalogue) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Match returns the index of the first phase whose completion marker
// ("<label> took") occurs in line.
func (c *Catalogue) Match(line string) (int, bool) {
	if !strings.Contains(line, Marker) {
		return 0, false
	}
	for i, m := range c.markers {
		if strings.Contains(line, m) {
			return i, true
		}
	}
	return 0, false
}

// Default returns the reference catalogue of SWIFT engine phases.
func Default() *Catalogue {
	return MustNew(defaultPhases)
}

var defaultPhases = []Definition{
	{Label: "Gpart assignment", Rebuild: true},
	{Label: "Mesh comunication", Rebuild: true},
	{Label: "Forward Fourier transform", Rebuild: true},
	{Label: "Green function", Rebuild: true},
	{Label: "Backwards Fourier transform", Rebuild: true},
	{Label: "Making gravity tasks", Rebuild: true},
	{Label: "Splitting tasks", Rebuild: true},
	{Label: "Counting and linking tasks", Rebuild: true},
	{Label: "Setting super-pointers", Rebuild: true},
	{Label: "Linking gravity tasks", Rebuild: true},
	{Label: "Creating send tasks", Rebuild: true},
	{Label: "Exchanging cell tags", Rebuild: true},
	{Label: "Creating recv tasks", Rebuild: true},
	{Label: "Setting unlocks", Rebuild: true},
	{Label: "Ranking the tasks", Rebuild: true},
	{Label: "scheduler_reweight:", Rebuild: true},
	{Label: "space_rebuild:", Rebuild: true},
	{Label: "engine_drift_all:", Rebuild: false},
	{Label: "engine_unskip:", Rebuild: false},
	{Label: "engine_collect_end_of_step:", Rebuild: false},
	{Label: "engine_launch:", Rebuild: false},
	{Label: "writing particle properties", Rebuild: false},
	{Label: "engine_repartition:", Rebuild: false},
	{Label: "engine_exchange_cells:", Rebuild: true},
	{Label: "Dumping restart files", Rebuild: false},
	{Label: "engine_print_stats:", Rebuild: false},
	{Label: "engine_marktasks:", Rebuild: true},
}
