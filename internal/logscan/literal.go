package logscan

import (
	"regexp"
	"strconv"
)

var (
	// literalRe matches a signed integer or decimal literal, e.g. "12", "-3.5", ".25".
	literalRe = regexp.MustCompile(`[+-]?(?:[0-9]*\.)?[0-9]+`)

	// stepTagRe matches a bracketed step/rank counter followed by a space.
	stepTagRe = regexp.MustCompile(`\[[0-9]{4,}\] `)

	// clockPrefixRe matches a line that starts with a bracketed wall-clock offset.
	clockPrefixRe = regexp.MustCompile(`^\[[0-9]*\.[0-9]+\] `)

	// clockFieldRe captures the wall-clock offset of "[0000] [00123.4] ..."
	// and "[00123.4] ..." lines.
	clockFieldRe = regexp.MustCompile(`^(?:\[[0-9]{4,}\] )?\[([0-9]*\.[0-9]+)\] `)
)

// Literals returns every numeric literal in s, in order of appearance.
// Matches that do not parse as float64 are dropped.
func Literals(s string) []float64 {
	matches := literalRe.FindAllString(s, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// LastLiteral returns the last numeric literal in s.
func LastLiteral(s string) (float64, bool) {
	matches := literalRe.FindAllString(s, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if v, err := strconv.ParseFloat(matches[i], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// IsTimestamped reports whether line carries a step counter or wall-clock
// prefix, i.e. whether it is real engine output rather than batch-system noise.
func IsTimestamped(line string) bool {
	return stepTagRe.MatchString(line) || clockPrefixRe.MatchString(line)
}

// RunTimeFromLine extracts the elapsed run time in seconds from a
// timestamped line. A bracketed wall-clock offset is preferred; lines that
// only carry a step counter ("[0001] step 1 45.000000") yield the last
// literal after the counter.
func RunTimeFromLine(line string) (float64, error) {
	if m := clockFieldRe.FindStringSubmatch(line); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return v, nil
		}
	}

	loc := stepTagRe.FindStringIndex(line)
	if loc == nil {
		return 0, ErrMissingTimestamp
	}
	v, ok := LastLiteral(line[loc[1]:])
	if !ok {
		return 0, ErrNoRunTime
	}
	return v, nil
}
