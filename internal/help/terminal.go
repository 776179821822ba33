package help

import (
	"fmt"
	"strings"
)

// term is one row of an argument, flag or command list.
type term struct {
	name, desc string
}

func (c Command) argTerms() []term {
	ts := make([]term, len(c.Args))
	for i, a := range c.Args {
		desc := a.Desc
		if a.Optional {
			desc += " (optional)"
		}
		ts[i] = term{a.Name, desc}
	}
	return ts
}

func (c Command) flagTerms() []term { return flagTerms(c.Flags) }

func flagTerms(flags []Flag) []term {
	ts := make([]term, len(flags))
	for i, f := range flags {
		ts[i] = term{f.Name, f.Desc}
	}
	return ts
}

// termList renders ts under title with every description starting at col.
func termList(title string, ts []term, col int) string {
	rows := make([]string, len(ts))
	for i, t := range ts {
		gap := max(col-2-len(t.name), 1)
		rows[i] = "  " + t.name + strings.Repeat(" ", gap) + t.desc
	}
	return title + ":\n" + strings.Join(rows, "\n")
}

// FormatTerminal renders a subcommand's --help text. Arguments and flags
// share one description column, at least 13 wide when both are present.
func FormatTerminal(c Command) string {
	args, flags := c.argTerms(), c.flagTerms()

	width := 0
	for _, t := range append(args, flags...) {
		width = max(width, len(t.name))
	}
	col := width + 5
	if len(args) > 0 && len(flags) > 0 {
		col = max(col, 13)
	}

	sections := []string{
		fmt.Sprintf("phasetime %s - %s", c.Name, c.Synopsis),
		"Usage: " + c.Usage,
	}
	if len(args) > 0 {
		sections = append(sections, termList("Arguments", args, col))
	}
	if len(flags) > 0 {
		sections = append(sections, termList("Flags", flags, col))
	}
	if c.Description != "" {
		sections = append(sections, c.Description)
	}
	if len(c.Examples) > 0 {
		sections = append(sections, "Examples:\n  "+strings.Join(c.Examples, "\n  "))
	}
	return strings.Join(sections, "\n\n") + "\n"
}

// FormatUsage renders the top-level help: one row per subcommand, then
// the environment variables phasetime reads.
func FormatUsage(top Command, subs []Command) string {
	rows := make([]term, 0, len(subs)+1)
	for _, s := range subs {
		rows = append(rows, term{s.tableUsage(), s.Brief})
	}
	rows = append(rows, term{"phasetime help [command]", "Show this help"})

	width := 0
	for _, r := range rows {
		width = max(width, len(r.name))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "phasetime v%s - %s\n\n", Version, top.Synopsis)
	b.WriteString(termList("Usage", rows, width+5))
	b.WriteString("\n\nDebug logging: PHASETIME_DEBUG=1\n")
	b.WriteString("Configuration: ~/.config/phasetime/config.toml\n")
	return b.String()
}
