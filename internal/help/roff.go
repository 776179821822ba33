package help

import (
	"fmt"
	"strings"
	"time"
)

// page accumulates one man page in section 1.
type page struct {
	b strings.Builder
}

// newPage writes the .TH header. An empty date means today; pass a fixed
// date for reproducible builds.
func newPage(name, date string) *page {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	p := &page{}
	fmt.Fprintf(&p.b, ".TH %s 1 %q %q %q\n",
		strings.ToUpper(name), date, "phasetime "+Version, "Phasetime Manual")
	return p
}

func (p *page) section(title string) {
	p.b.WriteString(".SH " + title + "\n")
}

func (p *page) line(s string) {
	p.b.WriteString(s + "\n")
}

// paragraphs writes prose; runs of blank lines become one .PP break.
func (p *page) paragraphs(text string) {
	prevBlank := false
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if !prevBlank {
				p.line(".PP")
			}
			prevBlank = true
			continue
		}
		prevBlank = false
		p.line(escapeRoff(line))
	}
}

// terms writes a tagged list, one .TP entry per term.
func (p *page) terms(ts []term) {
	for _, t := range ts {
		fmt.Fprintf(&p.b, ".TP\n.B \"%s\"\n%s\n", escapeRoff(t.name), escapeRoff(t.desc))
	}
}

// literal writes lines without filling.
func (p *page) literal(lines []string) {
	p.line(".nf")
	for _, l := range lines {
		p.line(escapeRoff(l))
	}
	p.line(".fi")
}

func (p *page) seeAlso(refs []string) {
	if len(refs) == 0 {
		return
	}
	p.section("SEE ALSO")
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = formatManRef(ref)
	}
	p.line(strings.Join(out, ",\n"))
}

func (p *page) String() string { return p.b.String() }

// FormatRoff renders a subcommand as a man page.
func FormatRoff(c Command, date string) string {
	p := newPage(c.ManName(), date)

	p.section("NAME")
	p.line(c.ManName() + ` \- ` + escapeRoff(c.Synopsis))
	p.section("SYNOPSIS")
	p.line(".B " + escapeRoff(c.Usage))

	if c.Description != "" {
		p.section("DESCRIPTION")
		p.paragraphs(c.Description)
	}
	if opts := append(c.argTerms(), c.flagTerms()...); len(opts) > 0 {
		p.section("OPTIONS")
		p.terms(opts)
	}
	if len(c.Examples) > 0 {
		p.section("EXAMPLES")
		p.literal(c.Examples)
	}
	p.seeAlso(c.SeeAlso)
	return p.String()
}

// FormatRoffTopLevel renders phasetime.1: the command table plus the
// files and environment read by every command.
func FormatRoffTopLevel(top Command, subs []Command, date string) string {
	p := newPage(top.ManName(), date)

	p.section("NAME")
	p.line(`phasetime \- ` + escapeRoff(top.Synopsis))
	p.section("SYNOPSIS")
	p.line(".B phasetime\n.RI [ command ]\n.RI [ options ]\n.IR log ...")

	p.section("DESCRIPTION")
	p.paragraphs(top.Description)

	cmds := make([]term, len(subs))
	refs := make([]string, len(subs))
	for i, s := range subs {
		cmds[i] = term{s.tableUsage(), s.Brief}
		refs[i] = s.ManName() + "(1)"
	}
	p.section("COMMANDS")
	p.terms(cmds)

	if len(top.Files) > 0 {
		p.section("FILES")
		p.terms(flagTerms(top.Files))
	}
	if len(top.Env) > 0 {
		p.section("ENVIRONMENT")
		p.terms(flagTerms(top.Env))
	}
	p.seeAlso(refs)
	return p.String()
}

// escapeRoff escapes backslashes, leading dots and hyphens. Hyphens become
// \- so flags render as minus signs.
func escapeRoff(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n.", "\n\\&.")
	if strings.HasPrefix(s, ".") {
		s = `\&` + s
	}
	return strings.ReplaceAll(s, "-", `\-`)
}

// formatManRef turns "phasetime-check(1)" into ".BR phasetime\-check (1)".
func formatManRef(ref string) string {
	name, section, ok := strings.Cut(ref, "(")
	if !ok {
		return ".B " + escapeRoff(ref)
	}
	return fmt.Sprintf(".BR %s (%s", escapeRoff(name), section)
}
