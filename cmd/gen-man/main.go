// Command gen-man writes phasetime's man pages into a directory (default
// "man"). SOURCE_DATE_EPOCH, when set, fixes the page date.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/suykerbuyk/phasetime/internal/help"
)

func main() {
	dir := "man"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := generate(dir, pageDate()); err != nil {
		fmt.Fprintf(os.Stderr, "gen-man: %v\n", err)
		os.Exit(1)
	}
}

// generate writes phasetime.1 and one phasetime-<command>.1 per subcommand.
func generate(dir, date string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	pages := []struct{ name, text string }{
		{help.TopLevel.ManName(), help.FormatRoffTopLevel(help.TopLevel, help.Subcommands, date)},
	}
	for _, cmd := range help.Subcommands {
		pages = append(pages, struct{ name, text string }{cmd.ManName(), help.FormatRoff(cmd, date)})
	}

	for _, pg := range pages {
		path := filepath.Join(dir, pg.name+".1")
		if err := os.WriteFile(path, []byte(pg.text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("  %s\n", path)
	}
	return nil
}

func pageDate() string {
	t := time.Now()
	if s := os.Getenv("SOURCE_DATE_EPOCH"); s != "" {
		if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
			t = time.Unix(sec, 0)
		}
	}
	return t.UTC().Format("2006-01-02")
}
