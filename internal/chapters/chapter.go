// Package chapters selects and names chapters for the download and
// purchase commands.
package chapters

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/sodachi/mangetsu/internal/source"
)

type Chapter struct {
	source.Chapter
}

// Wrap lifts a fetched chapter list into the selectable form.
func Wrap(in []source.Chapter) []Chapter {
	out := make([]Chapter, len(in))
	for i, c := range in {
		out[i] = Chapter{c}
	}
	return out
}

var underscoreRun = regexp.MustCompile(`_+`)

func sanitize(s string) string {
	s = strings.ToLower(s)

	repl := []string{
		"•", "_",
		"-", "_",
		"—", "_",
		"–", "_",
		"/", "_",
		"\\", "_",
		".", "_",
		" ", "_",
		"(", "",
		")", "",
	}
	for i := 0; i < len(repl); i += 2 {
		s = strings.ReplaceAll(s, repl[i], repl[i+1])
	}

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			clean = append(clean, r)
		}
	}
	s = underscoreRun.ReplaceAllString(string(clean), "_")

	return strings.Trim(s, "_")
}

// baseName is the chapter's file-safe identity, id plus slugged title.
func (c Chapter) baseName() string {
	title := sanitize(c.Title)
	if title == "" {
		return fmt.Sprintf("c%d", c.ID)
	}
	return fmt.Sprintf("c%d_%s", c.ID, title)
}

func (c Chapter) OutputCBZ() string {
	return c.baseName() + ".cbz"
}

func (c Chapter) OutputCBZPath(out string) string {
	return filepath.Join(out, c.OutputCBZ())
}
