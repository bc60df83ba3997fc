package chunker

import (
	"regexp"
	"strings"
)

var (
	hyphenSplitRe   = regexp.MustCompile(`(\w)-\s*\n\s*(\w)`)
	lineBreakRe     = regexp.MustCompile(`[\r\n]+`)
	spaceRunRe      = regexp.MustCompile(`[ \t]+`)
	dashRe          = regexp.MustCompile("[–—]")
	spaceBeforeRe   = regexp.MustCompile(`\s+([!?.,;:])`)
	spaceCollapseRe = regexp.MustCompile(`\s+`)
)

const runPunct = "!?.,;:"

// Clean normalizes extracted text before chunking. Pure string
// transforms, applied in a fixed order; never fails.
func Clean(s string) string {
	s = hyphenSplitRe.ReplaceAllString(s, "$1$2")
	s = lineBreakRe.ReplaceAllString(s, " ")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = dashRe.ReplaceAllString(s, "-")
	s = collapsePunctRuns(s)
	s = spaceBeforeRe.ReplaceAllString(s, "$1")
	s = spaceCollapseRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// collapsePunctRuns reduces a run of one repeated punctuation mark to a
// single mark ("!!!" -> "!"). Mixed sequences like "?!" stay intact.
func collapsePunctRuns(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prev := rune(-1)
	for _, r := range s {
		if r == prev && strings.ContainsRune(runPunct, r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
