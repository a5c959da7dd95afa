package media

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// qualityTagRe matches resolution and codec markers plus any bracketed
	// annotation such as "[Multi-Sub]".
	qualityTagRe = regexp.MustCompile(`(?i)\b(?:4K|8K|2160p|1080p|720p|HDR10|HDR|H\.264|H\.265|HEVC)\b|\[[^\]]*\]`)

	// emptyBracketsRe removes bracket pairs left empty once tags are gone.
	emptyBracketsRe = regexp.MustCompile(`\(\s*\)|\{\s*\}`)

	// unsafePathRe matches runs of characters that are illegal in a path
	// component on at least one of the filesystems media servers sit on.
	unsafePathRe = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)
)

// titleSeparators are trimmed from both ends of a normalized title.
const titleSeparators = " -._"

// NormalizeTitle cleans a raw provider title for display: NFKC composition,
// quality tag removal, whitespace collapsing and separator trimming.
func NormalizeTitle(raw string) string {
	s := norm.NFKC.String(raw)
	s = qualityTagRe.ReplaceAllString(s, " ")
	s = emptyBracketsRe.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, titleSeparators)
}

// FSSafe makes name usable as a single path component. Illegal characters
// become "_", leading and trailing dots and spaces are trimmed, and an empty
// result is replaced by "_". FSSafe(FSSafe(x)) == FSSafe(x).
func FSSafe(name string) string {
	s := unsafePathRe.ReplaceAllString(name, "_")
	s = strings.Trim(s, " .")
	if s == "" {
		return "_"
	}
	return s
}

// Label returns "Title (Year)" or just the title when the year is unknown.
func Label(title string, year int) string {
	if year > 0 {
		return title + " (" + strconv.Itoa(year) + ")"
	}
	return title
}
