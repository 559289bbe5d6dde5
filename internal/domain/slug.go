package domain

import (
	"regexp"
	"strings"
)

var (
	slugStripRe    = regexp.MustCompile(`[^\w\s-]`) // drop anything but word chars, spaces, hyphens
	slugSeparatorRe = regexp.MustCompile(`[\s_-]+`) // runs of spaces/underscores/hyphens become one hyphen
	slugTrimRe     = regexp.MustCompile(`^-+|-+$`)
)

// Slugify derives the URL slug for a category name. The transformation is
// deterministic: "Home & Garden!!" always yields "home-garden".
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugSeparatorRe.ReplaceAllString(s, "-")
	return slugTrimRe.ReplaceAllString(s, "")
}
