package service

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallbackSlug is used when a title has no ASCII letters or digits at all.
const fallbackSlug = "project"

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a title into a URL-safe identifier: accents are folded
// ("Café" → "cafe"), everything is lowercased, runs of anything other than
// a-z0-9 become a single "-", and leading or trailing "-" are trimmed.
//
//	Slugify("My Cool App!!") == "my-cool-app"
func Slugify(title string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, title)
	if err != nil {
		folded = title
	}

	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(folded), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}
