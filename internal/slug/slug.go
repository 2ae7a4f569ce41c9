// Package slug derives URL-safe identifiers from post titles.
package slug

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TakenFunc reports whether candidate is already held by another alive post.
type TakenFunc func(ctx context.Context, candidate string) (bool, error)

// Normalize lower-cases title, folds accented letters to ASCII, turns whitespace,
// hyphens and underscores into single hyphens and drops every other character.
// The result may be empty.
func Normalize(title string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == '-' || r == '_' || unicode.IsSpace(r):
			pendingSep = true
		}
	}
	return b.String()
}

// Generate returns the first free candidate among base, base-1, base-2, ...
// where base is Normalize(title). An empty base is probed and suffixed like any other.
func Generate(ctx context.Context, title string, taken TakenFunc) (string, error) {
	base := Normalize(title)
	candidate := base

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}

		candidate = base + "-" + strconv.Itoa(n)
	}
}
