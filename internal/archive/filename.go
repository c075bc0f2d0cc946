package archive

import (
	"regexp"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/cardscan/internal/models"
)

const maxNameLength = 40

var (
	// Latin letters, digits, the Arabic block, whitespace and hyphen survive.
	disallowedChars = regexp.MustCompile(`[^a-zA-Z0-9\x{0600}-\x{06FF}\s-]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// Filename builds the archive name for a card image:
// bcard-<name>-<timestamp>.<ext>
func Filename(card models.CardRecord, mimeType string, now time.Time) string {
	name := "unknown"
	switch {
	case card.FullName != "" && card.FullName != models.Null:
		name = card.FullName
	case card.CompanyName != "" && card.CompanyName != models.Null:
		name = card.CompanyName
	}

	safe := SanitizeName(name)
	if safe == "" {
		safe = "unknown"
	}

	return "bcard-" + safe + "-" + timestamp(now) + "." + Extension(mimeType)
}

// SanitizeName strips characters unsafe for storage object names, turns
// whitespace runs into hyphens and truncates to 40 characters.
func SanitizeName(name string) string {
	name = disallowedChars.ReplaceAllString(name, "")
	name = whitespaceRuns.ReplaceAllString(name, "-")
	r := []rune(name)
	if len(r) > maxNameLength {
		r = r[:maxNameLength]
	}
	return string(r)
}

// Extension derives a file extension from a MIME type: the subtype before
// any "+" suffix, or "jpg" when there is none.
func Extension(mimeType string) string {
	_, subtype, ok := strings.Cut(mimeType, "/")
	if !ok {
		return "jpg"
	}
	subtype, _, _ = strings.Cut(subtype, "+")
	subtype, _, _ = strings.Cut(subtype, ";")
	subtype = strings.TrimSpace(subtype)
	if subtype == "" {
		return "jpg"
	}
	return subtype
}

func timestamp(now time.Time) string {
	ts := now.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(ts)
}
