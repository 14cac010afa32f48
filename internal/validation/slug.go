// Package validation checks user supplied identifiers and form input.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var leagueSlugRegex = regexp.MustCompile(`^[a-z0-9-]{3,48}$`)

var reservedLeagueSlugs = map[string]struct{}{
	"admin":         {},
	"api":           {},
	"auth":          {},
	"charters":      {},
	"charter-types": {},
	"health":        {},
	"leagues":       {},
	"login":         {},
	"metrics":       {},
	"users":         {},
}

// MaxCharterNameLength bounds charter names accepted from forms.
const MaxCharterNameLength = 255

// MaxLeagueNameLength matches the leagues.name column.
const MaxLeagueNameLength = 120

// ValidateLeagueSlug validates league slug format and reserved names.
func ValidateLeagueSlug(slug string) error {
	if !leagueSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 3-48 characters and contain only lowercase letters, numbers, and hyphens")
	}

	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("slug cannot start or end with a hyphen")
	}

	if _, exists := reservedLeagueSlugs[slug]; exists {
		return fmt.Errorf("slug is reserved")
	}

	return nil
}

// ValidateCharterName rejects names that cannot produce a slug.
func ValidateCharterName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > MaxCharterNameLength {
		return fmt.Errorf("name may not be greater than %d characters", MaxCharterNameLength)
	}
	if Slugify(name) == "" {
		return fmt.Errorf("name must contain at least one letter or number")
	}
	return nil
}

// ValidateLeagueName rejects empty and overlong league names.
func ValidateLeagueName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > MaxLeagueNameLength {
		return fmt.Errorf("name may not be greater than %d characters", MaxLeagueNameLength)
	}
	return nil
}

// ParseActiveFrom accepts an RFC 3339 timestamp or a plain date. An empty
// string yields nil.
func ParseActiveFrom(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("active from is not a valid date")
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of other characters into one hyphen.
func Slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}
