package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"jobpress-engine/internal/domain"
)

var rangeDash = regexp.MustCompile(`\s+-\s*|\s*-\s+`)

// Validation errors for listings that can never be published. A listing
// failing here is never reserved, so a corrected re-sighting still succeeds.
var (
	ErrMissingTitle    = errors.New("listing has no title")
	ErrMissingApplyURL = errors.New("listing has no apply url")
	ErrMissingSource   = errors.New("listing has no source url")
)

// Listing derives a NormalizedListing from a RawListing. The transform is
// deterministic: the same raw input always yields the same output.
func Listing(raw domain.RawListing) (domain.NormalizedListing, error) {
	title := CleanText(raw.Title)
	if title == "" {
		return domain.NormalizedListing{}, ErrMissingTitle
	}
	if strings.TrimSpace(raw.SourceURL) == "" {
		return domain.NormalizedListing{}, ErrMissingSource
	}

	applyURL := CanonicalURL(raw.ApplyURL)
	if applyURL == "" {
		return domain.NormalizedListing{}, ErrMissingApplyURL
	}

	desc, err := SanitizeHTML(raw.Description)
	if err != nil {
		return domain.NormalizedListing{}, fmt.Errorf("sanitize description: %w", err)
	}

	n := domain.NormalizedListing{
		Raw:         raw,
		Title:       title,
		Company:     CleanText(raw.Company),
		Location:    CleanLocation(raw.Location),
		Description: desc,
		Salary:      CanonicalSalary(raw.SalaryRaw),
		ApplyURL:    applyURL,
	}
	if t, ok := ParsePostedDate(raw.PostedRaw); ok {
		n.PostedAt = &t
	}
	return n, nil
}

// CleanText collapses whitespace runs and non-breaking spaces.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// CleanLocation strips labels and de-duplicates comma-separated segments.
func CleanLocation(loc string) string {
	loc = CleanText(loc)
	if loc == "" {
		return ""
	}

	loc = strings.TrimPrefix(loc, "Location:")
	loc = strings.TrimPrefix(loc, "LOCATIONS:")
	loc = strings.TrimSpace(loc)

	parts := strings.Split(loc, ",")
	seen := map[string]bool{}
	var out []string
	for _, p := range parts {
		p = CleanText(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

// CanonicalSalary produces a stable representation of free-form salary text.
// Returns "" for absent or placeholder values.
func CanonicalSalary(s string) string {
	s = CleanText(s)
	if s == "" {
		return ""
	}
	low := strings.ToLower(s)
	switch low {
	case "not specified", "n/a", "negotiable", "confidential", "-":
		return ""
	}
	// unify dash variants so containment checks survive rewrites
	s = strings.ReplaceAll(s, "–", "-")
	s = strings.ReplaceAll(s, "—", "-")
	// a dash with whitespace on either side is a range separator;
	// unspaced dashes ("non-negotiable") are left alone
	s = rangeDash.ReplaceAllString(s, " - ")
	return s
}

// postedDateLayouts covers the formats myjobmag and the email alerts emit.
var postedDateLayouts = []string{
	"2 January, 2006",
	"2 January 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2006-01-02",
	time.RFC3339,
}

// ParsePostedDate attempts to parse free-form posted-date text. The bool is
// false when the text is absent or unparseable; callers keep a null date.
func ParsePostedDate(s string) (time.Time, bool) {
	s = CleanText(s)
	s = strings.TrimPrefix(s, "Posted:")
	s = CleanText(s)
	if s == "" || strings.EqualFold(s, "not specified") {
		return time.Time{}, false
	}
	for _, layout := range postedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
