package rewrite

import "strings"

// MissingFacts reports which required facts are absent from the rewritten
// text. Matching is case-insensitive, whitespace-folded containment: the
// model may re-flow the HTML but must not drop the apply URL, company, or
// salary. A non-empty result means the listing fails with fact-loss and is
// never published with degraded content.
func MissingFacts(text string, facts []string) []string {
	haystack := fold(text)
	var missing []string
	for _, f := range facts {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if !strings.Contains(haystack, fold(f)) {
			missing = append(missing, f)
		}
	}
	return missing
}

func fold(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToLower(s)
}
