package domain

import "time"

// RawListing is one job posting exactly as a source adapter produced it.
// Immutable once created; lives for a single pipeline pass.
type RawListing struct {
	Source      string // adapter name, e.g. "myjobmag"
	SourceURL   string // listing page on the source site
	Title       string
	Company     string
	Location    string
	SalaryRaw   string // optional, unparsed
	Description string // raw HTML or text
	ApplyURL    string
	PostedRaw   string // optional, unparsed date text
	DeadlineRaw string // optional, unparsed date text

	// Optional source metadata used for tips generation and taxonomy.
	JobField      string
	Qualification string

	// Derived by the adapter from source metadata (job type, field, etc.).
	Categories []string
	Tags       []string
}

// NormalizedListing is a RawListing after deterministic cleanup. It has no
// identity of its own; the Fingerprint is computed from it.
type NormalizedListing struct {
	Raw RawListing

	Title       string
	Company     string
	Location    string
	Description string // sanitized HTML
	Salary      string // canonicalized, "" if absent
	ApplyURL    string // canonical form
	PostedAt    *time.Time
}

// RewrittenListing carries the AI-rewritten text alongside the normalized
// listing it was derived from.
type RewrittenListing struct {
	NormalizedListing

	RewrittenTitle       string
	RewrittenDescription string
	RewrittenExcerpt     string
}

// RequiredFacts lists the strings that must survive the rewrite verbatim.
// Salary is included only when the listing has one.
func (n NormalizedListing) RequiredFacts() []string {
	facts := []string{n.Company, n.ApplyURL}
	if n.Salary != "" {
		facts = append(facts, n.Salary)
	}
	return facts
}
