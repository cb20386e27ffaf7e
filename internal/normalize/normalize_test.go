package normalize

import (
	"errors"
	"strings"
	"testing"

	"jobpress-engine/internal/domain"
)

func validRaw() domain.RawListing {
	return domain.RawListing{
		Source:      "myjobmag",
		SourceURL:   "https://www.myjobmag.co.ke/job/backend-engineer-acme",
		Title:       "  Backend Engineer ",
		Company:     "Acme Ltd",
		Location:    "Nairobi, Nairobi, Kenya",
		SalaryRaw:   "KSh 100,000 – 150,000",
		Description: "<p>Build things.</p>",
		ApplyURL:    "https://careers.acme.example/jobs/42?utm_source=myjobmag#apply",
		PostedRaw:   "Posted: 29 August, 2026",
	}
}

func TestListing(t *testing.T) {
	n, err := Listing(validRaw())
	if err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if n.Title != "Backend Engineer" {
		t.Errorf("Title = %q", n.Title)
	}
	if n.Location != "Nairobi, Kenya" {
		t.Errorf("Location = %q, want duplicates collapsed", n.Location)
	}
	if n.ApplyURL != "https://careers.acme.example/jobs/42" {
		t.Errorf("ApplyURL = %q, want tracking and fragment stripped", n.ApplyURL)
	}
	if strings.Contains(n.Salary, "–") {
		t.Errorf("Salary = %q, want dash unified", n.Salary)
	}
	if n.PostedAt == nil {
		t.Fatal("PostedAt not parsed")
	}
	if got := n.PostedAt.Format("2006-01-02"); got != "2026-08-29" {
		t.Errorf("PostedAt = %s", got)
	}
}

func TestListingValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.RawListing)
		want   error
	}{
		{"no title", func(r *domain.RawListing) { r.Title = "   " }, ErrMissingTitle},
		{"no apply url", func(r *domain.RawListing) { r.ApplyURL = "" }, ErrMissingApplyURL},
		{"no source url", func(r *domain.RawListing) { r.SourceURL = "  " }, ErrMissingSource},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := validRaw()
			tc.mutate(&raw)
			_, err := Listing(raw)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestListingDeterministic(t *testing.T) {
	a, err := Listing(validRaw())
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Listing(validRaw())
	if a.Title != b.Title || a.Description != b.Description || a.ApplyURL != b.ApplyURL || a.Salary != b.Salary {
		t.Fatal("normalization is not deterministic")
	}
}

func TestCanonicalSalary(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"Not Specified", ""},
		{"N/A", ""},
		{"negotiable", ""},
		{"KSh 80,000 — 120,000", "KSh 80,000 - 120,000"},
		{"  KSh 50,000 ", "KSh 50,000"},
		{"KSh 80,000 -120,000", "KSh 80,000 - 120,000"},
		{"KSh 80,000- 120,000", "KSh 80,000 - 120,000"},
		{"salary non-negotiable", "salary non-negotiable"},
	}
	for _, tc := range cases {
		if got := CanonicalSalary(tc.in); got != tc.want {
			t.Errorf("CanonicalSalary(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParsePostedDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"29 August, 2026", "2026-08-29", true},
		{"Posted: 29 August, 2026", "2026-08-29", true},
		{"August 29, 2026", "2026-08-29", true},
		{"2026-08-29", "2026-08-29", true},
		{"Not Specified", "", false},
		{"tomorrow-ish", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParsePostedDate(tc.in)
		if ok != tc.ok {
			t.Errorf("ParsePostedDate(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && got.Format("2006-01-02") != tc.want {
			t.Errorf("ParsePostedDate(%q) = %s, want %s", tc.in, got.Format("2006-01-02"), tc.want)
		}
	}
}
