package myjobmag

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const jobPageHTML = `<html><body>
<h1>Senior Accountant at Acme Ltd</h1>
<div class="read-date-sec-li" id="posted-date">Posted: 29 August, 2026</div>
<div class="read-date-sec-li">Deadline: 15 September, 2026</div>
<ul class="job-key-info">
  <li><span class="jkey-title">Job Type:</span> <span class="jkey-info">Full Time</span></li>
  <li><span class="jkey-title">Qualification:</span> <span class="jkey-info">BA/BSc/HND</span></li>
  <li><span class="jkey-title">Experience:</span> <span class="jkey-info">5 years</span></li>
  <li><span class="jkey-title">Location:</span> <span class="jkey-info">Nairobi</span></li>
  <li><span class="jkey-title">Job Field:</span> <span class="jkey-info">Finance / Accounting / Audit</span></li>
  <li><span class="jkey-title">Salary:</span> <span class="jkey-info">KSh 150,000</span></li>
</ul>
<li class="job-description">
  <p>Acme Ltd seeks a senior accountant.</p>
  <ul><li>Prepare statements</li></ul>
</li>
<a href="/apply-now/senior-accountant-acme">Apply Now</a>
</body></html>`

func parseFixture(t *testing.T) (doc *goquery.Document) {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(jobPageHTML))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestParseJobPage(t *testing.T) {
	doc := parseFixture(t)
	raw, err := ParseJobPage(doc, "https://jobs.example", "https://src.example/job/senior-accountant-acme", nil)
	if err != nil {
		t.Fatalf("ParseJobPage: %v", err)
	}

	if raw.Title != "Senior Accountant at Acme Ltd" {
		t.Errorf("Title = %q", raw.Title)
	}
	if raw.Company != "Acme Ltd" {
		t.Errorf("Company = %q", raw.Company)
	}
	if raw.Location != "Nairobi" {
		t.Errorf("Location = %q", raw.Location)
	}
	if raw.SalaryRaw != "KSh 150,000" {
		t.Errorf("SalaryRaw = %q", raw.SalaryRaw)
	}
	if raw.PostedRaw != "29 August, 2026" || raw.DeadlineRaw != "15 September, 2026" {
		t.Errorf("dates = %q / %q", raw.PostedRaw, raw.DeadlineRaw)
	}
	if raw.ApplyURL != "https://jobs.example/apply-now/senior-accountant-acme" {
		t.Errorf("ApplyURL = %q", raw.ApplyURL)
	}
	if raw.JobField != "Finance / Accounting / Audit" || raw.Qualification != "BA/BSc/HND" {
		t.Errorf("JobField = %q, Qualification = %q", raw.JobField, raw.Qualification)
	}
}

func TestParseJobPageDescription(t *testing.T) {
	doc := parseFixture(t)
	raw, err := ParseJobPage(doc, "https://jobs.example", "https://src.example/job/x", nil)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(raw.Description, "<b>Posted:</b> 29 August, 2026") ||
		!strings.Contains(raw.Description, "<b>Deadline:</b> 15 September, 2026") {
		t.Errorf("description missing date header:\n%s", raw.Description)
	}
	for _, want := range []string{
		"<a href='https://jobs.example/jobs-by-type/full-time'>Full Time</a>",
		"<a href='https://jobs.example/jobs-location/nairobi'>Nairobi</a>",
		"<a href='https://jobs.example/jobs-by-education/ba-bsc-hnd'>BA/BSc/HND</a>",
		"<a href='https://jobs.example/jobs-by-experience/5-years'>5 years</a>",
		"<a href='https://jobs.example/jobs-by-field/finance'>Finance</a>",
		"Acme Ltd seeks a senior accountant.",
	} {
		if !strings.Contains(raw.Description, want) {
			t.Errorf("description missing %q:\n%s", want, raw.Description)
		}
	}
}

func TestParseJobPageTaxonomy(t *testing.T) {
	doc := parseFixture(t)
	raw, err := ParseJobPage(doc, "https://jobs.example", "https://src.example/job/x", nil)
	if err != nil {
		t.Fatal(err)
	}

	wantCats := []string{"Full Time Jobs", "Jobs in Nairobi", "Finance Jobs"}
	if len(raw.Categories) != len(wantCats) {
		t.Fatalf("Categories = %v", raw.Categories)
	}
	for i, w := range wantCats {
		if raw.Categories[i] != w {
			t.Errorf("Categories[%d] = %q, want %q", i, raw.Categories[i], w)
		}
	}

	wantTags := []string{
		"Full Time Jobs", "BA/BSc/HND Jobs", "5 years experience Jobs",
		"Nairobi Jobs", "Finance Jobs", "Accounting Jobs", "Audit Jobs",
	}
	if len(raw.Tags) != len(wantTags) {
		t.Fatalf("Tags = %v", raw.Tags)
	}
	for i, w := range wantTags {
		if raw.Tags[i] != w {
			t.Errorf("Tags[%d] = %q, want %q", i, raw.Tags[i], w)
		}
	}
}

func TestParseJobPageResolvesApply(t *testing.T) {
	doc := parseFixture(t)
	raw, err := ParseJobPage(doc, "https://jobs.example", "https://src.example/job/x", func(u string) string {
		if u != "https://jobs.example/apply-now/senior-accountant-acme" {
			t.Errorf("resolver got %q", u)
		}
		return "https://careers.acme.example/42"
	})
	if err != nil {
		t.Fatal(err)
	}
	if raw.ApplyURL != "https://careers.acme.example/42" {
		t.Errorf("ApplyURL = %q", raw.ApplyURL)
	}
}

func TestParseJobPageNoApplyLink(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><h1>Ghost Job</h1></body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseJobPage(doc, "https://jobs.example", "https://src.example/job/x", nil); err == nil {
		t.Fatal("want error for page without apply link")
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Full Time", "full-time"},
		{"BA/BSc/HND", "ba-bsc-hnd"},
		{"Nairobi, Kenya", "nairobi-kenya"},
		{"5 yrs.", "5-yrs"},
	}
	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Errorf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
