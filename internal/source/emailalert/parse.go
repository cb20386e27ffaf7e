package emailalert

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AlertJob is one job card extracted from an alert email body.
type AlertJob struct {
	Title    string
	Company  string
	Location string
	Salary   string
	URL      string
}

var reSalary = regexp.MustCompile(`(?:\$|KES|KSh|USD)\s?\d[\d,]*(?:K|M)?\s*(?:-\s*(?:\$|KES|KSh|USD)?\s?\d[\d,]*(?:K|M)?)?(?:\s*/\s*(?:year|month))?`)

// ParseAlertHTML extracts job cards from an alert email. Alert templates wrap
// each job in a table/row with an anchor to the job page; multiple anchors
// can point at the same job, so cards are merged by URL.
func ParseAlertHTML(htmlBody string) []AlertJob {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil
	}

	byURL := map[string]*AlertJob{}
	var order []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || !looksLikeJobLink(href) {
			return
		}
		jobURL := stripRedirect(href)
		if jobURL == "" {
			return
		}

		j, ok := byURL[jobURL]
		if !ok {
			j = &AlertJob{URL: jobURL}
			byURL[jobURL] = j
			order = append(order, jobURL)
		}

		if t := cleanText(a.Text()); betterTitle(t, j.Title) {
			j.Title = t
		}

		card := a.Closest("table")
		if card.Length() == 0 {
			card = a.Closest("tr")
		}
		if card.Length() == 0 {
			card = a.Parent()
		}

		// "Company - Location" (or the middle-dot variant) lives in a <p>
		card.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := cleanText(p.Text())
			if t == "" || j.Company != "" {
				return
			}
			for _, sep := range []string{" · ", " - "} {
				if strings.Contains(t, sep) {
					parts := strings.SplitN(t, sep, 2)
					j.Company = strings.TrimSpace(parts[0])
					j.Location = strings.TrimSpace(parts[1])
					return
				}
			}
		})

		if j.Salary == "" {
			if m := reSalary.FindString(cleanText(card.Text())); m != "" {
				j.Salary = strings.TrimSpace(m)
			}
		}
	})

	out := make([]AlertJob, 0, len(order))
	for _, u := range order {
		j := byURL[u]
		if j.Title == "" || j.URL == "" {
			continue
		}
		out = append(out, *j)
	}
	return out
}

func looksLikeJobLink(href string) bool {
	lh := strings.ToLower(href)
	return strings.Contains(lh, "/jobs/view/") ||
		strings.Contains(lh, "/job/") ||
		strings.Contains(lh, "/jobs/") && strings.Contains(lh, "view")
}

// stripRedirect unwraps tracking redirects (?url=... style) and drops
// query/fragment noise from the job link.
func stripRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	for _, key := range []string{"url", "redirect", "u"} {
		if target := u.Query().Get(key); target != "" {
			if tu, err := url.Parse(target); err == nil && tu.Host != "" {
				u = tu
				break
			}
		}
	}
	u.RawQuery = ""
	u.Fragment = ""
	if u.Host == "" {
		return ""
	}
	return u.String()
}

func betterTitle(candidate, current string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}
	l := strings.ToLower(candidate)
	if strings.Contains(l, "view job") || l == "view" || l == "apply" || strings.HasPrefix(l, "http") {
		return false
	}
	return len(candidate) > len(current)
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
