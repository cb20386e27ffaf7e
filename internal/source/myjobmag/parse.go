package myjobmag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobpress-engine/internal/domain"
)

var errNoApplyLink = errors.New("job page has no apply link")

// ParseJobPage extracts a RawListing from a MyJobMag job page. resolveApply
// maps the on-site apply-now URL to the real employer apply URL; pass an
// identity function to skip resolution (tests do).
func ParseJobPage(doc *goquery.Document, base, jobURL string, resolveApply func(string) string) (domain.RawListing, error) {
	title := clean(doc.Find("h1").First().Text())

	posted := clean(doc.Find("#posted-date").First().Text())
	posted = strings.TrimSpace(strings.TrimPrefix(posted, "Posted:"))
	deadline := clean(doc.Find("div.read-date-sec-li").Not("#posted-date").First().Text())
	deadline = strings.TrimSpace(strings.TrimPrefix(deadline, "Deadline:"))

	keyInfo := parseKeyInfo(doc)

	descHTML := ""
	if sel := doc.Find("li.job-description").First(); sel.Length() > 0 {
		if h, err := sel.Html(); err == nil {
			descHTML = h
		}
	}

	applyHref, ok := doc.Find("a[href^='/apply-now/']").First().Attr("href")
	if !ok {
		return domain.RawListing{}, errNoApplyLink
	}
	applyURL := base + applyHref
	if resolveApply != nil {
		applyURL = resolveApply(applyURL)
	}

	// "Accountant at Acme Ltd" -> company
	company := ""
	if i := strings.Index(title, " at "); i > 0 {
		company = strings.TrimSpace(title[i+len(" at "):])
	}

	header := fmt.Sprintf("<p><b>Posted:</b> %s&emsp;&emsp;<b>Deadline:</b> %s</p>",
		orNotSpecified(posted), orNotSpecified(deadline))

	categories, tags := deriveTaxonomy(keyInfo)

	return domain.RawListing{
		Source:        "myjobmag",
		SourceURL:     jobURL,
		Title:         title,
		Company:       company,
		Location:      keyInfo["Location"],
		SalaryRaw:     keyInfo["Salary"],
		Description:   header + buildKeyInfoHTML(base, keyInfo) + descHTML,
		ApplyURL:      applyURL,
		PostedRaw:     posted,
		DeadlineRaw:   deadline,
		JobField:      keyInfo["Job Field"],
		Qualification: keyInfo["Qualification"],
		Categories:    categories,
		Tags:          tags,
	}, nil
}

func parseKeyInfo(doc *goquery.Document) map[string]string {
	info := map[string]string{}
	doc.Find("ul.job-key-info li").Each(func(_ int, li *goquery.Selection) {
		key := clean(li.Find("span.jkey-title").First().Text())
		val := clean(li.Find("span.jkey-info").First().Text())
		key = strings.TrimSuffix(key, ":")
		if key != "" && val != "" {
			info[key] = val
		}
	})
	return info
}

// keyInfoOrder keeps the rebuilt list deterministic across runs.
var keyInfoOrder = []string{"Job Type", "Qualification", "Experience", "Location", "Job Field", "Salary"}

// buildKeyInfoHTML rebuilds the key-info list with taxonomy links on the
// publishing site, mirroring what the source renders on its own pages.
func buildKeyInfoHTML(base string, info map[string]string) string {
	if len(info) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("<ul>")
	emit := func(key, val string) {
		b.WriteString("<li><span class='jkey-title'>" + key + ":</span> ")
		switch key {
		case "Job Type":
			b.WriteString(link(base+"/jobs-by-type/"+slugify(val), val))
		case "Location":
			b.WriteString(link(base+"/jobs-location/"+slugify(val), val))
		case "Qualification":
			b.WriteString(link(base+"/jobs-by-education/"+slugify(val), val))
		case "Experience":
			b.WriteString(link(base+"/jobs-by-experience/"+slugify(val), val))
		case "Job Field":
			fields := splitFields(val)
			links := make([]string, 0, len(fields))
			for _, f := range fields {
				links = append(links, link(base+"/jobs-by-field/"+slugify(f), f))
			}
			b.WriteString(strings.Join(links, " / "))
		default:
			b.WriteString(val)
		}
		b.WriteString("</li>")
	}

	seen := map[string]bool{}
	for _, key := range keyInfoOrder {
		if val, ok := info[key]; ok {
			emit(key, val)
			seen[key] = true
		}
	}
	for key, val := range info {
		if !seen[key] {
			emit(key, val)
		}
	}
	b.WriteString("</ul>")
	return b.String()
}

// deriveTaxonomy maps job-key info to publish-side category and tag names.
func deriveTaxonomy(info map[string]string) (categories, tags []string) {
	if v := info["Job Type"]; v != "" {
		categories = append(categories, v+" Jobs")
		tags = append(tags, v+" Jobs")
	}
	if v := info["Qualification"]; v != "" {
		tags = append(tags, v+" Jobs")
	}
	if v := info["Experience"]; v != "" {
		tags = append(tags, v+" experience Jobs")
	}
	if v := info["Location"]; v != "" {
		categories = append(categories, "Jobs in "+v)
		tags = append(tags, v+" Jobs")
	}
	if v := info["Job Field"]; v != "" {
		fields := splitFields(v)
		if len(fields) > 0 {
			categories = append(categories, fields[0]+" Jobs")
			for _, f := range fields {
				tags = append(tags, f+" Jobs")
			}
		}
	}
	return dedupe(categories), dedupe(tags)
}

func splitFields(val string) []string {
	parts := strings.Split(val, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		k := strings.ToLower(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

func slugify(text string) string {
	text = strings.ReplaceAll(text, " ", "-")
	text = strings.ReplaceAll(text, "/", "-")
	text = strings.ReplaceAll(text, ",", "")
	text = strings.ReplaceAll(text, ".", "")
	return strings.ToLower(text)
}

func link(href, text string) string {
	return "<a href='" + href + "'>" + text + "</a>"
}

func orNotSpecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}

func clean(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}
