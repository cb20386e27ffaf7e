package normalize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// junkSelectors are source-site artifacts that must never reach a published
// post: ad boxes, subscription forms, and on-site CV upsell links.
var junkSelectors = []string{
	"script",
	"style",
	"iframe",
	"form",
	"#adbox",
	"#read-in-ad",
	"a.view-all2",
	"a[href^='/cv']",
	"ul.job-key-info",
}

// SanitizeHTML strips scripts, forms, ads, and source-site navigation from a
// description fragment while preserving the content markup (<p>, <b>, <ul>,
// <li>, headings). Plain text passes through with whitespace cleanup.
func SanitizeHTML(fragment string) (string, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return "", nil
	}
	if !strings.Contains(fragment, "<") {
		return CleanText(fragment), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	body := doc.Find("body")
	for _, sel := range junkSelectors {
		body.Find(sel).Remove()
	}

	// boilerplate paragraphs the source injects into every listing
	body.Find("p").Each(func(_ int, p *goquery.Selection) {
		if strings.Contains(p.Text(), "Never pay for any CBT") {
			p.Remove()
		}
	})

	// drop anchors left empty after junk removal, keep their text siblings
	body.Find("a").Each(func(_ int, a *goquery.Selection) {
		if CleanText(a.Text()) == "" {
			a.Remove()
		}
	})

	html, err := body.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(html), nil
}

// TextContent returns the plain text of an HTML fragment, used for fact
// checks against rewritten output.
func TextContent(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CleanText(fragment)
	}
	return CleanText(doc.Text())
}
