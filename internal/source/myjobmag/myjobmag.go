package myjobmag

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobpress-engine/internal/config"
	"jobpress-engine/internal/domain"
	"jobpress-engine/internal/httpx"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64)"

// Adapter scrapes the MyJobMag daily listing index and the job pages behind
// it, producing one RawListing per posting.
type Adapter struct {
	cfg     config.MyJobMagConfig
	hc      *http.Client
	limiter *httpx.HostLimiter
}

func New(cfg config.MyJobMagConfig, limiter *httpx.HostLimiter) *Adapter {
	return &Adapter{
		cfg:     cfg,
		hc:      &http.Client{Timeout: 15 * time.Second},
		limiter: limiter,
	}
}

func (a *Adapter) Name() string { return "myjobmag" }

// Fetch walks the jobs-by-date/today pages until a page yields no job links
// or the page cap is reached.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.RawListing, error) {
	base := strings.TrimRight(a.cfg.BaseURL, "/")

	var out []domain.RawListing
	for page := 1; page <= a.cfg.MaxPages; page++ {
		pageURL := base + "/jobs-by-date/today"
		if page > 1 {
			pageURL = fmt.Sprintf("%s/jobs-by-date/today/%d", base, page)
		}

		doc, err := a.getDoc(ctx, pageURL)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("index page: %w", err)
			}
			break
		}

		var links []string
		doc.Find("h2 a[href^='/job/']").Each(func(_ int, s *goquery.Selection) {
			if href, ok := s.Attr("href"); ok {
				links = append(links, base+href)
			}
		})
		if len(links) == 0 {
			break
		}

		for _, link := range links {
			listing, err := a.fetchListing(ctx, base, link)
			if err != nil {
				if ctx.Err() != nil {
					return out, ctx.Err()
				}
				// one broken page must not cost the rest of the batch
				continue
			}
			out = append(out, listing)
		}
	}
	return out, nil
}

func (a *Adapter) fetchListing(ctx context.Context, base, jobURL string) (domain.RawListing, error) {
	doc, err := a.getDoc(ctx, jobURL)
	if err != nil {
		return domain.RawListing{}, err
	}
	return ParseJobPage(doc, base, jobURL, a.resolveApplyURL(ctx))
}

// resolveApplyURL follows the apply-now redirect chain to the real employer
// URL. Resolution failures fall back to the unresolved link.
func (a *Adapter) resolveApplyURL(ctx context.Context) func(string) string {
	return func(applyURL string) string {
		if a.limiter != nil {
			if err := a.limiter.WaitURL(ctx, applyURL); err != nil {
				return applyURL
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, applyURL, nil)
		if err != nil {
			return applyURL
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := a.hc.Do(req)
		if err != nil {
			return applyURL
		}
		defer resp.Body.Close()
		if resp.Request != nil && resp.Request.URL != nil {
			return resp.Request.URL.String()
		}
		return applyURL
	}
}

func (a *Adapter) getDoc(ctx context.Context, url string) (*goquery.Document, error) {
	if a.limiter != nil {
		if err := a.limiter.WaitURL(ctx, url); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}
