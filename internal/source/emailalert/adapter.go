package emailalert

import (
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-imap/v2"

	"jobpress-engine/internal/config"
	"jobpress-engine/internal/domain"
)

const maxMessagesPerRun = 200

// Adapter ingests job-alert emails over IMAP: unseen messages matching the
// configured subjects are parsed for job cards, and only a fully successful
// pass marks them \Seen.
type Adapter struct {
	cfg      config.EmailConfig
	password string
}

func New(cfg config.EmailConfig, password string) *Adapter {
	return &Adapter{cfg: cfg, password: password}
}

func (a *Adapter) Name() string { return "email" }

func (a *Adapter) Fetch(ctx context.Context) ([]domain.RawListing, error) {
	addr := a.cfg.IMAPHost
	if !strings.Contains(addr, ":") {
		port := a.cfg.IMAPPort
		if port == 0 {
			port = 993
		}
		addr = fmt.Sprintf("%s:%d", addr, port)
	}

	c, err := dialAndLogin(ctx, addr, a.cfg.Username, a.password)
	if err != nil {
		return nil, err
	}
	defer logoutAndClose(c)

	if _, err := c.Select(a.cfg.Mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %q: %w", a.cfg.Mailbox, err)
	}

	msgs, err := fetchUnseen(ctx, c, maxMessagesPerRun)
	if err != nil {
		return nil, err
	}

	var (
		out       []domain.RawListing
		processed []imap.UID
	)
	for _, m := range msgs {
		if len(a.cfg.SearchSubjectAny) > 0 && !containsAnyCI(m.Subject, a.cfg.SearchSubjectAny) {
			processed = append(processed, m.UID)
			continue
		}

		htmlBody := extractHTMLBody(m.Raw)
		if htmlBody == "" {
			processed = append(processed, m.UID)
			continue
		}

		jobs := ParseAlertHTML(htmlBody)
		for _, j := range jobs {
			out = append(out, domain.RawListing{
				Source:      "email",
				SourceURL:   j.URL,
				Title:       j.Title,
				Company:     j.Company,
				Location:    j.Location,
				SalaryRaw:   j.Salary,
				Description: alertDescription(m.Subject, m.From, j),
				ApplyURL:    j.URL,
				PostedRaw:   m.Date.Format("2006-01-02"),
			})
		}
		processed = append(processed, m.UID)
	}

	if err := markSeen(c, processed); err != nil {
		// listings are already extracted; a re-read next run only costs
		// duplicate skips downstream
		return out, nil
	}
	return out, nil
}

func alertDescription(subject, from string, j AlertJob) string {
	parts := []string{subject, from, j.Company + " - " + j.Location}
	if j.Salary != "" {
		parts = append(parts, j.Salary)
	}
	parts = append(parts, j.URL)
	return "<p>" + strings.Join(parts, "</p><p>") + "</p>"
}

func containsAnyCI(s string, needles []string) bool {
	ls := strings.ToLower(s)
	for _, n := range needles {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" && strings.Contains(ls, n) {
			return true
		}
	}
	return false
}
