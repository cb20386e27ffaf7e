package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jobpress-engine/internal/config"
	"jobpress-engine/internal/httpx"
	"jobpress-engine/internal/retry"
)

// Client talks to an OpenAI-compatible chat-completions endpoint. It performs
// single attempts only; the orchestrator wraps calls in the shared retry
// policy.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	limiter    *httpx.HostLimiter
}

func New(cfg config.RewriteConfig, limiter *httpx.HostLimiter) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		limiter: limiter,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.WaitURL(ctx, c.endpoint); err != nil {
			return "", err
		}
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("marshal rewrite payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("rewrite call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &retry.StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", retry.ErrMalformedResponse, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", retry.ErrMalformedResponse)
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", retry.ErrMalformedResponse)
	}
	return stripCodeFence(text), nil
}

// Description rewrites a job description while preserving its HTML markup and
// the facts the verification step will check for.
func (c *Client) Description(ctx context.Context, html string, facts []string) (string, error) {
	prompt := fmt.Sprintf(`Rewrite the following job description professionally and clearly.
- Preserve all HTML tags: <p>, <b>, <ul>, <li>.
- Keep Job Type, Qualification, Experience, Location, Job Field, Posted/Deadline unchanged.
- Keep the following verbatim, character for character: %s
- Improve clarity, readability, and SEO.
- Do not add markdown, asterisks, or extra labels.

Job Description:
%s`, strings.Join(facts, "; "), html)
	return c.complete(ctx, prompt)
}

// Title rewrites a job title for SEO without changing its meaning.
func (c *Client) Title(ctx context.Context, original string) (string, error) {
	prompt := fmt.Sprintf(`Rewrite this job title for SEO without changing its core meaning.

Original Title: %s

- Keep the structure similar to a standard job posting.
- Do NOT add any marketing phrases like 'Join Our Team!', 'Apply Now!', 'Exciting Opportunity,' 'Urgent Hire,' 'We're Hiring,' or similar words in parentheses.
- Keep it concise and professional.
- The output should be the clean title, nothing more.`, original)

	title, err := c.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	for _, phrase := range []string{"(Join Our Team!)", "(Exciting Opportunity)", "(Urgent Hire)", "(Apply Now!)"} {
		title = strings.ReplaceAll(title, phrase, "")
	}
	return strings.Trim(strings.TrimSpace(title), " -"), nil
}

// Excerpt produces a meta description under 160 characters.
func (c *Client) Excerpt(ctx context.Context, original string) (string, error) {
	prompt := fmt.Sprintf(`Write a concise, factual, and SEO-friendly meta description (under 160 characters) for this job.
The description should clearly state the company, job title, and location.

Original Excerpt: %s

- Do NOT use marketing phrases like 'Join us,' 'Kickstart your career,' 'Exciting opportunity,' or calls to action like 'Apply today!'
- The output should be a simple, factual statement that a search engine can use.`, original)
	return c.complete(ctx, prompt)
}

// StandoutTips generates the "how to stand out" list appended to a post.
func (c *Client) StandoutTips(ctx context.Context, title, field, qualification string) (string, error) {
	prompt := fmt.Sprintf(`Generate 3-5 short, practical tips for applicants on how to stand out when applying for this job:

Job Title: %s
Field: %s
Qualification: %s

- Write in HTML <ul><li> format.
- Keep each tip clear and professional.
- Do not include introductions or conclusions, just the list.`, title, field, qualification)
	return c.complete(ctx, prompt)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```html")
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
