package publish

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
	"jobpress-engine/internal/domain"
	"jobpress-engine/internal/httpx"
	"jobpress-engine/internal/retry"
)

// Post is the payload shape the content-management system expects.
type Post struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Excerpt    string   `json:"excerpt"`
	Status     string   `json:"status"`
	Categories []int64  `json:"categories,omitempty"`
	Tags       []int64  `json:"tags,omitempty"`
	Meta       PostMeta `json:"meta"`
}

// PostMeta carries the listing provenance fields alongside the post.
type PostMeta struct {
	SourceURL string `json:"source_url"`
	Company   string `json:"company"`
	ApplyURL  string `json:"apply_url"`
}

// Client publishes posts to a WordPress REST v2 API with basic auth. Like the
// rewrite client it performs single attempts; retries live in the shared
// policy.
type Client struct {
	apiURL     string // .../wp-json/wp/v2
	user       string
	password   string
	httpClient *http.Client
	limiter    *httpx.HostLimiter
}

func New(cfg config.WordPressConfig, password string, limiter *httpx.HostLimiter) *Client {
	return &Client{
		apiURL:   strings.TrimRight(cfg.APIURL, "/"),
		user:     cfg.User,
		password: password,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		limiter: limiter,
	}
}

// CreatePost creates a remote post and returns its id. Any non-2xx status is
// surfaced as a StatusError so the caller can classify 401/403 vs 429/5xx.
func (c *Client) CreatePost(ctx context.Context, p Post) (domain.PublishResult, error) {
	var created struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, c.apiURL+"/posts", p, &created); err != nil {
		return domain.PublishResult{}, err
	}
	if created.ID == 0 {
		return domain.PublishResult{}, fmt.Errorf("%w: post id missing", retry.ErrMalformedResponse)
	}
	return domain.PublishResult{PostID: created.ID}, nil
}

func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	if c.limiter != nil {
		if err := c.limiter.WaitURL(ctx, url); err != nil {
			return err
		}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal publish payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(c.user, c.password)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("publish call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &retry.StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", retry.ErrMalformedResponse, err)
		}
	}
	return nil
}
