package rewrite

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jobpress-engine/internal/config"
	"jobpress-engine/internal/retry"
)

func chatServer(t *testing.T, handler func(prompt string) (status int, content string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		status, content := handler(req.Messages[0].Content)
		if status >= 400 {
			http.Error(w, "upstream says no", status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}))
}

func testClient(url string) *Client {
	return New(config.RewriteConfig{Endpoint: url, Model: "test-model", APIKey: "test-key", TimeoutSec: 5}, nil)
}

func TestDescriptionCarriesFacts(t *testing.T) {
	var seenPrompt string
	srv := chatServer(t, func(prompt string) (int, string) {
		seenPrompt = prompt
		return 200, "<p>Rewritten. Apply at https://acme.example/42. Acme Ltd.</p>"
	})
	defer srv.Close()

	got, err := testClient(srv.URL).Description(context.Background(),
		"<p>Original.</p>", []string{"Acme Ltd", "https://acme.example/42"})
	if err != nil {
		t.Fatalf("Description: %v", err)
	}
	if !strings.Contains(seenPrompt, "Acme Ltd; https://acme.example/42") {
		t.Errorf("prompt does not pin the facts:\n%s", seenPrompt)
	}
	if !strings.Contains(got, "Rewritten") {
		t.Errorf("got %q", got)
	}
}

func TestCompleteStripsCodeFence(t *testing.T) {
	srv := chatServer(t, func(string) (int, string) {
		return 200, "```html\n<p>fenced</p>\n```"
	})
	defer srv.Close()

	got, err := testClient(srv.URL).Description(context.Background(), "<p>x</p>", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "<p>fenced</p>" {
		t.Errorf("got %q, want fence stripped", got)
	}
}

func TestCompleteStatusError(t *testing.T) {
	srv := chatServer(t, func(string) (int, string) { return 429, "" })
	defer srv.Close()

	_, err := testClient(srv.URL).Description(context.Background(), "<p>x</p>", nil)
	var se *retry.StatusError
	if !errors.As(err, &se) || se.Status != 429 {
		t.Fatalf("err = %v, want StatusError 429", err)
	}
	if !retry.Retryable(err) {
		t.Error("429 should classify retryable")
	}
}

func TestCompleteMalformedResponses(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"not json", "hello"},
		{"no choices", `{"choices":[]}`},
		{"empty content", `{"choices":[{"message":{"content":"  "}}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := testClient(srv.URL).Description(context.Background(), "<p>x</p>", nil)
			if !errors.Is(err, retry.ErrMalformedResponse) {
				t.Fatalf("err = %v, want ErrMalformedResponse", err)
			}
			if retry.Retryable(err) {
				t.Error("malformed responses must be terminal")
			}
		})
	}
}

func TestTitleTrimsMarketingSuffix(t *testing.T) {
	srv := chatServer(t, func(string) (int, string) {
		return 200, "Backend Engineer (Join Our Team!) - "
	})
	defer srv.Close()

	got, err := testClient(srv.URL).Title(context.Background(), "Backend Engineer")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Backend Engineer" {
		t.Errorf("got %q", got)
	}
}

func TestStandoutTipsPrompt(t *testing.T) {
	var seenPrompt string
	srv := chatServer(t, func(prompt string) (int, string) {
		seenPrompt = prompt
		return 200, "<ul><li>Tailor your CV.</li></ul>"
	})
	defer srv.Close()

	got, err := testClient(srv.URL).StandoutTips(context.Background(), "Backend Engineer", "Engineering", "BSc")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Backend Engineer", "Engineering", "BSc"} {
		if !strings.Contains(seenPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasPrefix(got, "<ul>") {
		t.Errorf("got %q", got)
	}
}
