package source

import (
	"context"
	"errors"
	"sort"
	"testing"

	"jobpress-engine/internal/domain"
)

type stubAdapter struct {
	name     string
	listings []domain.RawListing
	err      error
}

func (s stubAdapter) Name() string { return s.name }

func (s stubAdapter) Fetch(ctx context.Context) ([]domain.RawListing, error) {
	return s.listings, s.err
}

func TestFetchAllMerges(t *testing.T) {
	adapters := []Adapter{
		stubAdapter{name: "a", listings: []domain.RawListing{{SourceURL: "u1"}, {SourceURL: "u2"}}},
		stubAdapter{name: "b", listings: []domain.RawListing{{SourceURL: "u3"}}},
	}
	batch, err := FetchAll(context.Background(), adapters)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(batch) != 3 {
		t.Fatalf("got %d listings", len(batch))
	}
	var urls []string
	for _, l := range batch {
		urls = append(urls, l.SourceURL)
	}
	sort.Strings(urls)
	if urls[0] != "u1" || urls[1] != "u2" || urls[2] != "u3" {
		t.Fatalf("urls = %v", urls)
	}
}

func TestFetchAllPartialFailureIsNotFatal(t *testing.T) {
	adapters := []Adapter{
		stubAdapter{name: "a", err: errors.New("imap down")},
		stubAdapter{name: "b", listings: []domain.RawListing{{SourceURL: "u1"}}},
	}
	batch, err := FetchAll(context.Background(), adapters)
	if err != nil {
		t.Fatalf("one healthy adapter must carry the run: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("got %d listings", len(batch))
	}
}

func TestFetchAllTotalFailureIsFatal(t *testing.T) {
	adapters := []Adapter{
		stubAdapter{name: "a", err: errors.New("down")},
		stubAdapter{name: "b", err: errors.New("also down")},
	}
	_, err := FetchAll(context.Background(), adapters)
	if !errors.Is(err, ErrAllAdaptersFailed) {
		t.Fatalf("err = %v, want ErrAllAdaptersFailed", err)
	}
}

func TestFetchAllNoAdapters(t *testing.T) {
	if _, err := FetchAll(context.Background(), nil); !errors.Is(err, ErrAllAdaptersFailed) {
		t.Fatalf("err = %v", err)
	}
}
