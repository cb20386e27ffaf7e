package publish

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// TermResolver maps category/tag names to WordPress term ids, creating
// missing terms on the fly. Resolved ids are cached for the run so a batch
// of listings sharing the same categories hits the API once per name.
type TermResolver struct {
	client *Client

	mu    sync.Mutex
	cache map[string]int64 // "<taxonomy>/<lower name>" -> id
}

func NewTermResolver(client *Client) *TermResolver {
	return &TermResolver{
		client: client,
		cache:  make(map[string]int64),
	}
}

type term struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Resolve returns the ids for the named terms in a taxonomy ("categories" or
// "tags"). Names that cannot be resolved or created are skipped rather than
// failing the publish; categories are presentation, not data integrity.
func (r *TermResolver) Resolve(ctx context.Context, taxonomy string, names []string) ([]int64, error) {
	var ids []int64
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, err := r.resolveOne(ctx, taxonomy, name)
		if err != nil {
			return ids, err
		}
		if id > 0 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *TermResolver) resolveOne(ctx context.Context, taxonomy, name string) (int64, error) {
	key := taxonomy + "/" + strings.ToLower(name)

	r.mu.Lock()
	if id, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	searchURL := fmt.Sprintf("%s/%s?search=%s", r.client.apiURL, taxonomy, url.QueryEscape(name))
	var found []term
	if err := r.client.do(ctx, "GET", searchURL, nil, &found); err != nil {
		return 0, fmt.Errorf("search %s %q: %w", taxonomy, name, err)
	}

	var id int64
	for _, t := range found {
		if strings.EqualFold(t.Name, name) {
			id = t.ID
			break
		}
	}

	if id == 0 {
		var created term
		err := r.client.do(ctx, "POST", r.client.apiURL+"/"+taxonomy, map[string]string{"name": name}, &created)
		if err != nil {
			return 0, fmt.Errorf("create %s %q: %w", taxonomy, name, err)
		}
		id = created.ID
	}

	r.mu.Lock()
	r.cache[key] = id
	r.mu.Unlock()
	return id, nil
}
