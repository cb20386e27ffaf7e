package source

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"jobpress-engine/internal/domain"
)

// Adapter produces raw listings from one source. Adapters are restartable:
// a failed Fetch leaves no state behind and can simply be called again on
// the next run.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.RawListing, error)
}

// ErrAllAdaptersFailed is run-fatal: every adapter errored and the batch is
// empty. Partial adapter results are never fatal; the failed source's
// listings are simply absent from the batch.
var ErrAllAdaptersFailed = errors.New("all source adapters failed")

const adapterTimeout = 5 * time.Minute

// FetchAll runs every adapter concurrently with a per-adapter timeout and
// merges their listings. One adapter's failure never cancels its siblings.
func FetchAll(ctx context.Context, adapters []Adapter) ([]domain.RawListing, error) {
	if len(adapters) == 0 {
		return nil, ErrAllAdaptersFailed
	}

	type result struct {
		name     string
		listings []domain.RawListing
	}

	var g errgroup.Group
	results := make(chan result, len(adapters))
	failures := make(chan error, len(adapters))

	for _, a := range adapters {
		g.Go(func() error {
			actx, cancel := context.WithTimeout(ctx, adapterTimeout)
			defer cancel()

			log.Printf("[source:%s] fetching...", a.Name())
			listings, err := a.Fetch(actx)
			if err != nil {
				log.Printf("[source:%s] error: %v", a.Name(), err)
				failures <- err
				return nil // best-effort: don't cancel siblings
			}
			log.Printf("[source:%s] got %d listings", a.Name(), len(listings))
			results <- result{name: a.Name(), listings: listings}
			return nil
		})
	}

	_ = g.Wait()
	close(results)
	close(failures)

	var batch []domain.RawListing
	for res := range results {
		batch = append(batch, res.listings...)
	}

	var errs []error
	for err := range failures {
		errs = append(errs, err)
	}

	if len(errs) == len(adapters) && len(batch) == 0 {
		return nil, errors.Join(append([]error{ErrAllAdaptersFailed}, errs...)...)
	}
	return batch, nil
}
