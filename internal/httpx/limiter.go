package httpx

import (
	"context"
	"net/url"
	"sort"
	"sync"

	"golang.org/x/time/rate"
)

// fallbackBucket absorbs requests whose URL has no usable host.
const fallbackBucket = "_"

// HostLimiter rate-limits outbound requests per hostname so one run stays
// polite to the source site, the rewrite API, and the publish target alike.
// Each host gets its own token bucket on first use.
type HostLimiter struct {
	perSec rate.Limit
	burst  int

	mu      sync.RWMutex
	buckets map[string]*rate.Limiter
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	return &HostLimiter{
		perSec:  rate.Limit(reqPerSec),
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

// WaitHost blocks until the host's bucket admits a request or ctx ends.
func (hl *HostLimiter) WaitHost(ctx context.Context, host string) error {
	if host == "" {
		host = fallbackBucket
	}

	hl.mu.RLock()
	lim, ok := hl.buckets[host]
	hl.mu.RUnlock()
	if !ok {
		hl.mu.Lock()
		if lim, ok = hl.buckets[host]; !ok {
			lim = rate.NewLimiter(hl.perSec, hl.burst)
			hl.buckets[host] = lim
		}
		hl.mu.Unlock()
	}
	return lim.Wait(ctx)
}

// WaitURL blocks on the bucket for the URL's host.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return hl.WaitHost(ctx, fallbackBucket)
	}
	return hl.WaitHost(ctx, u.Host)
}

// Hosts reports the hostnames throttled so far, sorted. The run summary
// logs them so a slow pass can be traced to the host that gated it.
func (hl *HostLimiter) Hosts() []string {
	hl.mu.RLock()
	defer hl.mu.RUnlock()
	hosts := make([]string, 0, len(hl.buckets))
	for h := range hl.buckets {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}
