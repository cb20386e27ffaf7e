package httpx

import (
	"context"
	"testing"
	"time"
)

func TestWaitURLSeparatesHosts(t *testing.T) {
	// 1 req/s with burst 1: a second request to the same host would block,
	// a request to a different host must not
	hl := NewHostLimiter(1, 1)
	ctx := context.Background()

	if err := hl.WaitURL(ctx, "https://a.example/x"); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := hl.WaitURL(ctx, "https://b.example/y"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("different host blocked for %v", elapsed)
	}
}

func TestWaitURLThrottlesSameHost(t *testing.T) {
	hl := NewHostLimiter(20, 1)
	ctx := context.Background()

	if err := hl.WaitURL(ctx, "https://a.example/1"); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := hl.WaitURL(ctx, "https://a.example/2"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("second request admitted after only %v", elapsed)
	}
}

func TestWaitURLRespectsContext(t *testing.T) {
	hl := NewHostLimiter(0.001, 1)
	ctx := context.Background()
	if err := hl.WaitURL(ctx, "https://a.example/1"); err != nil {
		t.Fatal(err)
	}

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := hl.WaitURL(cctx, "https://a.example/2"); err == nil {
		t.Fatal("want error when the context expires before admission")
	}
}

func TestWaitURLUnparseableFallsBack(t *testing.T) {
	hl := NewHostLimiter(100, 10)
	if err := hl.WaitURL(context.Background(), "not a url"); err != nil {
		t.Fatal(err)
	}
	hosts := hl.Hosts()
	if len(hosts) != 1 || hosts[0] != fallbackBucket {
		t.Fatalf("hosts = %v, want only the fallback bucket", hosts)
	}
}

func TestHostsReportsThrottledHosts(t *testing.T) {
	hl := NewHostLimiter(100, 10)
	ctx := context.Background()
	for _, u := range []string{"https://b.example/x", "https://a.example/y", "https://b.example/z"} {
		if err := hl.WaitURL(ctx, u); err != nil {
			t.Fatal(err)
		}
	}
	hosts := hl.Hosts()
	if len(hosts) != 2 || hosts[0] != "a.example" || hosts[1] != "b.example" {
		t.Fatalf("hosts = %v, want [a.example b.example]", hosts)
	}
}
