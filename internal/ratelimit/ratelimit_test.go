package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/folio-labs/folio-web/internal/httpmw"
)

func newTestLimiter(t *testing.T, opts ...Option) *IPLimiter {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return New(ctx, append([]Option{WithRate(1, 3), WithTTL(time.Hour)}, opts...)...)
}

func TestAllow_BurstPerIP(t *testing.T) {
	l := newTestLimiter(t)
	for i := 0; i < 3; i++ {
		if !l.allow("10.0.0.1") {
			t.Fatalf("request %d should fit the burst", i+1)
		}
	}
	if l.allow("10.0.0.1") {
		t.Fatal("fourth request should be denied")
	}
	if !l.allow("10.0.0.2") {
		t.Fatal("other IPs have their own bucket")
	}
}

func TestAllow_Refill(t *testing.T) {
	l := newTestLimiter(t, WithRate(200, 1))
	l.allow("ip")
	if l.allow("ip") {
		t.Fatal("bucket should be empty")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.allow("ip") {
		t.Fatal("bucket should have refilled")
	}
}

func TestAllow_Hooks(t *testing.T) {
	var first, denied atomic.Int32
	l := newTestLimiter(t, WithRate(0.001, 1),
		WithOnFirstDenied(func(string) { first.Add(1) }),
		WithOnDenied(func(string) { denied.Add(1) }),
	)
	for i := 0; i < 5; i++ {
		l.allow("198.51.100.1")
	}
	if first.Load() != 1 || denied.Load() != 4 {
		t.Fatalf("first=%d denied=%d, want 1 and 4", first.Load(), denied.Load())
	}
}

func TestEvict(t *testing.T) {
	l := newTestLimiter(t, WithTTL(time.Minute))
	l.allow("a")
	l.allow("b")
	l.mu.Lock()
	l.visitors["a"].lastSeen = time.Now().Add(-2 * time.Minute)
	l.mu.Unlock()

	l.evict(time.Now())
	if l.Len() != 1 {
		t.Fatalf("Len = %d, want 1", l.Len())
	}
}

func TestCleanup_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := New(ctx, WithTTL(10*time.Millisecond))
	l.allow("a")
	deadline := time.Now().Add(2 * time.Second)
	for l.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if l.Len() != 0 {
		t.Fatal("idle visitor never evicted")
	}
}

func serve(h http.Handler, path, ip string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	r = r.WithContext(httpmw.WithClientIP(r.Context(), ip))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestMiddleware(t *testing.T) {
	l := newTestLimiter(t, WithRate(0.001, 2), WithExemptPrefixes("/static/"))
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	for i := 0; i < 2; i++ {
		if rec := serve(h, "/projects/", "203.0.113.5"); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec := serve(h, "/projects/", "203.0.113.5")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over budget = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After missing")
	}
	if rec := serve(h, "/static/img/hero.svg", "203.0.113.5"); rec.Code != http.StatusOK {
		t.Fatalf("static assets are exempt, got %d", rec.Code)
	}
}

func TestAllow_Concurrent(t *testing.T) {
	l := newTestLimiter(t, WithRate(1, 50))
	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.allow("10.9.9.9") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	if n := allowed.Load(); n < 50 || n > 51 {
		t.Fatalf("allowed %d, want the burst of 50", n)
	}
}
