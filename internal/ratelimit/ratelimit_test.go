package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
)

// fakeClock is a controllable time source for deterministic tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(rate int, window time.Duration, clock *fakeClock) *Limiter {
	l := New(rate, window)
	l.now = clock.Now
	return l
}

func allow(l *Limiter, key string) bool {
	ok, _ := l.Take(key)
	return ok
}

func TestTakeBasic(t *testing.T) {
	clock := newFakeClock(time.Now())
	l := newTestLimiter(3, time.Minute, clock)

	for i := 0; i < 3; i++ {
		if !allow(l, "10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	if allow(l, "10.0.0.1") {
		t.Fatal("4th request should be denied")
	}
}

func TestTakeDifferentKeys(t *testing.T) {
	clock := newFakeClock(time.Now())
	l := newTestLimiter(1, time.Minute, clock)

	if !allow(l, "a") {
		t.Fatal("first request for key 'a' should be allowed")
	}
	if allow(l, "a") {
		t.Fatal("second request for key 'a' should be denied")
	}
	if !allow(l, "b") {
		t.Fatal("first request for key 'b' should be allowed")
	}
}

func TestTokenRefill(t *testing.T) {
	clock := newFakeClock(time.Now())
	// 60 tokens per minute = 1 token per second.
	l := newTestLimiter(60, time.Minute, clock)

	for i := 0; i < 60; i++ {
		allow(l, "k")
	}
	if allow(l, "k") {
		t.Fatal("should be denied after exhausting tokens")
	}

	clock.Advance(1 * time.Second)
	if !allow(l, "k") {
		t.Fatal("should be allowed after 1 second refill")
	}
	if allow(l, "k") {
		t.Fatal("should be denied again after consuming refilled token")
	}

	clock.Advance(5 * time.Second)
	for i := 0; i < 5; i++ {
		if !allow(l, "k") {
			t.Fatalf("request %d should be allowed after 5s refill", i+1)
		}
	}
	if allow(l, "k") {
		t.Fatal("should be denied after consuming 5 refilled tokens")
	}
}

func TestTokenRefillCap(t *testing.T) {
	clock := newFakeClock(time.Now())
	l := newTestLimiter(5, time.Minute, clock)

	allow(l, "k")
	allow(l, "k")

	clock.Advance(10 * time.Minute)

	if _, q := l.Take("k"); q.Remaining != 4 {
		t.Fatalf("remaining after refill cap and one take = %d, want 4", q.Remaining)
	}
}

func TestTakeReportsQuota(t *testing.T) {
	clock := newFakeClock(time.Now())
	l := newTestLimiter(2, time.Minute, clock)

	tests := []struct {
		wantAllowed   bool
		wantRemaining int
	}{
		{true, 1},
		{true, 0},
		{false, 0},
	}
	for i, tt := range tests {
		allowed, q := l.Take("k")
		if allowed != tt.wantAllowed || q.Remaining != tt.wantRemaining || q.Limit != 2 {
			t.Fatalf("take %d = (%v, %+v), want allowed=%v remaining=%d limit=2",
				i+1, allowed, q, tt.wantAllowed, tt.wantRemaining)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	clock := newFakeClock(time.Now())
	l := newTestLimiter(100, time.Minute, clock)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- allow(l, "concurrent")
		}()
	}

	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}

	if count != 100 {
		t.Fatalf("expected exactly 100 allowed, got %d", count)
	}
}

func TestTakeResetAt(t *testing.T) {
	clock := newFakeClock(time.Now())
	l := newTestLimiter(10, time.Minute, clock)

	allow(l, "s")
	allow(l, "s")
	_, q := l.Take("s")
	if q.Limit != 10 || q.Remaining != 7 {
		t.Fatalf("quota = %+v, want limit 10 remaining 7", q)
	}

	// About 18 seconds for 3 tokens at 1 token per 6 seconds.
	now := clock.Now()
	if !q.ResetAt.After(now.Add(17*time.Second)) || q.ResetAt.After(now.Add(19*time.Second)) {
		t.Fatalf("resetAt %v not ~18s after %v", q.ResetAt, now)
	}
}

func TestTakeRefilledBucketResetIsNow(t *testing.T) {
	clock := newFakeClock(time.Now())
	l := newTestLimiter(1, time.Minute, clock)

	allow(l, "k")
	clock.Advance(2 * time.Minute)
	allowed, q := l.Take("k")
	if !allowed {
		t.Fatal("refilled bucket should allow")
	}
	if q.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", q.Remaining)
	}
	// One token short, refilled in one minute.
	now := clock.Now()
	if q.ResetAt.Before(now.Add(59*time.Second)) || q.ResetAt.After(now.Add(61*time.Second)) {
		t.Fatalf("resetAt %v not ~60s after %v", q.ResetAt, now)
	}
}

func TestPrune(t *testing.T) {
	clock := newFakeClock(time.Now())
	l := newTestLimiter(2, time.Minute, clock)

	allow(l, "idle")
	allow(l, "busy")
	allow(l, "busy")

	clock.Advance(15 * time.Second)
	if n := l.Prune(); n != 0 {
		t.Fatalf("pruned %d buckets before any refilled", n)
	}

	clock.Advance(16 * time.Second)
	allow(l, "busy")
	if n := l.Prune(); n != 1 {
		t.Fatalf("expected 1 pruned bucket, got %d", n)
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 remaining bucket, got %d", l.Len())
	}
}

func TestMiddleware(t *testing.T) {
	clock := newFakeClock(time.Unix(1_700_000_000, 0))
	l := newTestLimiter(2, time.Minute, clock)

	rejected := 0
	h := Middleware(l, func() { rejected++ })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	// Different source ports of one host share a bucket.
	for i, addr := range []string{"192.0.2.7:5001", "192.0.2.7:5002"} {
		rec := do(addr)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status %d, want 204", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != strconv.Itoa(1-i) {
			t.Errorf("request %d: remaining %q, want %d", i+1, got, 1-i)
		}
	}

	rec := do("192.0.2.7:5003")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d, want 429", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["message"] != msgRateLimited {
		t.Errorf("message = %q", body["message"])
	}
	if rec.Header().Get("X-RateLimit-Limit") != "2" {
		t.Errorf("limit header = %q", rec.Header().Get("X-RateLimit-Limit"))
	}
	if rejected != 1 {
		t.Errorf("onReject called %d times, want 1", rejected)
	}

	if rec := do("198.51.100.1:4000"); rec.Code != http.StatusNoContent {
		t.Fatalf("other client: status %d, want 204", rec.Code)
	}

	// Forwarding headers do not open a new bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "192.0.2.7:5004"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("X-Real-IP", "203.0.113.9")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("spoofed forwarding headers: status %d, want 429", rec.Code)
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.remote
		if got := ClientKey(r); got != tt.want {
			t.Errorf("ClientKey(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
