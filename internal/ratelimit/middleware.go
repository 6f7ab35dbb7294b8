package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
)

const msgRateLimited = "Too many attempts. Try again later."

// Middleware returns an HTTP middleware that limits requests per client IP.
// It keys on the socket address only; forwarding headers are client
// controlled and ignored.
//
// Rate-limit headers are always set on the response:
//
//	X-RateLimit-Limit     maximum requests allowed in the window
//	X-RateLimit-Remaining tokens left after this request
//	X-RateLimit-Reset     Unix time at which the bucket is full again
//
// When the limit is exceeded the middleware responds 429 with a
// {"message": ...} body.
func Middleware(limiter *Limiter, onReject ...func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, q := limiter.Take(ClientKey(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(q.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(q.ResetAt.Unix(), 10))

			if !allowed {
				for _, fn := range onReject {
					fn()
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": msgRateLimited})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey returns the host part of r.RemoteAddr.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
