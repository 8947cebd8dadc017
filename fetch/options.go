package fetch

import (
	"crypto/tls"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Option configures a Fetcher constructed with New. Defaults are used for
// anything not set.
type Option func(*Fetcher)

// WithHTTPVersion sets the HTTP version ("1.0" or "1.1") used for network
// fetches. The source's own default is "1.0"; gorushi's browser frame
// uses "1.1".
func WithHTTPVersion(v string) Option {
	return func(f *Fetcher) { f.httpVersion = v }
}

// WithUserAgent overrides the User-Agent header value.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithMaxRedirects overrides the redirect ceiling (default 20).
func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) { f.maxRedirects = n }
}

// WithDialTimeout bounds how long establishing a new TCP connection may
// take.
func WithDialTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.pool.dialer.Timeout = d }
}

// WithTLSConfig overrides the TLS client configuration used for https
// fetches; the zero value uses the platform default trust store.
func WithTLSConfig(conf *tls.Config) Option {
	return func(f *Fetcher) { f.pool.tlsConf = conf }
}

// WithRateLimiter bounds the rate of outbound requests per (host, port),
// a supplement absent from the source's single-user browser, useful once
// a fetcher is shared by concurrent callers that might otherwise hammer
// one origin.
func WithRateLimiter(rps float64, burst int) Option {
	return func(f *Fetcher) { f.limiterRPS, f.limiterBurst = rps, burst }
}

// WithMaxInFlight bounds the number of concurrent in-progress fetches,
// regardless of how many distinct hosts they target.
func WithMaxInFlight(n int64) Option {
	return func(f *Fetcher) { f.inFlight = semaphore.NewWeighted(n) }
}

// WithLogger overrides the logger used for request-level diagnostics;
// the default is slog.Default(). fetchHTTP derives a child logger from
// it per call via Logger.With, attaching the request's url, and a
// second child per attempt attaching request_id/host/path.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

func (f *Fetcher) limiterFor(key poolKey) *rate.Limiter {
	if f.limiterRPS <= 0 {
		return nil
	}
	f.limitersMu.Lock()
	defer f.limitersMu.Unlock()
	l, ok := f.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.limiterRPS), f.limiterBurst)
		f.limiters[key] = l
	}
	return l
}
