// Package fetch implements gorushi's HttpFetcher: a raw-socket HTTP/1.x
// client with connection pooling, a max-age response cache, redirect
// following, and chunked/gzip body decoding, plus the data:/file:/about:
// scheme shortcuts the rest of the browser pipeline expects to go
// through the same entry point.
package fetch

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/kojima/gorushi"
	"github.com/kojima/gorushi/internal/poolstats"
	"github.com/kojima/gorushi/internal/singleflight"
	"github.com/kojima/gorushi/internal/telemetry"
	"github.com/kojima/gorushi/urlref"
)

// DefaultMaxRedirects matches the source's chromium-inspired ceiling.
const DefaultMaxRedirects = 20

// DefaultUserAgent is the literal wire value spec.md §4.B names.
const DefaultUserAgent = "kokokokojima/1.0"

// Fetcher is gorushi's HttpFetcher: a scheme dispatcher plus, for http
// and https, a persistent connection pool and response cache. The zero
// value is not usable; construct with New.
type Fetcher struct {
	httpVersion  string
	userAgent    string
	maxRedirects int

	pool   *connPool
	cache  *responseCache
	group  *singleflight.Group[string, fetchResult]
	logger *slog.Logger

	limiterRPS   float64
	limiterBurst int
	limitersMu   sync.Mutex
	limiters     map[poolKey]*rate.Limiter

	inFlight *semaphore.Weighted
}

type fetchResult struct {
	body string
}

// New constructs a Fetcher with spec.md §4.B's defaults (HTTP/1.0, 20
// redirects, the fixed User-Agent), as overridden by opts.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpVersion:  "1.0",
		userAgent:    DefaultUserAgent,
		maxRedirects: DefaultMaxRedirects,
		pool:         newConnPool(),
		cache:        newResponseCache(),
		group:        singleflight.NewGroup[string, fetchResult](),
		limiters:     make(map[poolKey]*rate.Limiter),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch resolves ref to its body, dispatching by scheme per spec.md
// §4.B. Concurrent Fetch calls for the same http/https URL are
// coalesced: only the first actually hits the network or cache, and
// every caller shares its result.
func (f *Fetcher) Fetch(ctx context.Context, ref *urlref.UrlRef) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "fetch.Fetch")
	defer span.End()

	switch ref.Scheme {
	case urlref.SchemeData:
		return ref.Content, nil
	case urlref.SchemeAbout:
		return "", nil
	case urlref.SchemeFile:
		return f.fetchFile(ref)
	default:
		if f.inFlight != nil {
			if err := f.inFlight.Acquire(ctx, 1); err != nil {
				return "", &gorushi.Error{Op: "fetch.Fetcher.Fetch", Kind: gorushi.ErrIO, Inner: err}
			}
			defer f.inFlight.Release(1)
		}
		key := ref.String()
		res, err, _ := f.group.Do(key, func() (fetchResult, error) {
			body, err := f.fetchHTTP(ctx, ref)
			return fetchResult{body: body}, err
		})
		return res.body, err
	}
}

func (f *Fetcher) fetchFile(ref *urlref.UrlRef) (string, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return "", &gorushi.Error{Op: "fetch.Fetcher.fetchFile", Kind: gorushi.ErrIO, Message: ref.Path, Inner: err}
	}
	return string(data), nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, ref *urlref.UrlRef) (string, error) {
	const op = "fetch.Fetcher.fetchHTTP"
	logger := f.logger.With("url", ref.String())

	cacheKey := ref.String()
	if body, ok := f.cache.get(cacheKey, time.Now()); ok {
		logger.DebugContext(ctx, "cache hit")
		return body, nil
	}

	if f.httpVersion != "1.0" && f.httpVersion != "1.1" {
		return "", &gorushi.Error{Op: op, Kind: gorushi.ErrUnsupportedHTTPVersion, Message: f.httpVersion}
	}

	current := *ref
	var conn *pooledConn
	redirects := 0

	for {
		if redirects > f.maxRedirects {
			return "", &gorushi.Error{Op: op, Kind: gorushi.ErrTooManyRedirects}
		}

		key := poolKey{host: current.Host, port: current.Port}
		if limiter := f.limiterFor(key); limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return "", &gorushi.Error{Op: op, Kind: gorushi.ErrIO, Inner: err}
			}
		}

		if conn == nil && f.httpVersion == "1.1" {
			conn = f.pool.checkout(key)
		}
		if conn == nil {
			var err error
			conn, err = f.pool.dial(ctx, key, current.Scheme == urlref.SchemeHTTPS, current.Host)
			if err != nil {
				return "", err
			}
		}
		if f.httpVersion == "1.1" {
			f.pool.checkin(key, conn)
		}

		reqLogger := logger.With("request_id", uuid.NewString(), "host", current.Host, "path", current.Path)
		reqLogger.DebugContext(ctx, "sending request")

		if err := writeRequest(conn, current.Path, current.Host, f.httpVersion, f.userAgent); err != nil {
			f.pool.evict(key)
			conn.Close()
			conn = nil
			return "", &gorushi.Error{Op: op, Kind: gorushi.ErrIO, Inner: err}
		}

		status, headers, err := readStatusAndHeaders(conn.r)
		if err != nil {
			f.pool.evict(key)
			conn.Close()
			conn = nil
			return "", err
		}

		if strings.HasPrefix(status.code, "3") {
			if loc, ok := headers["location"]; ok {
				next, err := urlref.ResolveRedirect(&current, loc)
				if err != nil {
					return "", err
				}
				f.pool.evict(key)
				conn.Close()
				conn = nil
				current = *next
				redirects++
				continue
			}
		}

		body, err := readBody(conn.r, headers)
		if err != nil {
			f.pool.evict(key)
			conn.Close()
			conn = nil
			return "", err
		}

		closeConn := f.httpVersion == "1.0" || strings.EqualFold(headers["connection"], "close")
		if closeConn {
			f.pool.evict(key)
			conn.Close()
			conn = nil
		}

		applyCachePolicy(f.cache, cacheKey, body, headers["cache-control"], time.Now())

		return body, nil
	}
}

func writeRequest(w io.Writer, path, host, version, userAgent string) error {
	conn := "close"
	if version == "1.1" {
		conn = "keep-alive"
	}
	req := "GET " + path + " HTTP/" + version + "\r\n" +
		"Host: " + host + "\r\n" +
		"Connection: " + conn + "\r\n" +
		"User-Agent: " + userAgent + "\r\n" +
		"Accept-Encoding: *\r\n" +
		"\r\n"
	_, err := io.WriteString(w, req)
	return err
}

type statusLine struct {
	version string
	code    string
	reason  string
}

func readStatusAndHeaders(r *bufio.Reader) (statusLine, map[string]string, error) {
	const op = "fetch.readStatusAndHeaders"
	line, err := r.ReadString('\n')
	if err != nil {
		return statusLine{}, nil, &gorushi.Error{Op: op, Kind: gorushi.ErrIO, Inner: err}
	}
	line = strings.TrimRight(line, "\r\n")
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 3 {
		return statusLine{}, nil, &gorushi.Error{Op: op, Kind: gorushi.ErrBadStatusLine, Message: line}
	}
	status := statusLine{version: parts[0], code: parts[1], reason: parts[2]}

	headers := make(map[string]string)
	for {
		hline, err := r.ReadString('\n')
		if err != nil {
			return statusLine{}, nil, &gorushi.Error{Op: op, Kind: gorushi.ErrIO, Inner: err}
		}
		if hline == "\r\n" || hline == "\n" {
			break
		}
		name, value, found := strings.Cut(hline, ":")
		if !found {
			continue
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	return status, headers, nil
}

func readBody(r *bufio.Reader, headers map[string]string) (string, error) {
	const op = "fetch.readBody"
	var raw []byte
	var err error

	switch {
	case headers["content-length"] != "":
		n, convErr := strconv.Atoi(headers["content-length"])
		if convErr != nil {
			return "", &gorushi.Error{Op: op, Kind: gorushi.ErrBadStatusLine, Message: "bad content-length", Inner: convErr}
		}
		raw = make([]byte, n)
		if _, err = io.ReadFull(r, raw); err != nil {
			return "", &gorushi.Error{Op: op, Kind: gorushi.ErrIO, Inner: err}
		}
	case strings.EqualFold(headers["transfer-encoding"], "chunked"):
		raw, err = readChunkedBody(r)
		if err != nil {
			return "", err
		}
	case headers["transfer-encoding"] != "":
		return "", &gorushi.Error{Op: op, Kind: gorushi.ErrUnsupportedTransfer, Message: headers["transfer-encoding"]}
	default:
		raw, err = io.ReadAll(r)
		if err != nil {
			return "", &gorushi.Error{Op: op, Kind: gorushi.ErrIO, Inner: err}
		}
	}

	if strings.EqualFold(headers["content-encoding"], "gzip") {
		decoded, err := gunzip(raw)
		if err != nil {
			return "", &gorushi.Error{Op: op, Kind: gorushi.ErrIO, Inner: err}
		}
		raw = decoded
	}

	return decodeBody(raw, headers["content-type"]), nil
}

func applyCachePolicy(cache *responseCache, key, body, cacheControl string, now time.Time) {
	if cacheControl == "" {
		return
	}
	directives := strings.Split(cacheControl, ",")
	for i := range directives {
		directives[i] = strings.TrimSpace(directives[i])
	}
	for _, d := range directives {
		if d == "no-store" {
			cache.evict(key)
			return
		}
	}
	for _, d := range directives {
		if rest, ok := strings.CutPrefix(d, "max-age="); ok {
			n, err := strconv.Atoi(rest)
			if err != nil {
				continue
			}
			cache.store(key, body, time.Duration(n)*time.Second, now)
			return
		}
	}
}

var _ poolstats.Stater = (*Fetcher)(nil)

// Stat implements poolstats.Stater so a Fetcher can be wired straight
// into internal/poolstats.NewCollector.
func (f *Fetcher) Stat() poolstats.Stat {
	hits, misses := f.cache.stats()
	return fetcherStat{
		pooledConns:  f.pool.size(),
		openedConns:  f.pool.openedCount(),
		cacheEntries: f.cache.len(),
		cacheHits:    hits,
		cacheMisses:  misses,
	}
}

type fetcherStat struct {
	pooledConns  int
	openedConns  int64
	cacheEntries int
	cacheHits    int64
	cacheMisses  int64
}

func (s fetcherStat) PooledConnections() int { return s.pooledConns }
func (s fetcherStat) OpenedConnections() int64 { return s.openedConns }
func (s fetcherStat) CacheEntries() int        { return s.cacheEntries }
func (s fetcherStat) CacheHits() int64         { return s.cacheHits }
func (s fetcherStat) CacheMisses() int64       { return s.cacheMisses }
