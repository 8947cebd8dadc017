package fetch

import (
	"bufio"
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kojima/gorushi"
	"github.com/kojima/gorushi/internal/sockopt"
)

// poolKey identifies a connection pool slot: (host, port) only, not
// scheme, per spec.md §4.B's tie-break note.
type poolKey struct {
	host string
	port int
}

func (k poolKey) String() string {
	return k.host + ":" + strconv.Itoa(k.port)
}

// pooledConn is a live socket bound to one poolKey, plus the buffered
// reader layered over it so the redirect loop can read a status line and
// headers without losing buffered bytes across calls.
type pooledConn struct {
	net.Conn
	r *bufio.Reader
}

// connPool is the fetcher's connection pool, promoted from the source's
// module-level singleton to an explicit field of Fetcher (spec.md §9).
// Under HTTP/1.1, at most one pooledConn is held per poolKey and is
// checked out for the duration of one request so a second concurrent
// fetch to the same host never interleaves reads on the same socket.
type connPool struct {
	mu      sync.Mutex
	conns   map[poolKey]*pooledConn
	dialer  net.Dialer
	opened  int64
	tlsConf *tls.Config
}

func newConnPool() *connPool {
	return &connPool{conns: make(map[poolKey]*pooledConn)}
}

// checkout returns a pooled connection for key if one exists, removing
// it from the pool so no other caller can use it concurrently.
func (p *connPool) checkout(key poolKey) *pooledConn {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.conns[key]
	if !ok {
		return nil
	}
	delete(p.conns, key)
	return c
}

// checkin returns a connection to the pool under key, available for the
// next caller wanting that key.
func (p *connPool) checkin(key poolKey, c *pooledConn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conns[key] = c
}

// evict closes and removes any pooled connection under key. Used on
// error paths, redirects and HTTP/1.0/Connection: close responses; an
// HTTP/1.0 connection is never checked in, so it is not affected and the
// caller closes it itself.
func (p *connPool) evict(key poolKey) {
	p.mu.Lock()
	c, ok := p.conns[key]
	delete(p.conns, key)
	p.mu.Unlock()
	if ok {
		c.Close()
	}
}

// dial opens a fresh TCP connection to key, optionally wrapped in TLS
// with host as the SNI server name.
func (p *connPool) dial(ctx context.Context, key poolKey, tlsWrap bool, host string) (*pooledConn, error) {
	conn, err := p.dialer.DialContext(ctx, "tcp", net.JoinHostPort(key.host, strconv.Itoa(key.port)))
	if err != nil {
		return nil, &gorushi.Error{Op: "fetch.connPool.dial", Kind: gorushi.ErrIO, Inner: err}
	}
	if err := sockopt.SetNoDelay(conn); err != nil {
		// Best-effort only; a socket that can't be tuned still works.
		_ = err
	}
	atomic.AddInt64(&p.opened, 1)

	if tlsWrap {
		conf := p.tlsConf
		if conf == nil {
			conf = &tls.Config{}
		}
		tlsConn := tls.Client(conn, withServerName(conf, host))
		tlsConn.SetDeadline(time.Now().Add(30 * time.Second))
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, &gorushi.Error{Op: "fetch.connPool.dial", Kind: gorushi.ErrTLS, Inner: err}
		}
		tlsConn.SetDeadline(time.Time{})
		return &pooledConn{Conn: tlsConn, r: bufio.NewReader(tlsConn)}, nil
	}
	return &pooledConn{Conn: conn, r: bufio.NewReader(conn)}, nil
}

func withServerName(conf *tls.Config, host string) *tls.Config {
	c := conf.Clone()
	c.ServerName = host
	return c
}

func (p *connPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

func (p *connPool) openedCount() int64 {
	return atomic.LoadInt64(&p.opened)
}
