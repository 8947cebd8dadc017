//go:build unix

// Package sockopt tunes raw TCP connections opened by fetch.Fetcher.
package sockopt

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// SetNoDelay disables Nagle's algorithm on conn, so small HTTP request
// writes (a GET line, a header block) go out immediately instead of
// waiting to coalesce with more data that never comes.
func SetNoDelay(conn net.Conn) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return err
	}
	var setErr error
	err = raw.Control(func(fd uintptr) {
		setErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
	if err != nil {
		return err
	}
	return setErr
}
