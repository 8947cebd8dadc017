//go:build !unix

package sockopt

import "net"

// SetNoDelay is a no-op on platforms without golang.org/x/sys/unix socket
// option support.
func SetNoDelay(conn net.Conn) error {
	return nil
}
