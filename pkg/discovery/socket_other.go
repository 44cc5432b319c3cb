//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package discovery

import "syscall"

// reuseSocketControl is a no-op on platforms (notably Windows) where this
// module does not implement the SO_REUSEPORT-equivalent dance; the
// socket still binds, it just cannot share the port with a second
// process's discovery participant.
func reuseSocketControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
