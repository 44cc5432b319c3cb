//go:build linux || darwin || freebsd || netbsd || openbsd

package discovery

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseSocketControl enables SO_REUSEADDR and, where the kernel supports
// it, SO_REUSEPORT, so a TUI and a one-shot `discover` scan can both bind
// 0.0.0.0:53317 at once. Grounded on WireGuard-wireguard-go's per-platform
// conn/bind_*.go split: socket options that don't exist on every OS live
// in a build-tagged file rather than behind runtime feature detection.
func reuseSocketControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		// SO_REUSEPORT is best-effort: older kernels and some BSD variants
		// may reject it, which is not fatal to binding the socket.
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	_ = sockErr
	return nil
}
