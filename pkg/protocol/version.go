package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidateVersion accepts a peer whose protocol version parses as
// major.minor and whose major component equals the locally supported
// major version. A version mismatch is a handshake-level rejection, not
// a parse error: callers surface it as protocol.Kind VersionMismatch.
func ValidateVersion(v string) error {
	wantMajor, _, err := splitVersion(ProtocolVersion)
	if err != nil {
		return err
	}
	gotMajor, _, err := splitVersion(v)
	if err != nil {
		return NewError(InvalidDevice, fmt.Sprintf("malformed version %q", v), nil)
	}
	if gotMajor != wantMajor {
		return &Error{
			Kind:    VersionMismatch,
			Message: fmt.Sprintf("protocol version %q not compatible with %q", v, ProtocolVersion),
		}
	}
	return nil
}

func splitVersion(v string) (major, minor int, err error) {
	parts := strings.SplitN(v, ".", 2)
	if len(parts) != 2 {
		return 0, 0, NewError(InvalidDevice, fmt.Sprintf("malformed version %q", v), nil)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, NewError(InvalidDevice, fmt.Sprintf("malformed version %q", v), nil)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, NewError(InvalidDevice, fmt.Sprintf("malformed version %q", v), nil)
	}
	return major, minor, nil
}
