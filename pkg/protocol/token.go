package protocol

import "fmt"

// Token authorizes the upload of one file within one session. It is
// deterministically derived so the server never has to persist it
// separately from the session it belongs to.
type Token string

// DeriveToken computes the token for a (sessionID, fileID) pair.
func DeriveToken(sessionID, fileID string) Token {
	return Token(fmt.Sprintf("%s_%s", sessionID, fileID))
}

// Valid reports whether token matches the token derived for
// (sessionID, fileID).
func (t Token) Valid(sessionID, fileID string) bool {
	return t == DeriveToken(sessionID, fileID)
}
