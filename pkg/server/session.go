package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lanshare/lanshare/pkg/protocol"
)

// sessionIdleTimeout is how long a session may sit without activity
// before it is considered stale and replaced.
const sessionIdleTimeout = 300 * time.Second

// session is the server's record of one accepted prepare-upload. At most
// one is ever live on a node (spec §3's Session invariant).
type session struct {
	id           string
	senderAlias  string
	declared     map[string]protocol.FileMetadata
	tokens       map[string]protocol.Token
	uploaded     map[string]bool
	createdAt    time.Time
	lastActivity time.Time
}

func newSession(senderAlias string, files map[string]protocol.FileMetadata) *session {
	id := uuid.NewString()
	tokens := make(map[string]protocol.Token, len(files))
	for fileID := range files {
		tokens[fileID] = protocol.DeriveToken(id, fileID)
	}
	now := time.Now()
	return &session{
		id:           id,
		senderAlias:  senderAlias,
		declared:     files,
		tokens:       tokens,
		uploaded:     make(map[string]bool, len(files)),
		createdAt:    now,
		lastActivity: now,
	}
}

// complete reports whether every declared file has been uploaded. This
// implements the deliberate deviation from the source's "declared file
// count <= 1" heuristic: a session with N files only clears once all N
// have actually landed, not after the first one.
func (s *session) complete() bool {
	for fileID := range s.declared {
		if !s.uploaded[fileID] {
			return false
		}
	}
	return true
}

// sessionManager owns the single live session, writer-preferring per
// spec §5 ("the Session is protected by a writer-preferring lock").
// Go's sync.RWMutex is itself writer-preferring once a writer is
// waiting, so a plain RWMutex already gives the guarantee the spec
// names; no separate starvation-avoidance scheme is layered on top.
type sessionManager struct {
	mu      sync.RWMutex
	current *session
}

func newSessionManager() *sessionManager {
	return &sessionManager{}
}

// tryInstall clears the current session if it has gone stale, then
// installs s as the current session — all under one held lock, so two
// concurrent prepare-uploads can never both observe "no live session"
// and both install (spec §4.3 steps 1-4, §5's atomicity requirement).
// It fails, leaving the existing session untouched, if a live session is
// still present.
func (m *sessionManager) tryInstall(s *session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		if time.Since(m.current.lastActivity) <= sessionIdleTimeout {
			return false
		}
		m.current = nil
	}
	m.current = s
	return true
}

// create installs s as the current session, replacing any (stale) one.
func (m *sessionManager) create(s *session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
}

// get returns the current session, or nil.
func (m *sessionManager) get() *session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// touch refreshes lastActivity on the session identified by id, if it is
// still the current one. Used when a prepare-upload is accepted, so the
// idle clock starts from acceptance rather than creation (spec §4.3
// step 6).
func (m *sessionManager) touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.id == id {
		m.current.lastActivity = time.Now()
	}
}

// clear removes the current session unconditionally.
func (m *sessionManager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
}

// clearIfMatches removes the current session only if its id matches.
func (m *sessionManager) clearIfMatches(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.id == id {
		m.current = nil
	}
}

// touchAndMarkUploaded refreshes lastActivity and records fileID as
// uploaded on the session identified by id, returning fileID's declared
// metadata and ok=true, or ok=false if id is not the current session or
// fileID is not declared in it. The session is cleared as a side effect
// once every declared file has been uploaded.
func (m *sessionManager) touchAndMarkUploaded(id, fileID string) (declared protocol.FileMetadata, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.id != id {
		return protocol.FileMetadata{}, false
	}
	meta, exists := m.current.declared[fileID]
	if !exists {
		return protocol.FileMetadata{}, false
	}
	m.current.uploaded[fileID] = true
	m.current.lastActivity = time.Now()
	if m.current.complete() {
		m.current = nil
	}
	return meta, true
}
