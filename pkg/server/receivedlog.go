package server

import (
	"sync"
	"time"
)

// ReceivedFile is one entry in the append-only log of completed writes,
// exposed read-only for a CLI/TUI post-transfer summary. Supplements
// spec.md, which only alludes to a "received-files log".
type ReceivedFile struct {
	FileName string
	Size     int64
	Sender   string
	At       time.Time
}

// receivedLog is an append-only, mutex-guarded record of every file this
// node has accepted, across sessions.
type receivedLog struct {
	mu      sync.Mutex
	entries []ReceivedFile
}

func newReceivedLog() *receivedLog {
	return &receivedLog{}
}

func (l *receivedLog) append(entry ReceivedFile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Snapshot returns a copy of every recorded entry, oldest first.
func (l *receivedLog) Snapshot() []ReceivedFile {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ReceivedFile, len(l.entries))
	copy(out, l.entries)
	return out
}
