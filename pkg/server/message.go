package server

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeName(name string) string {
	if name == "" {
		name = "message"
	}
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// writeMessageFile implements the message-only shortcut from spec §4.3:
// save_dir/message_{YYYYMMDD_HHMMSS}_{sanitized_name}.txt.
func writeMessageFile(saveDir, fileName, body string, at time.Time) (string, error) {
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return "", fmt.Errorf("create save directory: %w", err)
	}
	name := fmt.Sprintf("message_%s_%s.txt", at.Format("20060102_150405"), sanitizeName(fileName))
	path := filepath.Join(saveDir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write message file: %w", err)
	}
	return path, nil
}
