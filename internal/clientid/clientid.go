// Package clientid persists the anonymous device identifier the backend
// meters free-tier usage by.
package clientid

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const fileName = "client_id"

// GetOrCreate returns the stored client id, minting and persisting a new one
// on first use. A persistence failure degrades to a fresh per-process id
// rather than an error: metering continuity is best-effort.
func GetOrCreate(dataDir string) string {
	path := filepath.Join(dataDir, fileName)

	if data, err := os.ReadFile(path); err == nil {
		id := strings.TrimSpace(string(data))
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dataDir, 0o755); err == nil {
		_ = os.WriteFile(path, []byte(id+"\n"), 0o600)
	}
	return id
}
