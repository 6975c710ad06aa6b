package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const serverIDFile = ".server_id"

// GetPersistentServerID names this instance in rule claims and sweep leases.
// An explicit override wins, then the ID saved under storagePath. Otherwise a
// new "click-<host>-<random>" ID is minted and saved for the next start.
func GetPersistentServerID(override, storagePath string) string {
	if override != "" {
		return override
	}

	idFile := filepath.Join(storagePath, serverIDFile)
	if data, err := os.ReadFile(idFile); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}

	parts := []string{"click"}
	if host := hostSlug(); host != "" {
		parts = append(parts, host)
	}
	parts = append(parts, uuid.NewString()[:8])
	id := strings.Join(parts, "-")

	if err := CreateFolder(storagePath); err == nil {
		if err := os.WriteFile(idFile, []byte(id), 0o644); err != nil {
			logrus.Warnf("[SERVER] Could not persist server id: %v", err)
		}
	}
	return id
}

func hostSlug() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "localhost" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return -1
	}, hostname)
}
