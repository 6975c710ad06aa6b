package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CreateFolder creates every folder that does not exist yet.
func CreateFolder(folderPath ...string) error {
	for _, folder := range folderPath {
		if folder == "" {
			continue
		}
		if err := os.MkdirAll(folder, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", folder, err)
		}
	}
	return nil
}

// ExportPath returns the default calendar file for a user under baseDir and
// makes sure the exports folder exists.
func ExportPath(baseDir, userID string) (string, error) {
	dir := filepath.Join(baseDir, "exports")
	if err := CreateFolder(dir); err != nil {
		return "", err
	}
	name := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, userID)
	if name == "" {
		name = "calendar"
	}
	return filepath.Join(dir, name+".ics"), nil
}
