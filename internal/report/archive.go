package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Archive writes rendered reports to a directory.
type Archive struct {
	Dir string
}

// Save writes text to report_YYYYMMDD_HHMM[_id].txt and report_latest.txt.
// Characters outside [A-Za-z0-9_-] in the id are replaced with '_'.
// It returns the path of the timestamped file.
func (a *Archive) Save(text, recipientID string, at time.Time) (string, error) {
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	name := "report_" + at.Format("20060102_1504")
	if recipientID != "" {
		name += "_" + fileSafe(recipientID)
	}
	path := filepath.Join(a.Dir, name+".txt")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(a.Dir, "report_latest.txt"), []byte(text), 0644); err != nil {
		return "", fmt.Errorf("write latest report: %w", err)
	}
	return path, nil
}

func fileSafe(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, id)
}
