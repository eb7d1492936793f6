package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// ResetCheckpoint is the local scratch record of the last day-boundary run.
// It lives outside the document store on purpose: the boundary check must
// survive a process restart without a server round-trip.
type ResetCheckpoint struct {
	LastResetDay string `json:"last_reset_day"` // YYYY-MM-DD
}

// Day formats a time as a checkpoint day key.
func Day(t time.Time) string {
	return t.Format("2006-01-02")
}

// LoadResetCheckpoint reads the checkpoint file. A missing or unreadable
// file yields a zero checkpoint, which forces a reset check — the safe
// direction, since the per-profile guard makes the check idempotent.
func LoadResetCheckpoint(path string) ResetCheckpoint {
	var cp ResetCheckpoint
	raw, err := os.ReadFile(path)
	if err != nil {
		return cp
	}
	_ = json.Unmarshal(raw, &cp)
	return cp
}

// SaveResetCheckpoint writes the checkpoint atomically (temp file + rename).
func SaveResetCheckpoint(path string, cp ResetCheckpoint) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	raw, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
