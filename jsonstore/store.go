// Package jsonstore persists alarms as a JSON array in a single local file.
package jsonstore

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"bsid.es/despierta"
)

// Store reads and writes the alarm file at a fixed path. It is the only
// writer of that file.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

var _ despierta.Store = (*Store)(nil)

// Load parses the alarm file. A missing file yields an empty collection; any
// other failure is reported as corrupt data so the caller can fall back to
// an empty list.
func (s *Store) Load() ([]despierta.Alarm, error) {
	buf, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, despierta.Errorf(despierta.ErrCorrupt, "read %s: %v", s.path, err)
	}
	var alarms []despierta.Alarm
	if err := json.Unmarshal(buf, &alarms); err != nil {
		return nil, despierta.Errorf(despierta.ErrCorrupt, "parse %s: %v", s.path, err)
	}
	seen := make(map[string]struct{}, len(alarms))
	for i := range alarms {
		if err := alarms[i].Validate(); err != nil {
			return nil, despierta.Errorf(despierta.ErrCorrupt, "alarm %d: %v", i, err)
		}
		if _, ok := seen[alarms[i].ID]; ok {
			return nil, despierta.Errorf(despierta.ErrCorrupt, "duplicate alarm id %s", alarms[i].ID)
		}
		seen[alarms[i].ID] = struct{}{}
	}
	return alarms, nil
}

// Save rewrites the alarm file. The bytes go to a temp file in the same
// directory first and are renamed into place, so a crash mid-write can't
// leave a truncated file behind.
func (s *Store) Save(alarms []despierta.Alarm) error {
	if alarms == nil {
		alarms = []despierta.Alarm{}
	}
	buf, err := json.MarshalIndent(alarms, "", "  ")
	if err != nil {
		return despierta.Errorf(despierta.ErrInternal, "encode alarms: %v", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return despierta.Errorf(despierta.ErrWrite, "create %s: %v", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return despierta.Errorf(despierta.ErrWrite, "create temp file: %v", err)
	}
	_, werr := tmp.Write(buf)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(tmp.Name())
		return despierta.Errorf(despierta.ErrWrite, "write %s: %v", tmp.Name(), werr)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return despierta.Errorf(despierta.ErrWrite, "replace %s: %v", s.path, err)
	}
	return nil
}
