package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// channelEntry is the persisted shape of a single channel record.
type channelEntry struct {
	LastUpdated string `json:"lastUpdated"`
}

// Store persists a UserState as indented JSON at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the state file location under the user configuration
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "ridelog", "state.json"), nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the backing file and returns the parsed state. A missing file,
// unparsable content, or wrong shape all degrade to an empty state with a
// warning; a missing watermark just means "no prior run", so Load never
// returns an error.
func (s *Store) Load() *UserState {
	st := NewUserState()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Could not read state file, starting fresh", "path", s.path, "error", err)
		}
		return st
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.Warn("State file is not a valid JSON object, starting fresh", "path", s.path, "error", err)
		return st
	}

	for key, msg := range raw {
		ch := Channel(key)
		if !ch.Valid() {
			// Forward compatibility: unknown keys survive a load/save round trip.
			st.extra[key] = msg
			continue
		}

		var entry channelEntry
		if err := json.Unmarshal(msg, &entry); err != nil {
			slog.Warn("Dropping malformed channel entry", "path", s.path, "channel", key, "error", err)
			continue
		}
		ts, err := ParseTimestamp(entry.LastUpdated)
		if err != nil {
			slog.Warn("Dropping channel entry with unparseable timestamp",
				"path", s.path, "channel", key, "value", entry.LastUpdated, "error", err)
			continue
		}
		st.watermarks[ch] = ts
	}

	return st
}

// Save writes the state atomically via a temporary file and rename, so a crash
// mid-write cannot corrupt the previous valid file. Save failures propagate:
// silently losing a watermark update would break the incremental-run guarantee.
func (s *Store) Save(st *UserState) error {
	obj := make(map[string]json.RawMessage, len(st.watermarks)+len(st.extra))
	for key, msg := range st.extra {
		obj[key] = msg
	}
	for ch, ts := range st.watermarks {
		entry, err := json.Marshal(channelEntry{LastUpdated: FormatTimestamp(ts)})
		if err != nil {
			return fmt.Errorf("marshal state entry for %s: %w", ch, err)
		}
		obj[string(ch)] = entry
	}

	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return fmt.Errorf("write temporary state file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}
