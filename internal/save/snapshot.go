/*
Package save
File: snapshot.go
Description:
    The persisted state shape exchanged with the save collaborator (the
    browser's storage layer, or the autosave file in server mode). The core
    does not own the storage mechanics, only the schema. SchemaVersion lets
    future content versions migrate instead of guessing.
*/

package save

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/everforgeworks/tradewinds-server/internal/clock"
	"github.com/everforgeworks/tradewinds-server/internal/event"
	"github.com/everforgeworks/tradewinds-server/internal/market"
	"github.com/everforgeworks/tradewinds-server/internal/player"
)

// CurrentSchemaVersion is written into every new snapshot.
const CurrentSchemaVersion = 1

// ClockState is the persisted calendar.
type ClockState struct {
	Minute int         `json:"minute"`
	Hour   int         `json:"hour"`
	Day    int         `json:"day"`
	Week   int         `json:"week"`
	Month  int         `json:"month"`
	Year   int         `json:"year"`
	Speed  clock.Speed `json:"speed"`
}

// Snapshot is the full persisted state of one session.
type Snapshot struct {
	SchemaVersion   int                       `json:"schema_version"`
	SavedAt         time.Time                 `json:"saved_at"`
	Clock           ClockState                `json:"clock"`
	Player          player.State              `json:"player"`
	ActiveEvents    []event.Active            `json:"active_events"`
	ScheduledEvents []event.Scheduled         `json:"scheduled_events"`
	Markets         map[string][]market.Entry `json:"markets"`
}

// WriteFile serializes a snapshot to disk, atomically via a temp file so a
// crash mid-write never corrupts the previous save.
func WriteFile(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// ReadFile loads a snapshot from disk. A malformed file is an error here;
// field-level leniency happens in the engine's Restore, which falls back to
// defaults per corrupt section rather than aborting the load.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if snap.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("snapshot schema v%d is newer than supported v%d", snap.SchemaVersion, CurrentSchemaVersion)
	}
	return &snap, nil
}
