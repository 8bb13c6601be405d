package save

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/tradewinds-server/internal/clock"
	"github.com/everforgeworks/tradewinds-server/internal/market"
	"github.com/everforgeworks/tradewinds-server/internal/player"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		SchemaVersion: CurrentSchemaVersion,
		SavedAt:       time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		Clock: ClockState{
			Minute: 30, Hour: 14, Day: 12, Week: 2, Month: 3, Year: 1,
			Speed: clock.Normal,
		},
		Player: player.State{
			Gold:        250,
			LocationKey: "loc_port",
			Inventory:   map[string]int{"item_grain": 4},
			Vitals:      player.Vitals{Health: 80, MaxHealth: 100},
		},
		Markets: map[string][]market.Entry{
			"loc_port": {{ItemKey: "item_grain", BasePrice: 8, Price: 9, Stock: 12, Ratio: 1.1}},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	snap := sampleSnapshot()

	require.NoError(t, WriteFile(path, snap))

	loaded, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestWriteFileIsAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	require.NoError(t, WriteFile(path, sampleSnapshot()))

	// The temp file must not linger after a successful commit.
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	// Overwriting an existing save works the same way.
	snap := sampleSnapshot()
	snap.Player.Gold = 999
	require.NoError(t, WriteFile(path, snap))
	loaded, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 999, loaded.Player.Gold)
}

func TestReadFileRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save.json")
	snap := sampleSnapshot()
	snap.SchemaVersion = CurrentSchemaVersion + 1
	require.NoError(t, WriteFile(path, snap))

	_, err := ReadFile(path)
	assert.ErrorContains(t, err, "newer than supported")
}

func TestReadFileErrors(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "garbage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = ReadFile(path)
	assert.Error(t, err)
}
