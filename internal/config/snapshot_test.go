package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("5s")))
	assert.Equal(t, 5000, d.Milliseconds())

	require.NoError(t, d.UnmarshalText([]byte("2500")))
	assert.Equal(t, 2500, d.Milliseconds())

	assert.Error(t, d.UnmarshalText([]byte("not-a-duration")))
}

func TestDefaultSnapshot_Validates(t *testing.T) {
	snap := DefaultSnapshot()
	assert.NoError(t, snap.Validate())
}

func TestSnapshot_Validate_RejectsBadMaxVisible(t *testing.T) {
	snap := DefaultSnapshot()
	snap.Behavior.MaxVisible = 0
	assert.Error(t, snap.Validate())
}

func TestSnapshot_Validate_RejectsBadScheduleTime(t *testing.T) {
	snap := DefaultSnapshot()
	snap.DnD.Schedule = []DnDScheduleEntry{{Start: "25:99", End: "08:00"}}
	assert.Error(t, snap.Validate())
}

func TestSnapshot_Validate_RejectsBadRuleUrgency(t *testing.T) {
	snap := DefaultSnapshot()
	snap.Rules = []AppRule{{Name: "r1", MatchUrgency: "extreme"}}
	assert.Error(t, snap.Validate())
}

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	snap, err := LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSnapshot(), snap)
}

func TestSaveAndLoadFrom_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swaynotid.toml")
	snap := DefaultSnapshot()
	snap.Behavior.MaxVisible = 7
	snap.Rules = []AppRule{{Name: "mute-spotify", MatchAppName: "Spotify", SkipSound: true}}

	require.NoError(t, Save(snap, path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Behavior.MaxVisible)
	assert.Equal(t, "mute-spotify", loaded.Rules[0].Name)
	assert.True(t, loaded.Rules[0].SkipSound)
}

func TestGetTimeoutForUrgency(t *testing.T) {
	snap := DefaultSnapshot()
	assert.Equal(t, snap.Timeouts.Low.Milliseconds(), snap.GetTimeoutForUrgency(0))
	assert.Equal(t, snap.Timeouts.Normal.Milliseconds(), snap.GetTimeoutForUrgency(1))
	assert.Equal(t, snap.Timeouts.Critical.Milliseconds(), snap.GetTimeoutForUrgency(2))
}
