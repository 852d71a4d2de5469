package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"low", UrgencyLow, true},
		{"Normal", UrgencyNormal, true},
		{"CRITICAL", UrgencyCritical, true},
		{"1", UrgencyNormal, true},
		{"banana", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseUrgency(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestParseActions(t *testing.T) {
	actions := ParseActions([]string{"default", "Open", "close", "Dismiss", "trailing"})
	assert.Equal(t, []Action{
		{Key: "default", Label: "Open"},
		{Key: "close", Label: "Dismiss"},
	}, actions)
	assert.True(t, actions[0].IsDefault())
	assert.False(t, actions[1].IsDefault())
}

func TestHints_ClampedProgress(t *testing.T) {
	assert.Equal(t, -1, Hints{Progress: -1}.ClampedProgress())
	assert.Equal(t, 0, Hints{Progress: 0}.ClampedProgress())
	assert.Equal(t, 100, Hints{Progress: 150}.ClampedProgress())
	assert.Equal(t, 50, Hints{Progress: 50}.ClampedProgress())
}

func TestNotification_Epoch(t *testing.T) {
	n := &Notification{}
	assert.Equal(t, uint64(0), n.Epoch())
	assert.Equal(t, uint64(1), n.NextEpoch())
	assert.Equal(t, uint64(2), n.NextEpoch())
	assert.Equal(t, uint64(2), n.Epoch())
}

func TestNotification_HasAction(t *testing.T) {
	n := &Notification{Actions: []Action{{Key: "default", Label: "Open"}}}
	assert.True(t, n.HasAction("default"))
	assert.False(t, n.HasAction("close"))
}

func TestNotification_Clone(t *testing.T) {
	n := &Notification{
		ID:      1,
		AppName: "firefox",
		Actions: []Action{{Key: "default", Label: "Open"}},
		Hints: Hints{
			Urgency:   UrgencyCritical,
			ImageData: &ImageData{Width: 1, Height: 1, Data: []byte{1, 2, 3}},
		},
	}

	clone := n.Clone()
	clone.AppName = "chrome"
	clone.Actions[0].Label = "changed"
	clone.Hints.ImageData.Data[0] = 9

	assert.Equal(t, "firefox", n.AppName)
	assert.Equal(t, "Open", n.Actions[0].Label)
	assert.Equal(t, byte(1), n.Hints.ImageData.Data[0])
}

func TestNotification_HasExpiry(t *testing.T) {
	n := &Notification{}
	assert.False(t, n.HasExpiry())
	n.ExpiresAt = time.Now()
	assert.True(t, n.HasExpiry())
}

func TestNewHistoryEntry(t *testing.T) {
	n := &Notification{
		ID:      42,
		AppName: "firefox",
		Summary: "Download complete",
		Hints:   Hints{Urgency: UrgencyCritical},
		Actions: []Action{{Key: "default", Label: "Open"}},
	}

	entry, err := NewHistoryEntry(n)
	assert.NoError(t, err)
	assert.Equal(t, uint32(42), entry.NotificationID)
	assert.Equal(t, "critical", entry.Urgency)
	assert.Equal(t, []string{"default"}, entry.Actions)

	_, err = NewHistoryEntry(&Notification{})
	assert.ErrorIs(t, err, ErrEmptyAppName)
}
