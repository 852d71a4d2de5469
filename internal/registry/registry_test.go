package registry

import (
	"testing"

	"github.com/jmylchreest/swaynoti/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRegistry_InsertNewestFirst(t *testing.T) {
	r := New(NewestFirst)
	r.Insert(&model.Notification{ID: 1})
	r.Insert(&model.Notification{ID: 2})
	assert.Equal(t, []uint32{2, 1}, r.IDs())
}

func TestRegistry_InsertOldestFirst(t *testing.T) {
	r := New(OldestFirst)
	r.Insert(&model.Notification{ID: 1})
	r.Insert(&model.Notification{ID: 2})
	assert.Equal(t, []uint32{1, 2}, r.IDs())
}

func TestRegistry_InsertUrgencyDescending(t *testing.T) {
	r := New(UrgencyDescending)
	r.Insert(&model.Notification{ID: 1, Hints: model.Hints{Urgency: model.UrgencyNormal}})
	r.Insert(&model.Notification{ID: 2, Hints: model.Hints{Urgency: model.UrgencyCritical}})
	r.Insert(&model.Notification{ID: 3, Hints: model.Hints{Urgency: model.UrgencyLow}})
	assert.Equal(t, []uint32{2, 1, 3}, r.IDs())
}

func TestRegistry_RemoveAndHas(t *testing.T) {
	r := New(NewestFirst)
	r.Insert(&model.Notification{ID: 1})
	assert.True(t, r.Has(1))
	r.Remove(1)
	assert.False(t, r.Has(1))
	assert.Nil(t, r.Get(1))
}

func TestRegistry_Visible_Caps(t *testing.T) {
	r := New(OldestFirst)
	for i := uint32(1); i <= 5; i++ {
		r.Insert(&model.Notification{ID: i})
	}
	assert.Len(t, r.Visible(3), 3)
	assert.Len(t, r.Visible(0), 5)
	assert.Len(t, r.Visible(100), 5)
}

func TestRegistry_Visible_ReturnsClones(t *testing.T) {
	r := New(OldestFirst)
	r.Insert(&model.Notification{ID: 1, Summary: "original"})

	out := r.Visible(0)
	out[0].Summary = "mutated by caller"

	assert.Equal(t, "original", r.Get(1).Summary, "Visible must return clones, not live registry pointers")
}

func TestRegistry_Replace_PreservesPosition(t *testing.T) {
	r := New(OldestFirst)
	r.Insert(&model.Notification{ID: 1, Summary: "first"})
	r.Insert(&model.Notification{ID: 2, Summary: "second"})
	r.Replace(&model.Notification{ID: 1, Summary: "replaced"})

	assert.Equal(t, []uint32{1, 2}, r.IDs())
	assert.Equal(t, "replaced", r.Get(1).Summary)
}
