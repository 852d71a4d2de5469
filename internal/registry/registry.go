// Package registry tracks the set of currently-live notifications and
// their display order. It is not safe for concurrent use: the lifecycle
// coordinator is its only caller, and it runs on a single goroutine, so
// the registry carries no locks on its hot path.
package registry

import "github.com/jmylchreest/swaynoti/internal/model"

// SortOrder controls where a newly-shown notification is inserted into the
// display order.
type SortOrder int

const (
	// NewestFirst inserts new notifications at the front.
	NewestFirst SortOrder = iota
	// OldestFirst appends new notifications at the back.
	OldestFirst
	// UrgencyDescending inserts before the first lower-urgency entry.
	UrgencyDescending
)

// ParseSortOrder maps a config.Snapshot "sort_order" string to a SortOrder,
// defaulting to NewestFirst for an empty or unrecognized value.
func ParseSortOrder(s string) SortOrder {
	switch s {
	case "oldest_first":
		return OldestFirst
	case "urgency_descending":
		return UrgencyDescending
	default:
		return NewestFirst
	}
}

// Registry holds the live notification set plus its display order.
type Registry struct {
	byID  map[uint32]*model.Notification
	order []uint32
	sort  SortOrder
}

// New returns an empty Registry using the given sort order for new
// insertions.
func New(sort SortOrder) *Registry {
	return &Registry{
		byID: make(map[uint32]*model.Notification),
		sort: sort,
	}
}

// SetSortOrder changes the sort order applied to future Insert calls. The
// current display order is left as-is; only new arrivals see the change.
func (r *Registry) SetSortOrder(sort SortOrder) {
	r.sort = sort
}

// Get returns the live notification for id, or nil if it isn't tracked.
func (r *Registry) Get(id uint32) *model.Notification {
	return r.byID[id]
}

// Has reports whether id is currently tracked.
func (r *Registry) Has(id uint32) bool {
	_, ok := r.byID[id]
	return ok
}

// Count returns the number of live notifications.
func (r *Registry) Count() int {
	return len(r.byID)
}

// Insert adds a brand-new notification and places it in the display order
// according to the registry's sort order.
func (r *Registry) Insert(n *model.Notification) {
	r.byID[n.ID] = n

	switch r.sort {
	case OldestFirst:
		r.order = append(r.order, n.ID)
	case UrgencyDescending:
		pos := len(r.order)
		for i, existingID := range r.order {
			if existing := r.byID[existingID]; existing != nil && existing.Hints.Urgency < n.Hints.Urgency {
				pos = i
				break
			}
		}
		r.order = append(r.order, 0)
		copy(r.order[pos+1:], r.order[pos:])
		r.order[pos] = n.ID
	default: // NewestFirst
		r.order = append([]uint32{n.ID}, r.order...)
	}
}

// Replace overwrites an existing notification in place, preserving its
// current position in the display order.
func (r *Registry) Replace(n *model.Notification) {
	r.byID[n.ID] = n
}

// Remove drops id from both the live map and the display order.
func (r *Registry) Remove(id uint32) {
	delete(r.byID, id)
	for i, existingID := range r.order {
		if existingID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Visible returns clones of up to maxVisible live notifications in display
// order (spec.md §4.5), so callers that hand the result across a goroutine
// boundary (e.g. a control-socket query reply) never share the registry's
// own backing objects.
func (r *Registry) Visible(maxVisible int) []*model.Notification {
	if maxVisible <= 0 || maxVisible > len(r.order) {
		maxVisible = len(r.order)
	}
	out := make([]*model.Notification, 0, maxVisible)
	for _, id := range r.order[:maxVisible] {
		if n := r.byID[id]; n != nil {
			out = append(out, n.Clone())
		}
	}
	return out
}

// All returns every live notification in display order.
func (r *Registry) All() []*model.Notification {
	return r.Visible(0)
}

// IDs returns every live id in display order.
func (r *Registry) IDs() []uint32 {
	return append([]uint32(nil), r.order...)
}
