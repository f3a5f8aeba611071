// Package reconcile computes the mutations that bring a stored wishlist in
// line with a desired one. The wishlist store uses it for full-replace (PUT)
// semantics: read current entries, diff, then apply only what changed.
package reconcile

// EntryDiff describes the mutations needed to reconcile wishlist entries.
// Apply in order: Remove → Update → Add, so an entry is never updated after
// it was removed.
//
// Ordering is deterministic: removals follow current order, updates and
// additions follow desired order.
type EntryDiff struct {
	ToAdd    []Entry  // Handles in desired but not current
	ToRemove []string // Handles in current but not desired
	ToUpdate []Update // Handles in both whose variant changes
}

// Entry is a wishlist entry reduced to what the diff compares.
// VariantID 0 means no known variant.
type Entry struct {
	Handle    string
	VariantID int64
}

// Update is a variant change for an existing handle.
type Update struct {
	Handle       string
	OldVariantID int64
	NewVariantID int64
}

// IsEmpty returns true if no changes are needed.
func (d *EntryDiff) IsEmpty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0 && len(d.ToUpdate) == 0
}

// DiffEntries computes the delta between current and desired entries.
// Matching is by handle. A desired entry without a variant never clears a
// known variant, the same rule upsert follows. Duplicate handles collapse to
// the first occurrence.
func DiffEntries(current, desired []Entry) *EntryDiff {
	diff := &EntryDiff{}

	currentByHandle := make(map[string]Entry, len(current))
	for _, e := range current {
		if _, dup := currentByHandle[e.Handle]; !dup {
			currentByHandle[e.Handle] = e
		}
	}

	desiredSet := make(map[string]bool, len(desired))
	for _, want := range desired {
		if want.Handle == "" || desiredSet[want.Handle] {
			continue
		}
		desiredSet[want.Handle] = true

		have, exists := currentByHandle[want.Handle]
		if !exists {
			diff.ToAdd = append(diff.ToAdd, want)
			continue
		}
		if want.VariantID != 0 && want.VariantID != have.VariantID {
			diff.ToUpdate = append(diff.ToUpdate, Update{
				Handle:       want.Handle,
				OldVariantID: have.VariantID,
				NewVariantID: want.VariantID,
			})
		}
	}

	removed := make(map[string]bool)
	for _, have := range current {
		if !desiredSet[have.Handle] && !removed[have.Handle] {
			removed[have.Handle] = true
			diff.ToRemove = append(diff.ToRemove, have.Handle)
		}
	}

	return diff
}

// HandleDiff is a plain set difference over handles.
type HandleDiff struct {
	Added   []string // In desired but not current
	Removed []string // In current but not desired
}

// DiffHandles computes the set difference between two handle lists,
// preserving input order. Used to report which saved handles changed
// between two store snapshots.
func DiffHandles(current, desired []string) *HandleDiff {
	diff := &HandleDiff{}

	currentSet := make(map[string]bool, len(current))
	for _, h := range current {
		currentSet[h] = true
	}
	desiredSet := make(map[string]bool, len(desired))
	for _, h := range desired {
		desiredSet[h] = true
	}

	for _, h := range desired {
		if !currentSet[h] {
			diff.Added = append(diff.Added, h)
			currentSet[h] = true
		}
	}
	for _, h := range current {
		if !desiredSet[h] {
			diff.Removed = append(diff.Removed, h)
			desiredSet[h] = true
		}
	}
	return diff
}
