// Package wishlist keeps a persistent, schema-tolerant wishlist per client,
// renders it from live catalog data and moves saved items into the cart.
//
// Two kinds of records live in the repository:
//
//	wishlist-items    JSON array of {"handle":..,"variantId":..|null}
//	                  (a legacy array of bare handles is accepted on read)
//	wishlist:<handle> "true" | "false" presence flag
//
// Every mutation writes both so a toggle can read its pressed state from the
// flag alone.
package wishlist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"storefront-engine/internal/reconcile"
	"storefront-engine/internal/storage"
)

const (
	// ItemsKey holds the entry list.
	ItemsKey = "wishlist-items"
	// FlagPrefix prefixes the per-handle presence flag.
	FlagPrefix = "wishlist:"
)

// FlagKey returns the presence flag key for handle.
func FlagKey(handle string) string {
	return FlagPrefix + cleanHandle(handle)
}

// cleanHandle is applied to every handle a Store method receives, so list
// entries and flag keys always agree.
func cleanHandle(handle string) string {
	return strings.TrimSpace(handle)
}

// Entry is one saved product. VariantID is nil when no variant was chosen.
type Entry struct {
	Handle    string `json:"handle" validate:"required"`
	VariantID *int64 `json:"variantId"`
}

// Variant returns the variant id, or 0 when unknown.
func (e Entry) Variant() int64 {
	if e.VariantID == nil {
		return 0
	}
	return *e.VariantID
}

// VariantPtr converts a variant id into the optional form stored in entries.
// Zero and negative ids are treated as "no variant".
func VariantPtr(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

// Normalize decodes a persisted entry list. Legacy string items become
// {handle, nil}; objects need a non-empty string handle; anything else is
// dropped. Invalid JSON or a non-array value yields an empty list.
func Normalize(raw []byte) []Entry {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []Entry{}
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		var handle string
		if err := json.Unmarshal(item, &handle); err == nil {
			if handle != "" {
				entries = append(entries, Entry{Handle: handle})
			}
			continue
		}

		var obj struct {
			Handle    any             `json:"handle"`
			VariantID json.RawMessage `json:"variantId"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		h, ok := obj.Handle.(string)
		if !ok || h == "" {
			continue
		}
		entries = append(entries, Entry{Handle: h, VariantID: variantFromJSON(obj.VariantID)})
	}
	return entries
}

// variantFromJSON accepts whole positive JSON numbers only. Integers decode
// exactly across the full int64 range; a float literal such as 12.0 is
// accepted when it is whole.
func variantFromJSON(raw json.RawMessage) *int64 {
	if len(raw) == 0 {
		return nil
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		return VariantPtr(id)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil || strings.HasPrefix(string(raw), `"`) {
		return nil
	}
	f, err := n.Float64()
	if err != nil || f <= 0 || f != float64(int64(f)) {
		return nil
	}
	return VariantPtr(int64(f))
}

// Store is the wishlist repository for a single client.
// It is not safe for concurrent mutation of the same client; concurrent
// writers follow last-write-wins, matching the backing repository.
type Store struct {
	repo   storage.Store
	logger *slog.Logger
}

// NewStore creates a store over repo. A nil logger discards output.
func NewStore(repo storage.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{repo: repo, logger: logger}
}

// Items returns the normalized entry list. Read failures and malformed data
// both produce an empty list; failures are logged.
func (s *Store) Items(ctx context.Context) []Entry {
	raw, ok, err := s.repo.Get(ctx, ItemsKey)
	if err != nil {
		s.logger.Warn("wishlist read failed", "key", ItemsKey, "error", err)
		return []Entry{}
	}
	if !ok {
		return []Entry{}
	}
	return Normalize([]byte(raw))
}

// Handles returns the handles of Items in order.
func (s *Store) Handles(ctx context.Context) []string {
	items := s.Items(ctx)
	handles := make([]string, len(items))
	for i, e := range items {
		handles[i] = e.Handle
	}
	return handles
}

// IsSaved reads the presence flag for handle.
func (s *Store) IsSaved(ctx context.Context, handle string) bool {
	handle = cleanHandle(handle)
	v, ok, err := s.repo.Get(ctx, FlagKey(handle))
	if err != nil {
		s.logger.Warn("wishlist flag read failed", "handle", handle, "error", err)
		return false
	}
	return ok && v == "true"
}

// Upsert saves handle. An existing entry only takes variantID when it is
// non-nil, so a known variant is never cleared. The flag is set to "true".
func (s *Store) Upsert(ctx context.Context, handle string, variantID *int64) error {
	handle = cleanHandle(handle)
	if handle == "" {
		return fmt.Errorf("wishlist upsert: empty handle")
	}

	items := s.Items(ctx)
	if i := find(items, handle); i >= 0 {
		if variantID != nil {
			items[i].VariantID = variantID
		}
	} else {
		items = append(items, Entry{Handle: handle, VariantID: variantID})
	}

	if err := s.write(ctx, items); err != nil {
		return err
	}
	return s.setFlag(ctx, handle, true)
}

// Remove deletes handle from the list and sets its flag to "false".
// A handle that is neither listed nor flagged is a no-op; a stale "true"
// flag without a list entry is still cleared.
func (s *Store) Remove(ctx context.Context, handle string) error {
	handle = cleanHandle(handle)
	if handle == "" {
		return nil
	}

	items := s.Items(ctx)
	kept := items[:0]
	for _, e := range items {
		if e.Handle != handle {
			kept = append(kept, e)
		}
	}
	listed := len(kept) != len(items)
	if listed {
		if err := s.write(ctx, kept); err != nil {
			return err
		}
	} else if !s.hasFlag(ctx, handle) {
		return nil
	}
	return s.setFlag(ctx, handle, false)
}

// Toggle flips the presence flag and brings the list in line with it.
// Returns the new pressed state.
func (s *Store) Toggle(ctx context.Context, handle string, variantID *int64) (bool, error) {
	handle = cleanHandle(handle)
	next := !s.IsSaved(ctx, handle)
	if next {
		return true, s.Upsert(ctx, handle, variantID)
	}
	return false, s.Remove(ctx, handle)
}

// Replace makes the stored list equal to desired (first occurrence per
// handle wins) and returns the applied diff. Flags follow the result.
func (s *Store) Replace(ctx context.Context, desired []Entry) (*reconcile.EntryDiff, error) {
	cleaned := make([]Entry, 0, len(desired))
	for _, e := range desired {
		if e.Handle = cleanHandle(e.Handle); e.Handle != "" {
			cleaned = append(cleaned, e)
		}
	}
	desired = cleaned

	current := s.Items(ctx)
	diff := reconcile.DiffEntries(toReconcile(current), toReconcile(desired))
	if diff.IsEmpty() {
		return diff, nil
	}

	removed := make(map[string]bool, len(diff.ToRemove))
	for _, h := range diff.ToRemove {
		removed[h] = true
	}
	next := make([]Entry, 0, len(current)+len(diff.ToAdd))
	for _, e := range current {
		if !removed[e.Handle] {
			next = append(next, e)
		}
	}
	for _, u := range diff.ToUpdate {
		if i := find(next, u.Handle); i >= 0 {
			next[i].VariantID = VariantPtr(u.NewVariantID)
		}
	}
	for _, a := range diff.ToAdd {
		next = append(next, Entry{Handle: a.Handle, VariantID: VariantPtr(a.VariantID)})
	}

	if err := s.write(ctx, next); err != nil {
		return nil, err
	}
	for _, h := range diff.ToRemove {
		if err := s.setFlag(ctx, h, false); err != nil {
			return nil, err
		}
	}
	for _, a := range diff.ToAdd {
		if err := s.setFlag(ctx, a.Handle, true); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("wishlist replaced",
		"added", len(diff.ToAdd),
		"updated", len(diff.ToUpdate),
		"removed", len(diff.ToRemove))
	return diff, nil
}

func (s *Store) write(ctx context.Context, items []Entry) error {
	if items == nil {
		items = []Entry{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding wishlist: %w", err)
	}
	if err := s.repo.Set(ctx, ItemsKey, string(data)); err != nil {
		return fmt.Errorf("writing wishlist: %w", err)
	}
	return nil
}

func (s *Store) setFlag(ctx context.Context, handle string, saved bool) error {
	v := "false"
	if saved {
		v = "true"
	}
	if err := s.repo.Set(ctx, FlagKey(handle), v); err != nil {
		return fmt.Errorf("writing wishlist flag: %w", err)
	}
	return nil
}

func (s *Store) hasFlag(ctx context.Context, handle string) bool {
	_, ok, err := s.repo.Get(ctx, FlagKey(handle))
	if err != nil {
		s.logger.Warn("wishlist flag read failed", "handle", handle, "error", err)
		return false
	}
	return ok
}

func find(items []Entry, handle string) int {
	for i, e := range items {
		if e.Handle == handle {
			return i
		}
	}
	return -1
}

func toReconcile(entries []Entry) []reconcile.Entry {
	out := make([]reconcile.Entry, len(entries))
	for i, e := range entries {
		out[i] = reconcile.Entry{Handle: e.Handle, VariantID: e.Variant()}
	}
	return out
}
