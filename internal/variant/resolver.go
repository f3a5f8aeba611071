package variant

import (
	"storefront-engine/internal/model"
)

// Resolver maps selections to variants for a single product snapshot.
//
// Availability is computed for every dependent axis against the primary
// axis only: a dependent value is available when some variant carries it
// together with the currently selected primary value. An unset primary axis
// applies no filter.
type Resolver struct {
	variants []model.Variant
	axes     int
	primary  int // 0-based primary axis index
}

// NewResolver creates a resolver with axis 1 as the primary axis.
func NewResolver(p *model.Product) *Resolver {
	return NewResolverWithPrimary(p, 1)
}

// NewResolverWithPrimary creates a resolver using the given 1-based primary
// axis. Out-of-range positions fall back to axis 1.
func NewResolverWithPrimary(p *model.Product, primaryPosition int) *Resolver {
	axes := p.AxisCount()
	primary := primaryPosition - 1
	if primary < 0 || primary >= axes {
		primary = 0
	}
	return &Resolver{
		variants: p.Variants,
		axes:     axes,
		primary:  primary,
	}
}

// AxisCount returns the product-wide number of option axes.
func (r *Resolver) AxisCount() int {
	return r.axes
}

// Match returns the first variant, in list order, whose options agree with
// every set axis of sel. Unset axes are wildcards, so an all-unset (or
// zero-axis) selection matches the first variant. An empty variant list never
// matches.
func (r *Resolver) Match(sel Selection) (*model.Variant, bool) {
	for i := range r.variants {
		if matches(&r.variants[i], sel) {
			return &r.variants[i], true
		}
	}
	return nil, false
}

func matches(v *model.Variant, sel Selection) bool {
	for i, want := range sel {
		if want == Unset {
			continue
		}
		if optionAt(v, i) != want {
			return false
		}
	}
	return true
}

func optionAt(v *model.Variant, index int) string {
	if index < 0 || index >= len(v.Options) {
		return Unset
	}
	return v.Options[index]
}

// ValueState is the availability of one candidate value on an axis.
type ValueState struct {
	Value     string `json:"value"`
	Available bool   `json:"available"`
}

// AxisAvailability lists every candidate value of one dependent axis.
type AxisAvailability struct {
	Position int          `json:"position"` // 1-based
	Values   []ValueState `json:"values"`
}

// Available reports whether value is selectable on this axis.
func (a AxisAvailability) Available(value string) bool {
	for _, v := range a.Values {
		if v.Value == value {
			return v.Available
		}
	}
	return false
}

// FirstAvailable returns the first available value, or Unset.
func (a AxisAvailability) FirstAvailable() string {
	for _, v := range a.Values {
		if v.Available {
			return v.Value
		}
	}
	return Unset
}

// ForcedSelection records a dependent axis whose selected value became
// unavailable and was replaced with the first available value.
type ForcedSelection struct {
	Position int    `json:"position"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// AvailabilityResult is the outcome of an availability pass.
type AvailabilityResult struct {
	Axes      []AxisAvailability `json:"axes"`
	Forced    []ForcedSelection  `json:"forced,omitempty"`
	Selection Selection          `json:"selection"`
}

// Availability computes per-value availability for every dependent axis and
// returns the selection after forced re-selection. sel itself is not mutated.
func (r *Resolver) Availability(sel Selection) AvailabilityResult {
	out := sel.Clone()
	result := AvailabilityResult{}
	if r.axes < 2 {
		result.Selection = out
		return result
	}

	primaryValue := out.Value(r.primary + 1)

	for axis := 0; axis < r.axes; axis++ {
		if axis == r.primary {
			continue
		}
		avail := AxisAvailability{Position: axis + 1}
		seen := make(map[string]int)
		for i := range r.variants {
			v := &r.variants[i]
			candidate := optionAt(v, axis)
			if candidate == Unset {
				continue
			}
			idx, ok := seen[candidate]
			if !ok {
				idx = len(avail.Values)
				seen[candidate] = idx
				avail.Values = append(avail.Values, ValueState{Value: candidate})
			}
			if primaryValue == Unset || optionAt(v, r.primary) == primaryValue {
				avail.Values[idx].Available = true
			}
		}

		current := out.Value(axis + 1)
		if current != Unset && !avail.Available(current) {
			if first := avail.FirstAvailable(); first != Unset {
				out[axis] = first
				result.Forced = append(result.Forced, ForcedSelection{
					Position: axis + 1,
					From:     current,
					To:       first,
				})
			}
		}
		result.Axes = append(result.Axes, avail)
	}

	result.Selection = out
	return result
}
