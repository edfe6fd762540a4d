// Package binder joins independently planned dialects into one aggregate.
//
// Bind is the barrier of the compile pipeline: per-dialect work runs
// concurrently and in any order, Bind receives every result at once and
// fixes a single deterministic order (by dialect name) for whatever is
// rendered from the aggregate.
package binder

import (
	"sort"

	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/layout"
)

// Aggregate is the set of dialects bound into one dispatch unit.
type Aggregate struct {
	// Dialects sorted by name.
	Dialects []*layout.Dialect
}

// Bind sorts dialects by name. Two dialects with the same name are
// ErrDuplicateDialect: their dispatch tags would be indistinguishable.
func Bind(dialects []*layout.Dialect) (*Aggregate, error) {
	sorted := make([]*layout.Dialect, 0, len(dialects))
	for _, d := range dialects {
		if d == nil {
			return nil, errors.AssertionFailedf("bind: nil dialect")
		}
		sorted = append(sorted, d)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Name() == sorted[i-1].Name() {
			return nil, errors.WithHint(
				errors.Wrapf(errors.ErrDuplicateDialect, "%s (%s and %s)", sorted[i].Name(), sorted[i-1].Set.Path, sorted[i].Set.Path),
				"dialect names come from file base names; rename one of the files",
			)
		}
	}
	return &Aggregate{Dialects: sorted}, nil
}

// Names lists the bound dialect names in order.
func (a *Aggregate) Names() []string {
	out := make([]string, len(a.Dialects))
	for i, d := range a.Dialects {
		out[i] = d.Name()
	}
	return out
}

// Dialect returns the bound dialect called name, or nil.
func (a *Aggregate) Dialect(name string) *layout.Dialect {
	i := sort.Search(len(a.Dialects), func(i int) bool { return a.Dialects[i].Name() >= name })
	if i < len(a.Dialects) && a.Dialects[i].Name() == name {
		return a.Dialects[i]
	}
	return nil
}

// SharedID is a message id defined by more than one bound dialect.
type SharedID struct {
	ID uint32
	// Messages maps dialect name to the message it defines under ID.
	Messages map[string]*layout.Message
}

// Distinct reports whether the dialects disagree on the message, by name
// or by crc_extra. Dialects that include the same file agree.
func (s SharedID) Distinct() bool {
	var first *layout.Message
	for _, m := range s.Messages {
		if first == nil {
			first = m
			continue
		}
		if m.Name != first.Name || m.CRCExtra != first.CRCExtra {
			return true
		}
	}
	return false
}

// SharedIDs lists the ids defined by two or more dialects, sorted by id.
func (a *Aggregate) SharedIDs() []SharedID {
	byID := make(map[uint32]map[string]*layout.Message)
	for _, d := range a.Dialects {
		for _, m := range d.Messages {
			if byID[m.ID] == nil {
				byID[m.ID] = make(map[string]*layout.Message)
			}
			byID[m.ID][d.Name()] = m
		}
	}

	var out []SharedID
	for id, msgs := range byID {
		if len(msgs) > 1 {
			out = append(out, SharedID{ID: id, Messages: msgs})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
