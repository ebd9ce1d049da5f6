package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Violation is a single broken invariant inside a dialog.
type Violation struct {
	Kind   string // "sequence", "item" or "option"
	ID     int
	Reason string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %d: %s", v.Kind, v.ID, v.Reason)
}

// ValidationError aggregates every violation found in a dialog.
type ValidationError struct {
	DialogID   int
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("dialog %d: %s", e.DialogID, e.Violations[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "dialog %d: %d violations:\n", e.DialogID, len(e.Violations))
	for i, v := range e.Violations {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, v)
	}
	return sb.String()
}

// Validate checks the structural invariants of the dialog.
// It returns a *ValidationError listing all violations, or nil.
func (d *Dialog) Validate() error {
	var vs []Violation
	add := func(kind string, id int, format string, args ...any) {
		vs = append(vs, Violation{Kind: kind, ID: id, Reason: fmt.Sprintf(format, args...)})
	}

	if _, ok := d.Sequences[RootSequenceID]; !ok {
		add("sequence", RootSequenceID, "root sequence is missing")
	}

	for _, key := range sortedKeys(d.Sequences) {
		seq := d.Sequences[key]
		if seq.ID != key {
			add("sequence", key, "stored under key %d but has id %d", key, seq.ID)
		}
		if len(seq.ItemIDs) == 0 {
			add("sequence", key, "has no items")
		}
		for _, id := range seq.ItemIDs {
			if _, ok := d.Items[id]; !ok {
				add("sequence", key, "references missing item %d", id)
			}
		}
		if seq.NextSequenceID != nil {
			if _, ok := d.Sequences[*seq.NextSequenceID]; !ok {
				add("sequence", key, "next sequence %d does not exist", *seq.NextSequenceID)
			}
		}
	}

	for _, key := range sortedKeys(d.Items) {
		it := d.Items[key]
		if it.ID != key {
			add("item", key, "stored under key %d but has id %d", key, it.ID)
		}
		if it.Type != ItemSelect && it.Type != ItemTextInput {
			add("item", key, "unknown type %q", it.Type)
		}
		for _, id := range it.OptionIDs {
			if _, ok := d.Options[id]; !ok {
				add("item", key, "references missing option %d", id)
			}
		}
	}

	for _, key := range sortedKeys(d.Options) {
		o := d.Options[key]
		if o.ID != key {
			add("option", key, "stored under key %d but has id %d", key, o.ID)
		}
		if o.TargetSequenceID != nil {
			if _, ok := d.Sequences[*o.TargetSequenceID]; !ok {
				add("option", key, "target sequence %d does not exist", *o.TargetSequenceID)
			}
		}
	}

	if len(vs) > 0 {
		return &ValidationError{DialogID: d.ID, Violations: vs}
	}
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
