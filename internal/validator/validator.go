package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
)

// Report is the result of crawling a dialog from its root sequence.
type Report struct {
	DialogID    int
	Reachable   []int // sequence ids, in visit order
	Unreachable []int // sequence ids never visited, sorted
	DeadEnds    []int // SELECT item ids whose every option leaves the engine (raw tokens)
}

// Crawl walks the dialog breadth-first from the root sequence,
// following option targets and next-sequence links.
func Crawl(d *domain.Dialog) Report {
	r := Report{DialogID: d.ID}
	visited := make(map[int]bool)
	queue := []int{domain.RootSequenceID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current] {
			continue
		}
		seq, ok := d.Sequences[current]
		if !ok {
			continue // Reported by Dialog.Validate
		}
		visited[current] = true
		r.Reachable = append(r.Reachable, current)

		for _, itemID := range seq.ItemIDs {
			item, ok := d.Items[itemID]
			if !ok {
				continue
			}
			if item.Type == domain.ItemSelect && len(item.OptionIDs) > 0 && allRaw(d, item) {
				r.DeadEnds = append(r.DeadEnds, item.ID)
			}
			for _, o := range d.OptionsOf(item) {
				if o.TargetSequenceID != nil && !visited[*o.TargetSequenceID] {
					queue = append(queue, *o.TargetSequenceID)
				}
			}
		}

		if seq.NextSequenceID != nil && !visited[*seq.NextSequenceID] {
			queue = append(queue, *seq.NextSequenceID)
		}
	}

	for id := range d.Sequences {
		if !visited[id] {
			r.Unreachable = append(r.Unreachable, id)
		}
	}
	sort.Ints(r.Unreachable)
	return r
}

func allRaw(d *domain.Dialog, item domain.Item) bool {
	for _, o := range d.OptionsOf(item) {
		if o.CallbackData == "" {
			return false
		}
	}
	return true
}

// ValidateDialog checks the structural invariants of the dialog, then crawls it
// and reports sequences that can never be entered.
// Dead ends are not errors: a leaf item made only of raw tokens is how a
// generated flow hands control back to a static screen.
func ValidateDialog(d *domain.Dialog) error {
	if err := d.Validate(); err != nil {
		return err
	}

	r := Crawl(d)
	if len(r.Unreachable) == 0 {
		return nil
	}

	lines := make([]string, len(r.Unreachable))
	for i, id := range r.Unreachable {
		lines[i] = fmt.Sprintf("Unreachable sequence: '%d'", id)
	}
	return fmt.Errorf("dialog %d: found %d errors:\n- %s", d.ID, len(lines), strings.Join(lines, "\n- "))
}
