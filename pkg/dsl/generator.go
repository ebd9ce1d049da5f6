package dsl

import (
	"fmt"
	"maps"

	"github.com/aretw0/arbor/pkg/domain"
)

// Generator builds a dialog imperatively, assigning ids on its own.
// Ids are monotonically increasing per kind (sequence, item, option),
// so the first created sequence is the root sequence.
type Generator struct {
	dialog *domain.Dialog

	nextSequence int
	nextItem     int
	nextOption   int
}

// NewGenerator starts an empty dialog.
func NewGenerator(dialogID int) *Generator {
	return &Generator{dialog: domain.NewDialog(dialogID)}
}

// Import copies a static dialog into the generator and advances the id
// counters past every imported id, so later ids never collide.
func (g *Generator) Import(d *domain.Dialog) {
	for id, s := range d.Sequences {
		s.ItemIDs = append([]int(nil), s.ItemIDs...)
		s.NextSequenceID = copyRef(s.NextSequenceID)
		g.dialog.Sequences[id] = s
		g.nextSequence = max(g.nextSequence, id+1)
	}
	for id, it := range d.Items {
		it.OptionIDs = append([]int(nil), it.OptionIDs...)
		it.Images = append([]string(nil), it.Images...)
		it.Args = maps.Clone(it.Args)
		g.dialog.Items[id] = it
		g.nextItem = max(g.nextItem, id+1)
	}
	for id, o := range d.Options {
		o.TargetSequenceID = copyRef(o.TargetSequenceID)
		g.dialog.Options[id] = o
		g.nextOption = max(g.nextOption, id+1)
	}
}

// CreateSequence adds an empty sequence and returns its id.
func (g *Generator) CreateSequence() int {
	id := g.nextSequence
	g.nextSequence++
	g.dialog.Sequences[id] = domain.Sequence{ID: id}
	return id
}

// CreateItem adds a detached item and returns its id.
func (g *Generator) CreateItem(text string, typ domain.ItemType) int {
	id := g.nextItem
	g.nextItem++
	g.dialog.Items[id] = domain.Item{ID: id, Text: text, Type: typ}
	return id
}

// CreateOption adds a detached option on the given button row and returns its id.
func (g *Generator) CreateOption(text string, row int) int {
	id := g.nextOption
	g.nextOption++
	g.dialog.Options[id] = domain.Option{ID: id, Text: text, Row: row}
	return id
}

// AddItemToSequence appends an item to a sequence.
func (g *Generator) AddItemToSequence(sequenceID, itemID int) error {
	seq, ok := g.dialog.Sequences[sequenceID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownSequence, sequenceID)
	}
	if _, ok := g.dialog.Items[itemID]; !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownItem, itemID)
	}
	seq.ItemIDs = append(seq.ItemIDs, itemID)
	g.dialog.Sequences[sequenceID] = seq
	return nil
}

// AddOptionToItem appends an option to an item.
func (g *Generator) AddOptionToItem(itemID, optionID int) error {
	it, ok := g.dialog.Items[itemID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownItem, itemID)
	}
	if _, ok := g.dialog.Options[optionID]; !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownOption, optionID)
	}
	it.OptionIDs = append(it.OptionIDs, optionID)
	g.dialog.Items[itemID] = it
	return nil
}

// LinkOptionToSequence makes the option jump to a sequence.
// The target may be created later; Build checks it exists.
func (g *Generator) LinkOptionToSequence(optionID, sequenceID int) error {
	o, ok := g.dialog.Options[optionID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownOption, optionID)
	}
	o.TargetSequenceID = domain.Ref(sequenceID)
	g.dialog.Options[optionID] = o
	return nil
}

// SetNextSequence chains a sequence to the one that follows it.
func (g *Generator) SetNextSequence(sequenceID, nextID int) error {
	seq, ok := g.dialog.Sequences[sequenceID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownSequence, sequenceID)
	}
	seq.NextSequenceID = domain.Ref(nextID)
	g.dialog.Sequences[sequenceID] = seq
	return nil
}

// SetCallbackData makes the option's button carry a raw route token.
func (g *Generator) SetCallbackData(optionID int, token string) error {
	o, ok := g.dialog.Options[optionID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownOption, optionID)
	}
	o.CallbackData = token
	g.dialog.Options[optionID] = o
	return nil
}

// SetImages attaches images to an item.
func (g *Generator) SetImages(itemID int, urls ...string) error {
	it, ok := g.dialog.Items[itemID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownItem, itemID)
	}
	it.Images = append([]string(nil), urls...)
	g.dialog.Items[itemID] = it
	return nil
}

// SetArgs attaches text resolver arguments to an item.
func (g *Generator) SetArgs(itemID int, args map[string]any) error {
	it, ok := g.dialog.Items[itemID]
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownItem, itemID)
	}
	it.Args = maps.Clone(args)
	g.dialog.Items[itemID] = it
	return nil
}

// Build validates the dialog and returns a fresh copy of it.
// The generator can keep being used; earlier builds are never mutated.
func (g *Generator) Build() (*domain.Dialog, error) {
	if err := g.dialog.Validate(); err != nil {
		return nil, err
	}
	out := NewGenerator(g.dialog.ID)
	out.Import(g.dialog)
	return out.dialog, nil
}

func copyRef(p *int) *int {
	if p == nil {
		return nil
	}
	return domain.Ref(*p)
}
