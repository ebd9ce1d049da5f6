package domain

import "fmt"

// ItemType defines how an item collects the user's answer.
type ItemType string

const (
	// ItemSelect renders the item's options as buttons and waits for a press.
	ItemSelect ItemType = "SELECT"
	// ItemTextInput renders a prompt and waits for free text.
	ItemTextInput ItemType = "TEXT_INPUT"
)

// RootSequenceID is the sequence every dialog starts in.
const RootSequenceID = 0

// Dialog is one conversational flow: a two-level hierarchy of
// Sequences holding Items, and Items holding Options.
//
// A Dialog is treated as immutable once handed to the engine.
// Regenerated dialogs are new values, never mutated in place.
type Dialog struct {
	ID        int              `json:"id" yaml:"id"`
	Sequences map[int]Sequence `json:"sequences" yaml:"sequences"`
	Items     map[int]Item     `json:"items" yaml:"items"`
	Options   map[int]Option   `json:"options" yaml:"options"`
}

// Sequence is an ordered list of item ids with an optional follow-up sequence.
type Sequence struct {
	ID             int   `json:"id" yaml:"id"`
	ItemIDs        []int `json:"items_ids" yaml:"items_ids"`
	NextSequenceID *int  `json:"next_sequence_id,omitempty" yaml:"next_sequence_id,omitempty"`
}

// Item is a single rendered step.
type Item struct {
	ID        int      `json:"id" yaml:"id"`
	Text      string   `json:"text" yaml:"text"` // literal text or localization key
	Type      ItemType `json:"type" yaml:"type"`
	OptionIDs []int    `json:"options_ids,omitempty" yaml:"options_ids,omitempty"`
	Images    []string `json:"images,omitempty" yaml:"images,omitempty"`

	// Args are passed to the text resolver when Text is a localization key.
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
}

// Option is a selectable choice on a SELECT item.
type Option struct {
	ID               int    `json:"id" yaml:"id"`
	Text             string `json:"text" yaml:"text"`
	TargetSequenceID *int   `json:"target_sequence_id,omitempty" yaml:"target_sequence_id,omitempty"`
	Row              int    `json:"row" yaml:"row"`

	// CallbackData overrides the generated route token of the button.
	// Pressing such a button never reaches the engine as an option selection.
	CallbackData string `json:"callback_data,omitempty" yaml:"callback_data,omitempty"`
}

// NewDialog creates an empty dialog.
func NewDialog(id int) *Dialog {
	return &Dialog{
		ID:        id,
		Sequences: make(map[int]Sequence),
		Items:     make(map[int]Item),
		Options:   make(map[int]Option),
	}
}

// Ref returns a pointer to id, for the optional id fields.
func Ref(id int) *int {
	return &id
}

// Sequence looks up a sequence by id.
func (d *Dialog) Sequence(id int) (Sequence, bool) {
	s, ok := d.Sequences[id]
	return s, ok
}

// Item looks up an item by id.
func (d *Dialog) Item(id int) (Item, bool) {
	it, ok := d.Items[id]
	return it, ok
}

// Option looks up an option by id.
func (d *Dialog) Option(id int) (Option, bool) {
	o, ok := d.Options[id]
	return o, ok
}

// ItemAt resolves the item at index within a sequence.
func (d *Dialog) ItemAt(sequenceID, index int) (Item, error) {
	seq, ok := d.Sequences[sequenceID]
	if !ok {
		return Item{}, fmt.Errorf("%w: %d", ErrUnknownSequence, sequenceID)
	}
	if index < 0 || index >= len(seq.ItemIDs) {
		return Item{}, fmt.Errorf("%w: index %d in sequence %d", ErrUnknownItem, index, sequenceID)
	}
	it, ok := d.Items[seq.ItemIDs[index]]
	if !ok {
		return Item{}, fmt.Errorf("%w: %d", ErrUnknownItem, seq.ItemIDs[index])
	}
	return it, nil
}

// IndexOf returns the index of itemID inside the sequence.
func (d *Dialog) IndexOf(sequenceID, itemID int) (int, bool) {
	seq, ok := d.Sequences[sequenceID]
	if !ok {
		return 0, false
	}
	for i, id := range seq.ItemIDs {
		if id == itemID {
			return i, true
		}
	}
	return 0, false
}

// OptionsOf returns the options of an item in declaration order, skipping dangling ids.
func (d *Dialog) OptionsOf(item Item) []Option {
	opts := make([]Option, 0, len(item.OptionIDs))
	for _, id := range item.OptionIDs {
		if o, ok := d.Options[id]; ok {
			opts = append(opts, o)
		}
	}
	return opts
}

// HasOption reports whether optionID belongs to the item.
func (item Item) HasOption(optionID int) bool {
	for _, id := range item.OptionIDs {
		if id == optionID {
			return true
		}
	}
	return false
}
