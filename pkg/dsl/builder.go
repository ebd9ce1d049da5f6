package dsl

import (
	"errors"

	"github.com/aretw0/arbor/pkg/domain"
)

var errNoItem = errors.New("option added before any item")

// Builder is a fluent wrapper around Generator for linear flows.
// The first error encountered is kept and reported by Build.
type Builder struct {
	gen *Generator
	err error
}

// New creates a new dialog builder.
func New(dialogID int) *Builder {
	return &Builder{gen: NewGenerator(dialogID)}
}

// Sequence opens a new sequence. The first one opened is the root.
func (b *Builder) Sequence() *SequenceBuilder {
	return &SequenceBuilder{builder: b, id: b.gen.CreateSequence(), item: -1}
}

// Generator exposes the underlying generator for advanced edits.
func (b *Builder) Generator() *Generator {
	return b.gen
}

// Build validates and returns the dialog.
func (b *Builder) Build() (*domain.Dialog, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.gen.Build()
}

func (b *Builder) record(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

// SequenceBuilder provides a fluent API for filling one sequence.
type SequenceBuilder struct {
	builder *Builder
	id      int
	item    int
}

// ID returns the sequence id, useful as an option target.
func (s *SequenceBuilder) ID() int {
	return s.id
}

// Select appends a multiple-choice item.
func (s *SequenceBuilder) Select(text string) *SequenceBuilder {
	return s.addItem(text, domain.ItemSelect)
}

// Input appends a free-text item.
func (s *SequenceBuilder) Input(text string) *SequenceBuilder {
	return s.addItem(text, domain.ItemTextInput)
}

// Images attaches images to the last item.
func (s *SequenceBuilder) Images(urls ...string) *SequenceBuilder {
	if s.item < 0 {
		s.builder.record(errNoItem)
		return s
	}
	s.builder.record(s.builder.gen.SetImages(s.item, urls...))
	return s
}

// Option adds an option to the last item that advances within the sequence.
func (s *SequenceBuilder) Option(text string, row int) *SequenceBuilder {
	s.addOption(text, row)
	return s
}

// OptionTo adds an option to the last item that jumps to target.
func (s *SequenceBuilder) OptionTo(text string, row int, target int) *SequenceBuilder {
	if id, ok := s.addOption(text, row); ok {
		s.builder.record(s.builder.gen.LinkOptionToSequence(id, target))
	}
	return s
}

// Raw adds an option to the last item whose button carries token verbatim.
func (s *SequenceBuilder) Raw(text string, row int, token string) *SequenceBuilder {
	if id, ok := s.addOption(text, row); ok {
		s.builder.record(s.builder.gen.SetCallbackData(id, token))
	}
	return s
}

// Then chains this sequence to next.
func (s *SequenceBuilder) Then(next int) *SequenceBuilder {
	s.builder.record(s.builder.gen.SetNextSequence(s.id, next))
	return s
}

// Done returns to the dialog builder.
func (s *SequenceBuilder) Done() *Builder {
	return s.builder
}

func (s *SequenceBuilder) addItem(text string, typ domain.ItemType) *SequenceBuilder {
	g := s.builder.gen
	s.item = g.CreateItem(text, typ)
	s.builder.record(g.AddItemToSequence(s.id, s.item))
	return s
}

func (s *SequenceBuilder) addOption(text string, row int) (int, bool) {
	if s.item < 0 {
		s.builder.record(errNoItem)
		return 0, false
	}
	g := s.builder.gen
	id := g.CreateOption(text, row)
	s.builder.record(g.AddOptionToItem(s.item, id))
	return id, true
}
