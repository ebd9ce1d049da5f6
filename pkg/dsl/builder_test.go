package dsl

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New(1)

	start := b.Sequence()
	details := b.Sequence()

	start.Select("Pick a role").
		Option("Student", 0).
		OptionTo("Teacher", 1, details.ID()).
		Raw("Menu", 2, "0")
	start.Input("Your name?")
	details.Input("Your subject?")

	d, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, 1, d.ID)
	assert.Equal(t, 0, start.ID(), "first sequence is the root")
	assert.Len(t, d.Sequences, 2)
	assert.Len(t, d.Items, 3)
	assert.Len(t, d.Options, 3)

	root := d.Sequences[0]
	require.Len(t, root.ItemIDs, 2)

	pick := d.Items[root.ItemIDs[0]]
	assert.Equal(t, domain.ItemSelect, pick.Type)
	opts := d.OptionsOf(pick)
	require.Len(t, opts, 3)
	assert.Nil(t, opts[0].TargetSequenceID)
	require.NotNil(t, opts[1].TargetSequenceID)
	assert.Equal(t, details.ID(), *opts[1].TargetSequenceID)
	assert.Equal(t, "0", opts[2].CallbackData)
	assert.Equal(t, 2, opts[2].Row)

	assert.Equal(t, domain.ItemTextInput, d.Items[root.ItemIDs[1]].Type)
}

func TestBuilder_Then(t *testing.T) {
	b := New(2)
	first := b.Sequence()
	second := b.Sequence()
	first.Select("a").Option("ok", 0).Then(second.ID())
	second.Select("b").Option("ok", 0).Images("https://example.org/b.png")

	d, err := b.Build()
	require.NoError(t, err)
	require.NotNil(t, d.Sequences[0].NextSequenceID)
	assert.Equal(t, 1, *d.Sequences[0].NextSequenceID)
	assert.Equal(t, []string{"https://example.org/b.png"}, d.Items[1].Images)
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("Option Without Item", func(t *testing.T) {
		b := New(1)
		b.Sequence().Option("orphan", 0)
		_, err := b.Build()
		assert.ErrorIs(t, err, errNoItem)
	})

	t.Run("Empty Sequence", func(t *testing.T) {
		b := New(1)
		b.Sequence()
		_, err := b.Build()
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("Dangling Target", func(t *testing.T) {
		b := New(1)
		b.Sequence().Select("x").OptionTo("nowhere", 0, 7)
		_, err := b.Build()
		assert.Error(t, err)
	})
}

func TestGenerator_Ids(t *testing.T) {
	g := NewGenerator(3)
	assert.Equal(t, 0, g.CreateSequence())
	assert.Equal(t, 1, g.CreateSequence())
	assert.Equal(t, 0, g.CreateItem("a", domain.ItemSelect))
	assert.Equal(t, 1, g.CreateItem("b", domain.ItemSelect))
	assert.Equal(t, 0, g.CreateOption("o", 0))

	assert.ErrorIs(t, g.AddItemToSequence(9, 0), domain.ErrUnknownSequence)
	assert.ErrorIs(t, g.AddItemToSequence(0, 9), domain.ErrUnknownItem)
	assert.ErrorIs(t, g.AddOptionToItem(0, 9), domain.ErrUnknownOption)
	assert.ErrorIs(t, g.LinkOptionToSequence(9, 0), domain.ErrUnknownOption)
	assert.ErrorIs(t, g.SetNextSequence(9, 0), domain.ErrUnknownSequence)
}

func TestGenerator_ImportAdvancesCounters(t *testing.T) {
	static := domain.NewDialog(4)
	static.Sequences[0] = domain.Sequence{ID: 0, ItemIDs: []int{10}}
	static.Sequences[5] = domain.Sequence{ID: 5, ItemIDs: []int{11}}
	static.Items[10] = domain.Item{ID: 10, Text: "x", Type: domain.ItemSelect, OptionIDs: []int{40}}
	static.Items[11] = domain.Item{ID: 11, Text: "y", Type: domain.ItemTextInput}
	static.Options[40] = domain.Option{ID: 40, Text: "go", TargetSequenceID: domain.Ref(5)}

	g := NewGenerator(4)
	g.Import(static)

	assert.Equal(t, 6, g.CreateSequence())
	item := g.CreateItem("z", domain.ItemSelect)
	assert.Equal(t, 12, item)
	opt := g.CreateOption("more", 0)
	assert.Equal(t, 41, opt)

	require.NoError(t, g.AddItemToSequence(6, item))
	require.NoError(t, g.AddOptionToItem(10, opt))
	require.NoError(t, g.LinkOptionToSequence(opt, 6))

	d, err := g.Build()
	require.NoError(t, err)
	assert.Len(t, d.Sequences, 3)
	assert.Equal(t, []int{40, 41}, d.Items[10].OptionIDs)
	assert.Equal(t, []int{40}, static.Items[10].OptionIDs, "import never mutates the source")
}

func TestGenerator_BuildReturnsFreshDialogs(t *testing.T) {
	g := NewGenerator(1)
	seq := g.CreateSequence()
	item := g.CreateItem("a", domain.ItemTextInput)
	require.NoError(t, g.AddItemToSequence(seq, item))

	first, err := g.Build()
	require.NoError(t, err)

	second := g.CreateItem("b", domain.ItemTextInput)
	require.NoError(t, g.AddItemToSequence(seq, second))

	assert.Len(t, first.Sequences[seq].ItemIDs, 1, "earlier builds are not mutated")
	again, err := g.Build()
	require.NoError(t, err)
	assert.Len(t, again.Sequences[seq].ItemIDs, 2)
}

func TestGenerator_ArgsAreNotShared(t *testing.T) {
	g := NewGenerator(1)
	seq := g.CreateSequence()
	item := g.CreateItem("greeting", domain.ItemTextInput)
	require.NoError(t, g.AddItemToSequence(seq, item))
	args := map[string]any{"name": "Ada"}
	require.NoError(t, g.SetArgs(item, args))
	args["name"] = "caller"

	first, err := g.Build()
	require.NoError(t, err)
	first.Items[item].Args["name"] = "mutated"

	second, err := g.Build()
	require.NoError(t, err)
	assert.Equal(t, "Ada", second.Items[item].Args["name"])
}
