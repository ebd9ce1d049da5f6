package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
)

// sequence 0 = [10 select, 11 text] -> next 2; option 100 jumps to 1, option 101 is raw "0".
func testDialog() *domain.Dialog {
	d := domain.NewDialog(1)
	d.Sequences[0] = domain.Sequence{ID: 0, ItemIDs: []int{10, 11}, NextSequenceID: domain.Ref(2)}
	d.Sequences[1] = domain.Sequence{ID: 1, ItemIDs: []int{20}}
	d.Sequences[2] = domain.Sequence{ID: 2, ItemIDs: []int{30}}
	d.Items[10] = domain.Item{ID: 10, Text: `Pick "one"`, Type: domain.ItemSelect, OptionIDs: []int{100, 101}}
	d.Items[11] = domain.Item{ID: 11, Text: "name?", Type: domain.ItemTextInput}
	d.Items[20] = domain.Item{ID: 20, Text: "subject?", Type: domain.ItemTextInput}
	d.Items[30] = domain.Item{ID: 30, Text: "bye", Type: domain.ItemSelect}
	d.Options[100] = domain.Option{ID: 100, Text: "deeper", TargetSequenceID: domain.Ref(1)}
	d.Options[101] = domain.Option{ID: 101, Text: "menu", CallbackData: "0"}
	return d
}

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(testDialog(), nil)

	tests := []struct {
		name string
		want string
	}{
		{"Header", "graph TD\n"},
		{"Subgraph", `subgraph s1["sequence 1"]`},
		{"Root Shape", `i10(("Pick 'one'"))`},
		{"Input Shape", `i11[/"name?"/]`},
		{"Select Shape", `i30["bye"]`},
		{"Advance", "i10 --> i11"},
		{"Next Sequence", "i11 -.-> i30"},
		{"Option Jump", `i10 -- "deeper" --> i20`},
		{"Raw Node", `r_0>"0"]`},
		{"Raw Option", `i10 -. "menu" .-> r_0`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, out, tt.want)
		})
	}
	assert.NotContains(t, out, "classDef", "no overlay")
	assert.Less(t, strings.Index(out, "s0"), strings.Index(out, "s2"), "sequences in id order")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	d := testDialog()
	overlay := graph.OverlayFromTrace(d, []string{"0", "8:1:0:10", "8:2:0:5", "8:1:1:20", "8:1:0:999", "garbage"})

	assert.Equal(t, []int{10, 20}, overlay.VisitedItems)
	if assert.NotNil(t, overlay.CurrentItem) {
		assert.Equal(t, 20, *overlay.CurrentItem)
	}

	out := graph.GenerateMermaid(d, overlay)
	assert.Contains(t, out, "class i10 visited;")
	assert.Contains(t, out, "class i20 current;")
	assert.NotContains(t, out, "class i30")
}
