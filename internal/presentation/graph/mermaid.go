package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/route"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	VisitedItems []int
	CurrentItem  *int
}

// OverlayFromTrace marks every item of dialog d found in a navigation trace.
// The last matching token is the current item; tokens of other dialogs are skipped.
func OverlayFromTrace(d *domain.Dialog, tokens []string) *GraphOverlay {
	overlay := &GraphOverlay{}
	for _, token := range tokens {
		r, err := route.Decode(token)
		if err != nil || r.Kind != route.KindForward || r.DDID.DialogID != d.ID {
			continue
		}
		if _, ok := d.Item(r.DDID.ItemID); !ok {
			continue
		}
		overlay.VisitedItems = append(overlay.VisitedItems, r.DDID.ItemID)
		overlay.CurrentItem = domain.Ref(r.DDID.ItemID)
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart of a dialog.
// Each sequence is a subgraph of its items in order. Shapes:
// - First item of the root sequence: ((Circle))
// - TEXT_INPUT: [/Parallelogram/]
// - SELECT: [Rectangle]
// Solid arrows advance within a sequence, dashed arrows follow NextSequenceID,
// labelled arrows are option jumps and raw options point at their route token.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(d *domain.Dialog, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	seqIDs := sortedKeys(d.Sequences)
	first := make(map[int]int, len(seqIDs))
	for _, id := range seqIDs {
		if s := d.Sequences[id]; len(s.ItemIDs) > 0 {
			first[id] = s.ItemIDs[0]
		}
	}

	for _, id := range seqIDs {
		seq := d.Sequences[id]
		fmt.Fprintf(&sb, "    subgraph s%d[\"sequence %d\"]\n", id, id)
		for i, itemID := range seq.ItemIDs {
			item, ok := d.Items[itemID]
			if !ok {
				continue
			}
			opener, closer := "[", "]"
			switch {
			case id == domain.RootSequenceID && i == 0:
				opener, closer = "((", "))"
			case item.Type == domain.ItemTextInput:
				opener, closer = "[/", "/]"
			}
			fmt.Fprintf(&sb, "        i%d%s\"%s\"%s\n", itemID, opener, label(item.Text), closer)
		}
		sb.WriteString("    end\n")
	}

	raw := make(map[string]bool)
	for _, id := range seqIDs {
		seq := d.Sequences[id]
		for i, itemID := range seq.ItemIDs {
			if i+1 < len(seq.ItemIDs) {
				fmt.Fprintf(&sb, "    i%d --> i%d\n", itemID, seq.ItemIDs[i+1])
			} else if seq.NextSequenceID != nil {
				if to, ok := first[*seq.NextSequenceID]; ok {
					fmt.Fprintf(&sb, "    i%d -.-> i%d\n", itemID, to)
				}
			}

			item := d.Items[itemID]
			for _, o := range d.OptionsOf(item) {
				switch {
				case o.CallbackData != "":
					node := "r_" + sanitizeMermaidID(o.CallbackData)
					if !raw[node] {
						raw[node] = true
						fmt.Fprintf(&sb, "    %s>\"%s\"]\n", node, label(o.CallbackData))
					}
					fmt.Fprintf(&sb, "    i%d -. \"%s\" .-> %s\n", itemID, label(o.Text), node)
				case o.TargetSequenceID != nil:
					if to, ok := first[*o.TargetSequenceID]; ok {
						fmt.Fprintf(&sb, "    i%d -- \"%s\" --> i%d\n", itemID, label(o.Text), to)
					}
				}
			}
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[int]bool)
		for _, id := range overlay.VisitedItems {
			if !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class i%d visited;\n", id)
			}
		}
		if overlay.CurrentItem != nil {
			fmt.Fprintf(&sb, "    class i%d current;\n", *overlay.CurrentItem)
		}
	}

	return sb.String()
}

func label(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ":", "_")
	s = strings.ReplaceAll(s, "-", "m")
	s = strings.ReplaceAll(s, ".", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
