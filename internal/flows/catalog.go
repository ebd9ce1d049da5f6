package flows

import (
	"context"

	"github.com/aretw0/arbor/pkg/catalog"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
)

// Pick is the catalog entry a user chose.
type Pick struct {
	EntryID int    `json:"entry_id"`
	Title   string `json:"title"`
}

// CatalogPick remembers the entry chosen on a leaf and confirms it on completion.
type CatalogPick struct{}

func (CatalogPick) Handle(ctx context.Context, step ports.Step) (domain.Result, error) {
	if step.Finished {
		pick, err := session.LoadDraft[Pick](ctx, step.Drafts)
		if err != nil {
			return domain.Result{}, err
		}
		if err := step.Drafts.ClearDraft(ctx); err != nil {
			return domain.Result{}, err
		}
		if pick.Title != "" {
			step.Say(ctx, "catalog.picked", map[string]any{"Title": pick.Title})
		}
		return domain.Continue(), nil
	}

	if step.OptionID == nil {
		return domain.Continue(), nil
	}
	opt, ok := step.Dialog.Option(*step.OptionID)
	if !ok || opt.Text != catalog.KeyChoose {
		return domain.Continue(), nil
	}

	item, _ := step.Dialog.Item(step.ItemID)
	id, _ := catalog.EntryID(item)
	title, _ := item.Args[catalog.ArgTitle].(string)
	return domain.Continue(), session.SaveDraft(ctx, step.Drafts, Pick{EntryID: id, Title: title})
}
