package flows

import (
	"context"
	"strconv"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
)

// Survey is the callback of dialogs loaded from documents.
// It records every answer, keyed by item id, and thanks the user at the end.
type Survey struct{}

func (Survey) Handle(ctx context.Context, step ports.Step) (domain.Result, error) {
	if step.Finished {
		answers, err := session.LoadDraft[map[string]string](ctx, step.Drafts)
		if err != nil {
			return domain.Result{}, err
		}
		if err := step.Drafts.ClearDraft(ctx); err != nil {
			return domain.Result{}, err
		}
		step.Say(ctx, "survey.done", map[string]any{"Count": len(answers)})
		return domain.Continue(), nil
	}

	answers, err := session.LoadDraft[map[string]string](ctx, step.Drafts)
	if err != nil {
		return domain.Result{}, err
	}
	if answers == nil {
		answers = make(map[string]string)
	}

	key := strconv.Itoa(step.ItemID)
	switch {
	case step.Answer != nil:
		answers[key] = *step.Answer
	case step.OptionID != nil:
		if opt, ok := step.Dialog.Option(*step.OptionID); ok {
			answers[key] = opt.Text
		}
	}
	return domain.Continue(), session.SaveDraft(ctx, step.Drafts, answers)
}
