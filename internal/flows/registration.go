package flows

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
)

//go:embed dialogs/registration.yaml
var registrationDoc []byte

// Text keys of the registration items.
const (
	keyName    = "registration.name"
	keyAge     = "registration.age"
	keyRole    = "registration.role"
	keySubject = "registration.subject"
	keyConfirm = "registration.confirm"
)

// RegistrationDialog returns the built-in registration dialog.
func RegistrationDialog() (*domain.Dialog, error) {
	return compiler.NewConverter().Convert(registrationDoc)
}

// RegistrationDraft accumulates answers until the dialog completes.
type RegistrationDraft struct {
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Role    string `json:"role"`
	Subject string `json:"subject,omitempty"`
}

// Registration collects a profile. Invalid answers are retried in place;
// users whose age and role are already on file skip straight to completion.
type Registration struct {
	Profiles ports.ProfileRepository
}

func (r *Registration) Handle(ctx context.Context, step ports.Step) (domain.Result, error) {
	draft, err := session.LoadDraft[RegistrationDraft](ctx, step.Drafts)
	if err != nil {
		return domain.Result{}, err
	}

	if step.Finished {
		return domain.Continue(), r.complete(ctx, step, draft)
	}

	item, ok := step.Dialog.Item(step.ItemID)
	if !ok {
		return domain.Continue(), nil
	}
	index, _ := step.Dialog.IndexOf(step.SequenceID, step.ItemID)
	retry := func(key string) (domain.Result, error) {
		step.Say(ctx, key, nil)
		return domain.RetryCurrent(step.SequenceID, index), nil
	}

	switch item.Text {
	case keyName:
		name := strings.TrimSpace(answer(step))
		if utf8.RuneCountInString(name) < 2 {
			return retry("registration.invalid_name")
		}
		draft.Name = name

		known, err := r.Profiles.Get(ctx, step.UserID)
		if err == nil && known.Age > 0 && known.Role != "" {
			draft.Age, draft.Role, draft.Subject = known.Age, known.Role, known.Subject
			if err := session.SaveDraft(ctx, step.Drafts, draft); err != nil {
				return domain.Result{}, err
			}
			return domain.SkipAndComplete(), nil
		}
		if err != nil && !errors.Is(err, ports.ErrProfileNotFound) {
			return domain.Result{}, fmt.Errorf("failed to look up profile: %w", err)
		}

	case keyAge:
		age, err := strconv.Atoi(strings.TrimSpace(answer(step)))
		if err != nil || age < 1 || age > 120 {
			return retry("registration.invalid_age")
		}
		draft.Age = age

	case keyRole:
		if step.OptionID != nil {
			if opt, ok := step.Dialog.Option(*step.OptionID); ok {
				draft.Role = strings.TrimPrefix(opt.Text, "role.")
			}
		}

	case keySubject:
		subject := strings.TrimSpace(answer(step))
		if subject == "" {
			return retry("registration.invalid_subject")
		}
		draft.Subject = subject

	case keyConfirm:
		return domain.Continue(), nil
	}

	return domain.Continue(), session.SaveDraft(ctx, step.Drafts, draft)
}

func (r *Registration) complete(ctx context.Context, step ports.Step, draft RegistrationDraft) error {
	err := r.Profiles.Save(ctx, ports.Profile{
		UserID:  step.UserID,
		Name:    draft.Name,
		Age:     draft.Age,
		Role:    draft.Role,
		Subject: draft.Subject,
	})
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	if err := step.Drafts.ClearDraft(ctx); err != nil {
		return err
	}
	step.Say(ctx, "registration.done", map[string]any{"Name": draft.Name})
	return nil
}

func answer(step ports.Step) string {
	if step.Answer == nil {
		return ""
	}
	return *step.Answer
}
