package flows

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/arbor/pkg/catalog"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/route"
	"github.com/aretw0/arbor/pkg/router"
)

// Screen ids.
const (
	ScreenMenu     = 0
	ScreenRegister = 1
	ScreenCatalog  = 2
	ScreenProfile  = 3

	// ScreenLauncherBase + dialog id launches a dialog loaded from the dialogs directory.
	ScreenLauncherBase = 100
)

// Dialog ids.
const (
	RegistrationDialogID = 1
	CatalogDialogID      = 2
)

// Deps are the collaborators of the reference flows.
type Deps struct {
	Profiles ports.ProfileRepository
	Catalog  ports.CatalogSource
	PageSize int

	// Dialogs are static dialogs loaded from documents, keyed by id.
	// A document with the registration id replaces the built-in one.
	Dialogs map[int]*domain.Dialog
}

// Callbacks builds the dialog registry.
func Callbacks(deps Deps) map[int]ports.Callback {
	callbacks := map[int]ports.Callback{
		RegistrationDialogID: &Registration{Profiles: deps.Profiles},
		CatalogDialogID:      CatalogPick{},
	}
	for id := range deps.Dialogs {
		if _, taken := callbacks[id]; !taken {
			callbacks[id] = Survey{}
		}
	}
	return callbacks
}

// Screens builds the static screen registry.
func Screens(deps Deps) (map[int]router.ScreenHandler, error) {
	registration, ok := deps.Dialogs[RegistrationDialogID]
	if !ok {
		var err error
		if registration, err = RegistrationDialog(); err != nil {
			return nil, fmt.Errorf("built-in registration dialog: %w", err)
		}
	}

	extra := extraDialogs(deps.Dialogs)
	screens := map[int]router.ScreenHandler{
		ScreenMenu:     router.AsEntryPoint(menu(extra)),
		ScreenRegister: launch(registration),
		ScreenCatalog:  browse(deps),
		ScreenProfile:  profile(deps.Profiles),
	}
	for _, id := range extra {
		screens[ScreenLauncherBase+id] = launch(deps.Dialogs[id])
	}
	return screens, nil
}

func extraDialogs(dialogs map[int]*domain.Dialog) []int {
	var ids []int
	for id := range dialogs {
		if id != RegistrationDialogID && id != CatalogDialogID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

func menu(extra []int) router.ScreenHandler {
	return router.ScreenFunc(func(ctx context.Context, sc *router.Screen) error {
		buttons := [][]domain.Button{
			{sc.Button("menu.register", ScreenRegister)},
			{sc.Button("menu.catalog", ScreenCatalog)},
			{sc.Button("menu.profile", ScreenProfile)},
		}
		for _, id := range extra {
			buttons = append(buttons, []domain.Button{{
				Text:    sc.T("menu.dialog", map[string]any{"ID": id}),
				Payload: route.Screen(ScreenLauncherBase + id),
			}})
		}
		return sc.Show(ctx, domain.Message{Text: sc.T("menu.title", nil), Buttons: buttons})
	})
}

func launch(d *domain.Dialog) router.ScreenHandler {
	return router.ScreenFunc(func(ctx context.Context, sc *router.Screen) error {
		return sc.StartDialog(ctx, d)
	})
}

// browse regenerates the catalog dialog from live data on every visit.
func browse(deps Deps) router.ScreenHandler {
	return router.ScreenFunc(func(ctx context.Context, sc *router.Screen) error {
		d, err := catalog.Load(ctx, deps.Catalog, CatalogDialogID,
			catalog.WithPageSize(deps.PageSize),
			catalog.WithMenuToken(route.Screen(ScreenMenu)),
		)
		if err != nil {
			return err
		}
		return sc.StartDialog(ctx, d)
	})
}

func profile(profiles ports.ProfileRepository) router.ScreenHandler {
	return router.ScreenFunc(func(ctx context.Context, sc *router.Screen) error {
		back := [][]domain.Button{{sc.BackButton()}}

		p, err := profiles.Get(ctx, sc.UserID)
		if errors.Is(err, ports.ErrProfileNotFound) {
			return sc.Show(ctx, domain.Message{Text: sc.T("profile.missing", nil), Buttons: back})
		}
		if err != nil {
			return err
		}
		text := sc.T("profile.summary", map[string]any{
			"Name":    p.Name,
			"Age":     p.Age,
			"Role":    sc.T("role."+p.Role, nil),
			"Subject": p.Subject,
		})
		return sc.Show(ctx, domain.Message{Text: text, Buttons: back})
	})
}
