package arbor_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/router"
)

// ExampleNew builds a two-question dialog in code and walks through it.
func ExampleNew() {
	b := dsl.New(1)
	start := b.Sequence()
	start.Select("Coffee or tea?").Option("Coffee", 0).Option("Tea", 0)
	start.Input("Any sugar?")
	d, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	var answers []string
	order := ports.CallbackFunc(func(ctx context.Context, s ports.Step) (domain.Result, error) {
		switch {
		case s.Finished:
			fmt.Println("order:", answers)
		case s.OptionID != nil:
			opt, _ := s.Dialog.Option(*s.OptionID)
			answers = append(answers, opt.Text)
		case s.Answer != nil:
			answers = append(answers, *s.Answer)
		}
		return domain.Continue(), nil
	})

	messenger := memory.NewMessenger()
	r := arbor.New(memory.NewStore(), messenger,
		map[int]ports.Callback{1: order},
		map[int]router.ScreenHandler{
			0: router.AsEntryPoint(router.ScreenFunc(func(ctx context.Context, sc *router.Screen) error {
				return sc.Show(ctx, domain.Message{Text: "menu", Buttons: [][]domain.Button{{sc.Button("order", 1)}}})
			})),
			1: router.ScreenFunc(func(ctx context.Context, sc *router.Screen) error {
				return sc.StartDialog(ctx, d)
			}),
		},
	)

	ctx := context.Background()
	show := func() {
		last, _ := messenger.Last(42)
		fmt.Println(last.Message.Text)
	}

	_ = r.HandleEvent(ctx, router.Event{UserID: 42, Token: "1"})
	show()
	last, _ := messenger.Last(42)
	_ = r.HandleEvent(ctx, router.Event{UserID: 42, Token: last.Message.Buttons[0][1].Payload})
	show()
	_ = r.HandleEvent(ctx, router.Event{UserID: 42, Text: "no"})
	show()

	// Output:
	// Coffee or tea?
	// Any sugar?
	// order: [Tea no]
	// menu
}
