/*
Package arbor is a dynamic dialog engine for button-driven chat interfaces.

A dialog is a graph of sequences. Each sequence is an ordered list of items
(a question with buttons, or a prompt for free text) and each option of an
item either advances within the sequence or jumps to another one. Dialogs
come from YAML/JSON documents or are generated in code at request time
(see package dsl and package catalog).

Every button carries a route token. Static screens use their id ("5", or
"5:2" with arguments); dialog positions use a DDID,
"{route}:{dialog}:{sequence}:{item}[:{option}]", and the engine's back button
sends "{route}:-1:{dialog}:{sequence}:{item}". The router keeps a per-user
navigation trace of these tokens, so back always returns to the exact
screen or question the user came from.

# Usage

	d, _ := dsl.New(1).
		Sequence().Input("What is your name?").Done().
		Build()

	r := arbor.New(memory.NewStore(), messenger,
		map[int]ports.Callback{1: myCallback},
		map[int]router.ScreenHandler{
			0: router.AsEntryPoint(menuScreen),
			1: router.ScreenFunc(func(ctx context.Context, sc *router.Screen) error {
				return sc.StartDialog(ctx, d)
			}),
		},
	)
	err := r.HandleEvent(ctx, router.Event{UserID: 42, Token: "1"})

Callbacks decide what happens after each answer: Continue, RetryCurrent
(validation failed) or SkipAndComplete. Events of one user are processed one
at a time; events of different users run concurrently.
*/
package arbor
