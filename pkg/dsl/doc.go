/*
Package dsl builds dialogs in code.

Generator is the imperative layer: it creates sequences, items and options,
assigns their ids and wires them together. It is what flows generated from
live data (catalogs, search results) use at request time.

Builder is a fluent wrapper for linear flows:

	b := dsl.New(1)
	start := b.Sequence()
	subject := b.Sequence()
	start.Select("registration.role").
		Option("role.student", 0).
		OptionTo("role.teacher", 0, subject.ID())
	subject.Input("registration.subject")
	dialog, err := b.Build()

Sequences are numbered in the order they are opened, so the first call to
Sequence is the root sequence (id 0) where every dialog starts.
Static dialogs loaded from documents can be extended with Generator.Import,
which moves the id counters past the imported ids.
*/
package dsl
