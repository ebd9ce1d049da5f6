/*
Package domain contains the core domain models of the Arbor dialog engine.

It defines the data a conversational flow is made of and the values the engine
exchanges with its collaborators. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Dialog: a flow made of Sequences, Items and Options, addressed by integer ids.
  - Position: where a user stands inside the active dialog (sequence id + item index).
  - Result: the tagged outcome of a callback (Continue, RetryCurrent, SkipAndComplete).
  - Message: what the engine asks the messenger to render (text, button rows, images).
  - LifecycleHooks: observability callbacks fired by the engine.
*/
package domain
