/*
Package ports defines the driven ports (interfaces) of the Arbor dialog engine.

These interfaces decouple the engine from its collaborators, so session storage,
chat delivery and localization can be swapped without touching the core.

# Key Interfaces

  - SessionStore: per-user key/value storage for Dialog, Position, Trace and Drafts.
  - DistributedLocker: serializes events of one user across replicas.
  - Messenger: sends, edits and deletes messages on the chat channel.
  - TextResolver: resolves item and option texts at render time.
  - Callback: the domain logic of one dialog.
*/
package ports
