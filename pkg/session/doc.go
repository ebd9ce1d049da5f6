/*
Package session implements per-user session management on top of a ports.SessionStore.

The Manager gives every user a single logical thread of control by serializing
their events behind a reference-counted lock, optionally backed by a distributed
lock across replicas. Session offers typed access to the values the engine keeps
per user: the active Dialog, its Position, the navigation Trace, the pending text
expectation, the last rendered message and the callbacks' Drafts.
*/
package session
