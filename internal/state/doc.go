// Package state owns the client-side view of the flavor collection.
//
// # Overview
//
// A Synchronizer holds the authoritative in-memory snapshot of items for the
// current identity and reconciles it with the remote store. It is the only
// writer of the snapshot; everything else reads copies through State or Items.
//
// # Operations
//
//	Load    GET the collection, keep the identity's items, replace the snapshot
//	Add     validate against the snapshot, POST, append on success
//	Remove  DELETE by id, drop from the snapshot on success
//	SignIn  reset the snapshot for a new identity, then Load
//	SignOut clear identity and snapshot
//
// Each operation either applies its whole effect after the store confirms it
// or leaves the snapshot untouched. Failures come back as *FetchError,
// *AddError or *RemoveError; nothing is retried.
//
// # Concurrency
//
// Load and the mutating operations (Add, Remove) each have a busy flag. A call
// that finds its flag set returns ErrBusy immediately; calls are never queued.
// The mutex guards state only and is released for the duration of every
// remote call.
//
// Identity changes bump a generation counter. A Load that completes for a
// superseded generation is dropped with ErrStale so one identity's items can
// never appear in another identity's snapshot.
package state
