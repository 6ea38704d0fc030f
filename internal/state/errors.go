package state

import (
	"errors"
	"fmt"

	"github.com/five82/scoop/internal/flavor"
)

var (
	// ErrBusy rejects an operation while another of the same class is in
	// flight. It signals a race the caller should have prevented, not a fault.
	ErrBusy = errors.New("operation already in progress")

	// ErrStale reports a result discarded because the identity changed while
	// the remote call was outstanding.
	ErrStale = errors.New("identity changed during operation")

	// ErrNoIdentity rejects a sign-in with a blank identity.
	ErrNoIdentity = errors.New("identity is empty")
)

// FetchError reports a failed collection read.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("load collection: %v", e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// AddKind distinguishes local rejections from remote failures.
type AddKind int

const (
	AddValidation AddKind = iota + 1
	AddRemote
)

// AddError reports a failed add. Err is a *flavor.ValidationError for
// AddValidation and the transport or status error for AddRemote.
type AddError struct {
	Kind AddKind
	Err  error
}

func (e *AddError) Error() string {
	if e.Kind == AddValidation {
		return fmt.Sprintf("add item: %v", e.Err)
	}
	return fmt.Sprintf("add item: remote: %v", e.Err)
}

func (e *AddError) Unwrap() error { return e.Err }

// StaleAddError reports an item the store accepted after the identity it was
// created for had changed. The item exists remotely but is not in the
// snapshot. It matches ErrStale.
type StaleAddError struct {
	Item flavor.Item
}

func (e *StaleAddError) Error() string {
	return fmt.Sprintf("item %s created for previous identity %q", e.Item.ID, e.Item.OwnerID)
}

func (e *StaleAddError) Unwrap() error { return ErrStale }

// RemoveError reports a failed remote delete.
type RemoveError struct {
	ID  string
	Err error
}

func (e *RemoveError) Error() string { return fmt.Sprintf("remove item %s: %v", e.ID, e.Err) }
func (e *RemoveError) Unwrap() error { return e.Err }
