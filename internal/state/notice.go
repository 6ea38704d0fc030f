package state

import (
	"errors"
	"fmt"

	"github.com/five82/scoop/internal/flavor"
	"github.com/five82/scoop/internal/remote"
)

// Notice is a single user-visible message describing a failed operation.
type Notice struct {
	Title   string
	Message string
}

// Describe turns an operation error into the notice shown to the user. It
// returns false for nil, busy and stale errors, which callers ignore silently,
// except for an add that reached the store after the identity changed.
func Describe(err error) (Notice, bool) {
	var staleAdd *StaleAddError
	if errors.As(err, &staleAdd) {
		return Notice{
			Title:   "Flavor Saved Elsewhere",
			Message: fmt.Sprintf("%q was saved for the previous account.", staleAdd.Item.Name),
		}, true
	}
	if err == nil || errors.Is(err, ErrBusy) || errors.Is(err, ErrStale) {
		return Notice{}, false
	}

	var verr *flavor.ValidationError
	if errors.As(err, &verr) {
		return Notice{Title: verr.Title(), Message: verr.Message()}, true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		if isRejection(err) {
			return Notice{Title: "Error", Message: "Failed to load ice cream flavors"}, true
		}
		return Notice{Title: "Error", Message: "Network error while loading flavors"}, true
	}

	var addErr *AddError
	if errors.As(err, &addErr) {
		if isRejection(err) {
			return Notice{Title: "Error", Message: "Failed to add ice cream flavor"}, true
		}
		return Notice{Title: "Error", Message: "Network error while adding flavor"}, true
	}

	var removeErr *RemoveError
	if errors.As(err, &removeErr) {
		if isRejection(err) {
			return Notice{Title: "Error", Message: "Failed to delete ice cream flavor"}, true
		}
		return Notice{Title: "Error", Message: "Network error while deleting flavor"}, true
	}

	return Notice{Title: "Error", Message: err.Error()}, true
}

// isRejection reports whether the store answered but refused the request, as
// opposed to the request never completing.
func isRejection(err error) bool {
	var statusErr *remote.StatusError
	return errors.As(err, &statusErr) || errors.Is(err, remote.ErrMalformedPayload)
}
