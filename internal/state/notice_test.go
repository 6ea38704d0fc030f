package state

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/five82/scoop/internal/flavor"
	"github.com/five82/scoop/internal/remote"
)

func TestDescribe(t *testing.T) {
	status := &remote.StatusError{Method: "GET", Path: "/collection", Code: 502}
	network := errors.New("dial tcp: connection refused")

	cases := []struct {
		name    string
		err     error
		show    bool
		title   string
		message string
	}{
		{"nil", nil, false, "", ""},
		{"busy", ErrBusy, false, "", ""},
		{"stale", fmt.Errorf("wrapped: %w", ErrStale), false, "", ""},
		{"duplicate", &AddError{Kind: AddValidation, Err: &flavor.ValidationError{Kind: flavor.DuplicateName, Name: "vanilla"}},
			true, "Duplicate Flavor", `"vanilla" is already in your list!`},
		{"empty", &AddError{Kind: AddValidation, Err: &flavor.ValidationError{Kind: flavor.EmptyName}},
			true, "Empty Flavor", "Please enter an ice cream flavor name."},
		{"load status", &FetchError{Err: status}, true, "Error", "Failed to load ice cream flavors"},
		{"load malformed", &FetchError{Err: fmt.Errorf("%w: bad", remote.ErrMalformedPayload)}, true, "Error", "Failed to load ice cream flavors"},
		{"load network", &FetchError{Err: network}, true, "Error", "Network error while loading flavors"},
		{"add status", &AddError{Kind: AddRemote, Err: status}, true, "Error", "Failed to add ice cream flavor"},
		{"add network", &AddError{Kind: AddRemote, Err: network}, true, "Error", "Network error while adding flavor"},
		{"remove status", &RemoveError{ID: "1", Err: status}, true, "Error", "Failed to delete ice cream flavor"},
		{"remove network", &RemoveError{ID: "1", Err: network}, true, "Error", "Network error while deleting flavor"},
		{"stale add", &StaleAddError{Item: flavor.Item{ID: "1", Name: "Mint", OwnerID: "a@example.com"}},
			true, "Flavor Saved Elsewhere", `"Mint" was saved for the previous account.`},
		{"other", errors.New("boom"), true, "Error", "boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, show := Describe(tc.err)
			assert.Equal(t, tc.show, show)
			assert.Equal(t, tc.title, n.Title)
			assert.Equal(t, tc.message, n.Message)
		})
	}
}
