// Package flavor defines the collection item model and the rules an item name
// must satisfy before it may join a collection.
package flavor

import (
	"strings"
	"unicode"
)

// AnonymousOwner is recorded as the owner of items created without a signed-in identity.
const AnonymousOwner = "anonymous"

// Item is a single named entry in a collection.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId,omitempty"`
}

// Normalize returns the form of name used for uniqueness comparison. It is never
// displayed or stored. Two names normalize equal exactly when their trimmed
// forms match under strings.EqualFold.
func Normalize(name string) string {
	return strings.Map(foldRune, strings.TrimSpace(name))
}

// foldRune maps r to one fixed member of its simple case-fold orbit, so that
// 's', 'S' and 'ſ' all become 's'.
func foldRune(r rune) rune {
	least := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < least {
			least = f
		}
	}
	return unicode.ToLower(least)
}

// OwnedBy reports whether the item belongs to identity.
func (i Item) OwnedBy(identity string) bool {
	return i.OwnerID == identity
}

// Clone returns an independent copy of items. A nil or empty input yields nil.
func Clone(items []Item) []Item {
	if len(items) == 0 {
		return nil
	}
	dup := make([]Item, len(items))
	copy(dup, items)
	return dup
}
