package flavor

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest accepted name, in characters.
const MaxNameLength = 45

// ValidationKind identifies why a candidate name was rejected.
type ValidationKind int

const (
	EmptyName ValidationKind = iota + 1
	NameTooLong
	DuplicateName
)

var (
	ErrEmptyName     = errors.New("empty name")
	ErrNameTooLong   = errors.New("name too long")
	ErrDuplicateName = errors.New("duplicate name")
)

// ValidationError reports a rejected candidate. Name carries the trimmed
// candidate for DuplicateName so callers can display it.
type ValidationError struct {
	Kind ValidationKind
	Name string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case EmptyName:
		return "name is empty"
	case NameTooLong:
		return fmt.Sprintf("name exceeds %d characters", MaxNameLength)
	case DuplicateName:
		return fmt.Sprintf("name %q already exists", e.Name)
	default:
		return "invalid name"
	}
}

// Message is the user-facing explanation of the rejection.
func (e *ValidationError) Message() string {
	switch e.Kind {
	case EmptyName:
		return "Please enter an ice cream flavor name."
	case NameTooLong:
		return fmt.Sprintf("Ice cream flavor names must be %d characters or less.", MaxNameLength)
	case DuplicateName:
		return fmt.Sprintf("\"%s\" is already in your list!", e.Name)
	default:
		return "That flavor name cannot be used."
	}
}

// Title is the short heading shown above the message.
func (e *ValidationError) Title() string {
	switch e.Kind {
	case EmptyName:
		return "Empty Flavor"
	case NameTooLong:
		return "Name Too Long"
	case DuplicateName:
		return "Duplicate Flavor"
	default:
		return "Invalid Flavor"
	}
}

// Is lets errors.Is match a ValidationError against the kind sentinels.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrEmptyName:
		return e.Kind == EmptyName
	case ErrNameTooLong:
		return e.Kind == NameTooLong
	case ErrDuplicateName:
		return e.Kind == DuplicateName
	}
	return false
}

// Validate decides whether candidate may be added to snapshot. Checks run in
// order and the first failure wins. On success the trimmed candidate is
// returned as the canonical name.
func Validate(candidate string, snapshot []Item) (string, error) {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return "", &ValidationError{Kind: EmptyName}
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return "", &ValidationError{Kind: NameTooLong}
	}
	key := Normalize(trimmed)
	for _, item := range snapshot {
		if Normalize(item.Name) == key {
			return "", &ValidationError{Kind: DuplicateName, Name: trimmed}
		}
	}
	return trimmed, nil
}
