package core

import (
	"errors"

	"recipekeeper/pkg/domain"
)

// Outcome messages shown to the user after an operation.
const (
	MsgCollectionCreated     = "The recipe collection has been created."
	MsgCollectionUpdated     = "Recipe collection updated."
	MsgCollectionDeleted     = "Recipe collection deleted."
	MsgCollectionTitleUnique = "The collection title must be unique."
	MsgRecipeCreated         = "The recipe has been created."
	MsgRecipeUpdated         = "The recipe has been updated."
	MsgRecipeDeleted         = "The recipe has been deleted."
	MsgRecipeTitleUnique     = "The recipe title must be unique within its collection."
	MsgTimeConstraint        = "Preparation time cannot be longer than total time."
	MsgNotFound              = "Not found."
	MsgUnexpected            = "Something went wrong. Please try again."
)

// EntityError attaches the entity kind an expected outcome refers to, so a
// duplicate collection title reads differently from a duplicate recipe title.
type EntityError struct {
	Entity domain.EntityType
	Err    error
}

func (e *EntityError) Error() string { return string(e.Entity) + ": " + e.Err.Error() }

func (e *EntityError) Unwrap() error { return e.Err }

func entityError(entity domain.EntityType, err error) error {
	if err == nil {
		return nil
	}
	return &EntityError{Entity: entity, Err: err}
}

// Message maps an error returned by Service to the message a caller shows
// the user. Validation errors yield their first message; use Messages for
// the full list.
func Message(err error) string {
	msgs := Messages(err)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[0]
}

// Messages maps an error to every user-facing message it carries.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return append([]string(nil), verr.Messages...)
	}
	var entity domain.EntityType
	var eerr *EntityError
	if errors.As(err, &eerr) {
		entity = eerr.Entity
	}
	switch {
	case errors.Is(err, domain.ErrDuplicateTitle):
		if entity == domain.EntityRecipe {
			return []string{MsgRecipeTitleUnique}
		}
		return []string{MsgCollectionTitleUnique}
	case errors.Is(err, domain.ErrTimeConstraint):
		return []string{MsgTimeConstraint}
	case errors.Is(err, domain.ErrNotFound):
		return []string{MsgNotFound}
	default:
		return []string{MsgUnexpected}
	}
}
