package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports an entity that is absent or owned by another user.
	ErrNotFound = errors.New("recipekeeper: not found")
	// ErrDuplicateTitle reports a title uniqueness violation.
	ErrDuplicateTitle = errors.New("recipekeeper: duplicate title")
	// ErrTimeConstraint reports a recipe whose prep time exceeds its total time.
	ErrTimeConstraint = errors.New("recipekeeper: prep time exceeds total time")
	// ErrUserExists reports an account whose username is already taken.
	ErrUserExists = errors.New("recipekeeper: user already exists")
	// ErrInvalidInput reports input rejected before reaching storage.
	ErrInvalidInput = errors.New("recipekeeper: invalid input")
)

// ConstraintKind classifies a storage-level integrity violation.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintForeignKey ConstraintKind = "foreign_key"
)

// ConstraintError is the typed form of a storage integrity violation. Backends
// build it from driver error codes so callers never match on message text.
type ConstraintError struct {
	Kind       ConstraintKind
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("%s constraint violated: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s constraint %q violated: %v", e.Kind, e.Constraint, e.Err)
}

// Unwrap exposes both the matching sentinel and the driver error.
func (e *ConstraintError) Unwrap() []error {
	out := make([]error, 0, 2)
	switch e.Kind {
	case ConstraintUnique:
		out = append(out, ErrDuplicateTitle)
	case ConstraintCheck:
		out = append(out, ErrTimeConstraint)
	case ConstraintForeignKey:
		out = append(out, ErrNotFound)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// IsUniqueViolation reports whether err stems from a uniqueness constraint.
func IsUniqueViolation(err error) bool {
	return constraintKind(err) == ConstraintUnique
}

// IsCheckViolation reports whether err stems from a check constraint.
func IsCheckViolation(err error) bool {
	return constraintKind(err) == ConstraintCheck
}

func constraintKind(err error) ConstraintKind {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsExpected reports whether err is a business outcome the caller should
// surface as a message rather than a storage fault.
func IsExpected(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicateTitle) ||
		errors.Is(err, ErrTimeConstraint) ||
		errors.Is(err, ErrInvalidInput)
}

// NotFoundError wraps ErrNotFound with the entity type and identifier.
func NotFoundError(entity EntityType, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}
