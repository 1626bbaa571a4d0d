package core

import (
	"errors"
	"fmt"
	"testing"

	"recipekeeper/pkg/domain"
)

func TestMessages(t *testing.T) {
	uniqueViolation := &domain.ConstraintError{Kind: domain.ConstraintUnique, Err: errors.New("driver")}
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "collection duplicate", err: entityError(domain.EntityCollection, uniqueViolation), want: MsgCollectionTitleUnique},
		{name: "recipe duplicate", err: fmt.Errorf("wrap: %w", entityError(domain.EntityRecipe, uniqueViolation)), want: MsgRecipeTitleUnique},
		{name: "bare duplicate", err: domain.ErrDuplicateTitle, want: MsgCollectionTitleUnique},
		{name: "time", err: &domain.ConstraintError{Kind: domain.ConstraintCheck}, want: MsgTimeConstraint},
		{name: "not found", err: domain.NotFoundError(domain.EntityRecipe, 3), want: MsgNotFound},
		{name: "validation", err: &ValidationError{Messages: []string{MsgRecipeTitleRequired}}, want: MsgRecipeTitleRequired},
		{name: "unexpected", err: errors.New("disk on fire"), want: MsgUnexpected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Message(tc.err); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestMessagesCopiesValidationList(t *testing.T) {
	verr := &ValidationError{Messages: []string{MsgRecipeTitleRequired, MsgInstructionsRequired}}
	msgs := Messages(verr)
	msgs[0] = "changed"
	if verr.Messages[0] != MsgRecipeTitleRequired {
		t.Fatalf("Messages must not alias the validation error")
	}
}

func TestEntityErrorUnwraps(t *testing.T) {
	if entityError(domain.EntityRecipe, nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
	err := entityError(domain.EntityRecipe, domain.ErrTimeConstraint)
	if !errors.Is(err, domain.ErrTimeConstraint) {
		t.Fatalf("expected sentinel through EntityError")
	}
	if err.Error() != "recipe: "+domain.ErrTimeConstraint.Error() {
		t.Fatalf("unexpected text %q", err.Error())
	}
}

func TestPageNumbers(t *testing.T) {
	if got := PageNumbers(0); len(got) != 0 {
		t.Fatalf("expected no pages, got %v", got)
	}
	if got := PageNumbers(-2); len(got) != 0 {
		t.Fatalf("expected no pages for negative count, got %v", got)
	}
	got := PageNumbers(3)
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("unexpected pages %v", got)
	}
}
