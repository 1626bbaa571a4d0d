package core

import (
	"strings"
	"unicode/utf8"

	"recipekeeper/pkg/domain"
)

// User-facing validation messages.
const (
	MsgCollectionTitleRequired = "The collection title is required."
	MsgCollectionTitleLength   = "Collection title must be between 1 and 100 characters."
	MsgRecipeTitleRequired     = "The recipe title is required."
	MsgRecipeTitleLength       = "Recipe title must be between 1 and 100 characters."
	MsgInstructionsRequired    = "The recipe instructions are required."
	MsgNegativeTime            = "Preparation and total time must be zero or more minutes."
	MsgIngredientNameRequired  = "Every ingredient needs a name."
	MsgIngredientUnitRequired  = "Every ingredient needs a unit."
	MsgIngredientQtyRequired   = "Every ingredient needs a quantity."
	MsgIngredientDuplicate     = "Ingredient names must be unique within a recipe."
)

// ValidationError carries every message produced while validating a form.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Messages, " ")
}

// Unwrap ties validation failures to domain.ErrInvalidInput.
func (e *ValidationError) Unwrap() error { return domain.ErrInvalidInput }

func (e *ValidationError) add(msg string) {
	for _, existing := range e.Messages {
		if existing == msg {
			return
		}
	}
	e.Messages = append(e.Messages, msg)
}

func (e *ValidationError) orNil() error {
	if len(e.Messages) == 0 {
		return nil
	}
	return e
}

// IngredientForm is one ingredient row of a recipe form.
type IngredientForm struct {
	Name     string
	Quantity string
	Unit     string
}

// RecipeForm is the caller-supplied content of a recipe create or edit.
type RecipeForm struct {
	Title        string
	PrepTime     int
	TotalTime    int
	Instructions string
	Ingredients  []IngredientForm
}

// ValidateCollectionTitle trims title and checks its length.
func ValidateCollectionTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	verr := &ValidationError{}
	checkTitle(verr, title, MsgCollectionTitleRequired, MsgCollectionTitleLength)
	return title, verr.orNil()
}

// Normalize returns a trimmed copy of the form, dropping ingredient rows
// that were left entirely blank.
func (f RecipeForm) Normalize() RecipeForm {
	out := RecipeForm{
		Title:        strings.TrimSpace(f.Title),
		PrepTime:     f.PrepTime,
		TotalTime:    f.TotalTime,
		Instructions: strings.TrimSpace(f.Instructions),
	}
	for _, ing := range f.Ingredients {
		row := IngredientForm{
			Name:     strings.TrimSpace(ing.Name),
			Quantity: strings.TrimSpace(ing.Quantity),
			Unit:     strings.TrimSpace(ing.Unit),
		}
		if row == (IngredientForm{}) {
			continue
		}
		out.Ingredients = append(out.Ingredients, row)
	}
	return out
}

// Validate checks a normalized form. Prep time exceeding total time is left
// to the store, which rejects it with domain.ErrTimeConstraint.
func (f RecipeForm) Validate() error {
	verr := &ValidationError{}
	checkTitle(verr, f.Title, MsgRecipeTitleRequired, MsgRecipeTitleLength)
	if f.Instructions == "" {
		verr.add(MsgInstructionsRequired)
	}
	if f.PrepTime < 0 || f.TotalTime < 0 {
		verr.add(MsgNegativeTime)
	}
	seen := make(map[string]struct{}, len(f.Ingredients))
	for _, ing := range f.Ingredients {
		if ing.Name == "" {
			verr.add(MsgIngredientNameRequired)
		}
		if ing.Quantity == "" {
			verr.add(MsgIngredientQtyRequired)
		}
		if ing.Unit == "" {
			verr.add(MsgIngredientUnitRequired)
		}
		key := strings.ToLower(ing.Name)
		if _, dup := seen[key]; dup && ing.Name != "" {
			verr.add(MsgIngredientDuplicate)
		}
		seen[key] = struct{}{}
	}
	return verr.orNil()
}

func (f RecipeForm) recipeInput() domain.RecipeInput {
	return domain.RecipeInput{
		Title:        f.Title,
		PrepTime:     f.PrepTime,
		TotalTime:    f.TotalTime,
		Instructions: f.Instructions,
	}
}

func (f IngredientForm) ingredientInput() domain.IngredientInput {
	return domain.IngredientInput{Name: f.Name, Quantity: f.Quantity, Unit: f.Unit}
}

func checkTitle(verr *ValidationError, title, required, length string) {
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		verr.add(required)
	case n > domain.MaxTitleLength:
		verr.add(length)
	}
}
