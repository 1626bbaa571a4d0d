// Package backup exports a user's recipe book to blob storage as JSON and
// restores it into any store. The same Book shape is the seed file format.
package backup

import (
	"errors"
	"fmt"
	"time"

	"recipekeeper/internal/core"
	"recipekeeper/pkg/domain"
)

// FormatVersion is written into every exported book.
const FormatVersion = 1

// ErrUnsupportedVersion reports a book written by a newer format.
var ErrUnsupportedVersion = errors.New("backup: unsupported book version")

// Book is a portable recipe book. IDs are not carried; titles identify
// collections and recipes.
type Book struct {
	Version     int          `json:"version" yaml:"version"`
	Username    string       `json:"username,omitempty" yaml:"username,omitempty"`
	ExportedAt  time.Time    `json:"exported_at" yaml:"exported_at,omitempty"`
	Collections []Collection `json:"collections" yaml:"collections"`
}

// Collection is one titled group of recipes.
type Collection struct {
	Title   string   `json:"title" yaml:"title"`
	Recipes []Recipe `json:"recipes" yaml:"recipes"`
}

// Recipe carries the full recipe content with its ingredients.
type Recipe struct {
	Title        string       `json:"title" yaml:"title"`
	PrepTime     int          `json:"prep_time" yaml:"prep_time"`
	TotalTime    int          `json:"total_time" yaml:"total_time"`
	Instructions string       `json:"instructions" yaml:"instructions"`
	Ingredients  []Ingredient `json:"ingredients" yaml:"ingredients"`
}

// Ingredient is one ingredient row.
type Ingredient struct {
	Name     string `json:"name" yaml:"name"`
	Quantity string `json:"quantity" yaml:"quantity"`
	Unit     string `json:"unit" yaml:"unit"`
}

// Check rejects books from a newer format. A zero version is read as the
// current one so hand-written seed files may omit it.
func (b Book) Check() error {
	if b.Version > FormatVersion {
		return fmt.Errorf("version %d: %w", b.Version, ErrUnsupportedVersion)
	}
	return nil
}

// RecipeCount returns the number of recipes across all collections.
func (b Book) RecipeCount() int {
	n := 0
	for _, c := range b.Collections {
		n += len(c.Recipes)
	}
	return n
}

func fromDomainRecipe(r domain.Recipe) Recipe {
	out := Recipe{
		Title:        r.Title,
		PrepTime:     r.PrepTime,
		TotalTime:    r.TotalTime,
		Instructions: r.Instructions,
		Ingredients:  make([]Ingredient, 0, len(r.Ingredients)),
	}
	for _, ing := range r.Ingredients {
		out.Ingredients = append(out.Ingredients, Ingredient{Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit})
	}
	return out
}

// Form converts the recipe into the service's create form.
func (r Recipe) Form() core.RecipeForm {
	form := core.RecipeForm{
		Title:        r.Title,
		PrepTime:     r.PrepTime,
		TotalTime:    r.TotalTime,
		Instructions: r.Instructions,
	}
	for _, ing := range r.Ingredients {
		form.Ingredients = append(form.Ingredients, core.IngredientForm{Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit})
	}
	return form
}
