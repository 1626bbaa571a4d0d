// Package domain defines the persistent entities, error taxonomy and store
// contract shared by every recipekeeper persistence backend.
package domain

// EntityType identifies the type of record stored in the recipe book.
type EntityType string

// Supported entity type identifiers used in errors and metrics labels.
const (
	// EntityUser identifies an account record.
	EntityUser EntityType = "user"
	// EntityCollection identifies a recipe collection record.
	EntityCollection EntityType = "collection"
	// EntityRecipe identifies a recipe record.
	EntityRecipe EntityType = "recipe"
	// EntityIngredient identifies an ingredient record.
	EntityIngredient EntityType = "ingredient"
)

// MaxTitleLength bounds collection and recipe titles, counted in runes.
const MaxTitleLength = 100

// User owns zero or more collections.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Collection is a user-owned, titled group of recipes. Recipes carries every
// recipe of the collection when loaded; the order is not meaningful.
type Collection struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Username string   `json:"username"`
	Recipes  []Recipe `json:"recipes"`
}

// Size reports the number of recipes attached to the collection.
func (c Collection) Size() int { return len(c.Recipes) }

// Recipe belongs to exactly one collection. Times are whole minutes.
type Recipe struct {
	ID           int64        `json:"id"`
	CollectionID int64        `json:"collection_id"`
	Title        string       `json:"title"`
	PrepTime     int          `json:"prep_time"`
	TotalTime    int          `json:"total_time"`
	Instructions string       `json:"instructions"`
	Username     string       `json:"username"`
	Ingredients  []Ingredient `json:"ingredients"`
}

// Ingredient is a named quantity/unit pair belonging to one recipe.
type Ingredient struct {
	ID       int64  `json:"id"`
	RecipeID int64  `json:"recipe_id"`
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Username string `json:"username"`
}

// RecipeInput carries the writable recipe attributes for create and update.
type RecipeInput struct {
	Title        string
	PrepTime     int
	TotalTime    int
	Instructions string
}

// WithinTime reports whether the prep time fits inside the total time.
func (in RecipeInput) WithinTime() bool { return in.PrepTime <= in.TotalTime }

// IngredientInput carries the writable ingredient attributes.
type IngredientInput struct {
	Name     string
	Quantity string
	Unit     string
}

// CloneCollection returns a deep copy of c.
func CloneCollection(c Collection) Collection {
	cp := c
	if c.Recipes != nil {
		cp.Recipes = make([]Recipe, len(c.Recipes))
		for i, r := range c.Recipes {
			cp.Recipes[i] = CloneRecipe(r)
		}
	}
	return cp
}

// CloneRecipe returns a deep copy of r.
func CloneRecipe(r Recipe) Recipe {
	cp := r
	cp.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	return cp
}
