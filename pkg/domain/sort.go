package domain

import (
	"cmp"
	"slices"
	"strings"
)

// CompareTitles orders titles case-insensitively.
func CompareTitles(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// SortCollections orders collections by recipe count descending, then by
// case-folded title, then by id.
func SortCollections(collections []Collection) {
	slices.SortStableFunc(collections, func(a, b Collection) int {
		if c := cmp.Compare(b.Size(), a.Size()); c != 0 {
			return c
		}
		if c := CompareTitles(a.Title, b.Title); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortRecipes orders recipes by case-folded title, then by id.
func SortRecipes(recipes []Recipe) {
	slices.SortStableFunc(recipes, func(a, b Recipe) int {
		if c := CompareTitles(a.Title, b.Title); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
