package core

import (
	"errors"
	"strings"
	"testing"

	"recipekeeper/pkg/domain"
)

func TestValidateCollectionTitle(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
		msg   string
	}{
		{name: "trimmed", title: "  Soups ", want: "Soups"},
		{name: "blank", title: "   ", msg: MsgCollectionTitleRequired},
		{name: "max length", title: strings.Repeat("a", domain.MaxTitleLength), want: strings.Repeat("a", domain.MaxTitleLength)},
		{name: "too long", title: strings.Repeat("a", domain.MaxTitleLength+1), msg: MsgCollectionTitleLength},
		{name: "runes counted", title: strings.Repeat("é", domain.MaxTitleLength), want: strings.Repeat("é", domain.MaxTitleLength)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateCollectionTitle(tc.title)
			if tc.msg != "" {
				if !errors.Is(err, domain.ErrInvalidInput) || Message(err) != tc.msg {
					t.Fatalf("expected %q, got %v", tc.msg, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestRecipeFormNormalizeDropsBlankRows(t *testing.T) {
	form := RecipeForm{
		Title:        " BLT ",
		Instructions: " Stack it. ",
		Ingredients: []IngredientForm{
			{Name: " Bacon ", Quantity: " 2 ", Unit: " pieces "},
			{Name: " ", Quantity: "", Unit: "  "},
		},
	}.Normalize()
	if form.Title != "BLT" || form.Instructions != "Stack it." {
		t.Fatalf("expected trimmed fields, got %+v", form)
	}
	if len(form.Ingredients) != 1 || form.Ingredients[0] != (IngredientForm{Name: "Bacon", Quantity: "2", Unit: "pieces"}) {
		t.Fatalf("unexpected ingredients %+v", form.Ingredients)
	}
}

func TestRecipeFormValidateIngredients(t *testing.T) {
	form := RecipeForm{
		Title:        "BLT",
		Instructions: "Stack it.",
		Ingredients: []IngredientForm{
			{Name: "Bacon", Quantity: "2", Unit: "pieces"},
			{Name: "bacon", Quantity: "1", Unit: "piece"},
			{Name: "Lettuce", Unit: "handfuls"},
			{Quantity: "1"},
		},
	}
	msgs := Messages(form.Validate())
	want := []string{MsgIngredientDuplicate, MsgIngredientQtyRequired, MsgIngredientNameRequired, MsgIngredientUnitRequired}
	if len(msgs) != len(want) {
		t.Fatalf("got %v want %v", msgs, want)
	}
	for i := range want {
		if msgs[i] != want[i] {
			t.Fatalf("position %d: got %q want %q", i, msgs[i], want[i])
		}
	}
}

func TestRecipeFormValidateLeavesTimeOrderToStore(t *testing.T) {
	form := RecipeForm{Title: "Slow", Instructions: "Wait.", PrepTime: 45, TotalTime: 30}
	if err := form.Validate(); err != nil {
		t.Fatalf("prep beyond total is rejected by the store, got %v", err)
	}
}
