package service

import (
	"github.com/google/uuid"

	"github.com/platefeed/backend/internal/models"
)

// IngredientLineInput is one submitted (ingredient, amount) entry.
type IngredientLineInput struct {
	IngredientID uuid.UUID
	Amount       int
}

// ValidateIngredientLines checks a submitted line set against the ingredients
// that exist in the catalog. Pure function over pre-fetched data; the input
// slice is returned unchanged with order preserved.
func ValidateIngredientLines(lines []IngredientLineInput, catalog map[uuid.UUID]models.Ingredient) ([]IngredientLineInput, error) {
	if len(lines) == 0 {
		return nil, fieldError("ingredients", ErrEmptyCollection)
	}
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := catalog[line.IngredientID]; !ok {
			return nil, fieldError("ingredients", ErrUnknownIngredient)
		}
		if _, dup := seen[line.IngredientID]; dup {
			return nil, fieldError("ingredients", ErrDuplicateItem)
		}
		if line.Amount < 1 {
			return nil, fieldError("ingredients", ErrInvalidAmount)
		}
		seen[line.IngredientID] = struct{}{}
	}
	return lines, nil
}

// ValidateTags rejects empty tag sets and repeated ids.
func ValidateTags(tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return fieldError("tags", ErrEmptyCollection)
	}
	seen := make(map[uuid.UUID]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		if _, dup := seen[id]; dup {
			return fieldError("tags", ErrDuplicateItem)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ValidateSubscription checks the self-subscription rule first, then the
// duplicate rule. alreadyExists reflects a prior lookup of the pair.
func ValidateSubscription(subscriberID, authorID uuid.UUID, alreadyExists bool) error {
	if subscriberID == authorID {
		return fieldError("author", ErrSelfSubscription)
	}
	if alreadyExists {
		return fieldError("author", ErrDuplicateSubscription)
	}
	return nil
}

// ValidateUniqueBookmark rejects a second favorite/cart entry for the same
// (user, recipe) pair within one kind.
func ValidateUniqueBookmark(kind BookmarkKind, alreadyExists bool) error {
	if alreadyExists {
		return fieldError(string(kind), ErrDuplicateBookmark)
	}
	return nil
}
