package circulation

import (
	"github.com/google/uuid"
)

// ResourceType tags the kind of lendable resource. The lifecycle logic is
// identical for all kinds; the tag exists so one Resource abstraction serves
// books, media items, and equipment units alike.
type ResourceType string

const (
	ResourceTypeBook      ResourceType = "book"
	ResourceTypeMedia     ResourceType = "media"
	ResourceTypeEquipment ResourceType = "equipment"
)

// Resource is a lendable inventory item with a copy count.
//
// AvailableCopies is the single shared mutable counter per resource. It must
// only be changed through DecrementAvailable and IncrementAvailable, and only
// on an instance that was loaded with Tx.ResourceForUpdate so the row lock
// serializes concurrent mutations.
type Resource struct {
	ID              uuid.UUID
	Type            ResourceType
	Title           string
	TotalCopies     int
	AvailableCopies int
}

// BuildResource creates a new Resource with all copies available.
func BuildResource(id uuid.UUID, resourceType ResourceType, title string, totalCopies int) Resource {
	return Resource{
		ID:              id,
		Type:            resourceType,
		Title:           title,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
	}
}

// DecrementAvailable takes one copy out of the available pool.
// Returns ErrOutOfStock if no copies are available.
func (r *Resource) DecrementAvailable() error {
	if r.AvailableCopies == 0 {
		return ErrOutOfStock
	}

	r.AvailableCopies--

	return nil
}

// IncrementAvailable puts one copy back into the available pool.
// Returns ErrInvariantViolation if the increment would exceed TotalCopies,
// which signals a double-return bug in an upstream caller.
func (r *Resource) IncrementAvailable() error {
	if r.AvailableCopies >= r.TotalCopies {
		return ErrInvariantViolation
	}

	r.AvailableCopies++

	return nil
}

// HasAvailableCopies reports whether at least one copy can be borrowed or held.
func (r Resource) HasAvailableCopies() bool {
	return r.AvailableCopies > 0
}
