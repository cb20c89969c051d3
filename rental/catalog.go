/*
catalog.go - Apartment catalog management

PURPOSE:
  Create, update, and soft-delete listings. Enforces ownership and field
  validity. Listings are never physically removed: deletion is a terminal
  flag after which no new bookings may reference the apartment, but its
  booking and review history stays intact.

VALIDATION:
  All field rules live in validateParams, one pass per entity, instead of
  being re-checked ad hoc at each operation.

AUTHORIZATION:
  Only the stored owner may update or delete a listing. Owner is immutable
  after creation.
*/
package rental

import "context"

func validateParams(p ApartmentParams) error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Reason: "empty"}
	}
	if p.Description == "" {
		return &ValidationError{Field: "description", Reason: "empty"}
	}
	if p.Location == "" {
		return &ValidationError{Field: "location", Reason: "empty"}
	}
	if p.Rooms == 0 {
		return &ValidationError{Field: "rooms", Reason: "must be positive"}
	}
	if p.Price == 0 {
		return &ValidationError{Field: "price", Reason: "must be positive"}
	}
	return nil
}

// CreateApartment validates the listing fields, assigns the next sequential
// id, and stores the listing. Returns the new id.
func (e *Engine) CreateApartment(ctx context.Context, owner Identity, p ApartmentParams) (ApartmentID, error) {
	if owner == "" {
		return 0, &ValidationError{Field: "owner", Reason: "empty"}
	}
	if err := validateParams(p); err != nil {
		return 0, err
	}
	return e.store.InsertApartment(ctx, Apartment{
		Owner:       owner,
		Name:        p.Name,
		Description: p.Description,
		Location:    p.Location,
		Images:      append([]string(nil), p.Images...),
		Rooms:       p.Rooms,
		Price:       p.Price,
		CreatedAt:   e.now(),
	})
}

// UpdateApartment overwrites the mutable fields of a listing. Fails
// ErrNotFound for an unknown id, ErrUnauthorized when the caller is not the
// owner, and with the same field rules as CreateApartment. On any failure
// the stored listing is untouched.
func (e *Engine) UpdateApartment(ctx context.Context, caller Identity, id ApartmentID, p ApartmentParams) error {
	a, err := e.store.GetApartment(ctx, id)
	if err != nil {
		return err
	}
	if caller != a.Owner {
		return ErrUnauthorized
	}
	if err := validateParams(p); err != nil {
		return err
	}
	a.Name = p.Name
	a.Description = p.Description
	a.Location = p.Location
	a.Images = append([]string(nil), p.Images...)
	a.Rooms = p.Rooms
	a.Price = p.Price
	return e.store.UpdateApartment(ctx, a)
}

// DeleteApartment soft-deletes a listing. Deleting an already-deleted
// listing is a successful no-op, not an error.
func (e *Engine) DeleteApartment(ctx context.Context, caller Identity, id ApartmentID) error {
	a, err := e.store.GetApartment(ctx, id)
	if err != nil {
		return err
	}
	if caller != a.Owner {
		return ErrUnauthorized
	}
	if a.Deleted {
		return nil
	}
	a.Deleted = true
	return e.store.UpdateApartment(ctx, a)
}

// GetApartment returns a copy of the listing, deleted or not.
func (e *Engine) GetApartment(ctx context.Context, id ApartmentID) (Apartment, error) {
	return e.store.GetApartment(ctx, id)
}

// ListApartments returns every listing, deleted ones included. Callers
// filter deleted listings themselves.
func (e *Engine) ListApartments(ctx context.Context) ([]Apartment, error) {
	return e.store.ListApartments(ctx)
}
