/*
review.go - Reviewer qualification and review recording

PURPOSE:
  Only guests who actually stayed may review. "Stayed" means at least one
  booking for the apartment with the checked flag set. Each qualifying
  identity reviews an apartment at most once, and reviews are never mutated
  or deleted.

  Reviews remain writable after a listing is soft-deleted: the stay
  happened, so the feedback stands. Only NEW bookings are blocked by
  deletion.
*/
package rental

import "context"

// QualifiedReviewers returns the identities with at least one checked-in
// booking for the apartment, in order of first qualification.
func (e *Engine) QualifiedReviewers(ctx context.Context, aid ApartmentID) ([]Identity, error) {
	if _, err := e.store.GetApartment(ctx, aid); err != nil {
		return nil, err
	}
	bs, err := e.store.BookingsForApartment(ctx, aid)
	if err != nil {
		return nil, err
	}
	seen := make(map[Identity]bool)
	var out []Identity
	for _, b := range bs {
		if b.Checked && !seen[b.Tenant] {
			seen[b.Tenant] = true
			out = append(out, b.Tenant)
		}
	}
	return out, nil
}

// AddReview records a review by a qualified guest. Fails ErrUnauthorized if
// the caller never checked in at this apartment and ErrAlreadyReviewed on a
// second attempt by the same identity.
func (e *Engine) AddReview(ctx context.Context, caller Identity, aid ApartmentID, text string) (Review, error) {
	if text == "" {
		return Review{}, &ValidationError{Field: "text", Reason: "empty"}
	}

	unlock := e.lockApartment(aid)
	defer unlock()

	qualified, err := e.QualifiedReviewers(ctx, aid)
	if err != nil {
		return Review{}, err
	}
	isQualified := false
	for _, id := range qualified {
		if id == caller {
			isQualified = true
			break
		}
	}
	if !isQualified {
		return Review{}, ErrUnauthorized
	}

	prior, err := e.store.ReviewsForApartment(ctx, aid)
	if err != nil {
		return Review{}, err
	}
	for _, r := range prior {
		if r.Reviewer == caller {
			return Review{}, ErrAlreadyReviewed
		}
	}

	r := Review{
		ApartmentID: aid,
		Reviewer:    caller,
		Text:        text,
		CreatedAt:   e.now(),
	}
	id, err := e.store.InsertReview(ctx, r)
	if err != nil {
		return Review{}, err
	}
	r.ID = id
	return r, nil
}

// Reviews returns the apartment's reviews in insertion order.
func (e *Engine) Reviews(ctx context.Context, aid ApartmentID) ([]Review, error) {
	if _, err := e.store.GetApartment(ctx, aid); err != nil {
		return nil, err
	}
	return e.store.ReviewsForApartment(ctx, aid)
}
