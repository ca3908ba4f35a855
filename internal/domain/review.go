package domain

import "time"

// Review represents a user review attached to a movie or a series.
//
// OwnerKind and OwnerID are the authoritative back-reference to the owning
// document. They are persisted but never serialized on the public surface;
// the owner's ReviewIDs entry is the forward reference kept in step with
// them.
type Review struct {
	ID        string    `json:"_id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Rating    int       `json:"rating" bson:"rating"`
	Body      string    `json:"body" bson:"body"`
	OwnerKind OwnerKind `json:"ownerType" bson:"ownerType"`
	OwnerID   string    `json:"ownerId" bson:"ownerId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ReviewItem is the public shape for reviews. It hides the owner
// back-reference, which is an implementation detail of the store.
type ReviewItem struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Rating    int       `json:"rating"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Item converts the review to its public shape.
func (r *Review) Item() ReviewItem {
	return ReviewItem{
		ID:        r.ID,
		Title:     r.Title,
		Rating:    r.Rating,
		Body:      r.Body,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Touch updates the modification timestamp. Create stamps both timestamps
// with the same instant; every later update or patch goes through Touch.
func (r *Review) Touch(now time.Time) {
	r.UpdatedAt = now
}
