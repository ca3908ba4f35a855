package domain

import "fmt"

// OwnerKind identifies which collection a review or an imdbId claim belongs to.
type OwnerKind string

const (
	OwnerMovie  OwnerKind = "movie"
	OwnerSeries OwnerKind = "series"
)

// Valid reports whether the kind is one of the known owner kinds.
func (k OwnerKind) Valid() bool {
	return k == OwnerMovie || k == OwnerSeries
}

func (k OwnerKind) String() string {
	return string(k)
}

// ParseOwnerKind converts a string to an OwnerKind.
func ParseOwnerKind(s string) (OwnerKind, error) {
	k := OwnerKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown owner kind: %q", s)
	}
	return k, nil
}

// ImdbClaim records which document owns an imdbId. The claim's document id
// is the imdbId itself, so the store's primary-key uniqueness gives us the
// cross-collection uniqueness the catalog needs.
type ImdbClaim struct {
	ImdbID    string    `json:"_id" bson:"_id"`
	OwnerKind OwnerKind `json:"ownerType" bson:"ownerType"`
	OwnerID   string    `json:"ownerId" bson:"ownerId"`
}

// Owns reports whether the claim belongs to the given document.
func (c *ImdbClaim) Owns(kind OwnerKind, id string) bool {
	return c.OwnerKind == kind && c.OwnerID == id
}
