package catalog

import (
	"context"
	"fmt"

	"github.com/cinelogapp/cinelog-server/internal/domain"
	"github.com/cinelogapp/cinelog-server/internal/errors"
	"github.com/cinelogapp/cinelog-server/internal/store"
)

// Registry tracks which document owns each imdbId. Claims live in their own
// collection keyed by the imdbId itself, so reserving one is a single
// insert and two concurrent writers cannot both win: the store's duplicate
// id check is the uniqueness constraint the document collections lack.
//
// Writers reserve the claim before inserting the owning document and
// release it again when the document write fails, so a failed create does
// not burn the id. The window between a document write and the matching
// claim release on rename or delete can leak a claim on a crash; the
// Auditor reports those as stale.
type Registry struct {
	store store.Store
}

// NewRegistry creates a registry over the given store.
func NewRegistry(st store.Store) *Registry {
	return &Registry{store: st}
}

// Owner returns the claim holding an imdbId, or nil when it is unclaimed.
func (r *Registry) Owner(ctx context.Context, imdbID string) (*domain.ImdbClaim, error) {
	var claim domain.ImdbClaim
	if err := r.store.Get(ctx, store.CollectionImdbIDs, imdbID, &claim); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return nil, nil
		}
		return nil, fmt.Errorf("get imdbId claim: %w", err)
	}
	return &claim, nil
}

// Exists reports whether any movie or series claims the imdbId.
func (r *Registry) Exists(ctx context.Context, imdbID string) (bool, error) {
	claim, err := r.Owner(ctx, imdbID)
	if err != nil {
		return false, err
	}
	return claim != nil, nil
}

// Reserve claims an imdbId for an owner. It fails with store.ErrDuplicateID
// when the id is already claimed; callers translate that into AlreadyExists
// or ImdbIdInUse depending on the operation.
func (r *Registry) Reserve(ctx context.Context, claim domain.ImdbClaim) error {
	return r.store.Insert(ctx, store.CollectionImdbIDs, claim.ImdbID, claim)
}

// Release drops the claim on an imdbId. Releasing an unclaimed id is not an
// error, so compensation paths can call it unconditionally.
func (r *Registry) Release(ctx context.Context, imdbID string) error {
	if _, err := r.store.Delete(ctx, store.CollectionImdbIDs, imdbID); err != nil {
		return fmt.Errorf("release imdbId claim: %w", err)
	}
	return nil
}

// Claims returns every claim in the registry, in imdbId order.
func (r *Registry) Claims(ctx context.Context) ([]domain.ImdbClaim, error) {
	var claims []domain.ImdbClaim
	if err := r.store.Find(ctx, store.CollectionImdbIDs, store.Filter{}, 0, 0, &claims); err != nil {
		return nil, fmt.Errorf("list imdbId claims: %w", err)
	}
	return claims, nil
}
