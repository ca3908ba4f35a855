package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cinelogapp/cinelog-server/internal/domain"
	"github.com/cinelogapp/cinelog-server/internal/errors"
	"github.com/cinelogapp/cinelog-server/internal/store"
)

// Issue kinds reported by the auditor.
const (
	IssueDuplicateImdbID = "duplicate-imdbid"
	IssueUnclaimedImdbID = "unclaimed-imdbid"
	IssueStaleClaim      = "stale-claim"
	IssueDanglingReview  = "dangling-review-ref"
	IssueOrphanReview    = "orphan-review"
	IssueEmptySeason     = "empty-season"
)

// AuditIssue is one integrity violation found by a scan.
type AuditIssue struct {
	Kind       string `json:"kind"`
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Detail     string `json:"detail"`
}

// AuditReport summarizes one integrity scan.
type AuditReport struct {
	CheckedMovies  int          `json:"checkedMovies"`
	CheckedSeries  int          `json:"checkedSeries"`
	CheckedReviews int          `json:"checkedReviews"`
	CheckedClaims  int          `json:"checkedClaims"`
	Issues         []AuditIssue `json:"issues"`
}

// Auditor walks the whole catalog and reports every way the collections
// disagree with each other. The services keep the invariants on the happy
// paths; the auditor exists because a schemaless store cannot stop drift
// caused by crashes mid-compensation or writes from outside the API.
type Auditor struct {
	store  store.Store
	logger *slog.Logger
}

// NewAuditor creates an auditor over the given store.
func NewAuditor(st store.Store, logger *slog.Logger) *Auditor {
	return &Auditor{store: st, logger: logger}
}

// Audit loads every movie, series, review and imdbId claim and
// cross-checks them: imdbId uniqueness and registry agreement, review
// references in both directions and season shape. Issues come back in
// scan order (movies, series, reviews, claims), which is stable because
// the store iterates in id order.
func (a *Auditor) Audit(ctx context.Context) (*AuditReport, error) {
	var movies []domain.Movie
	if err := a.store.Find(ctx, store.CollectionMovies, store.Filter{}, 0, 0, &movies); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load movies")
	}
	var series []domain.Series
	if err := a.store.Find(ctx, store.CollectionSeries, store.Filter{}, 0, 0, &series); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load series")
	}
	var reviews []domain.Review
	if err := a.store.Find(ctx, store.CollectionReviews, store.Filter{}, 0, 0, &reviews); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load reviews")
	}
	var claims []domain.ImdbClaim
	if err := a.store.Find(ctx, store.CollectionImdbIDs, store.Filter{}, 0, 0, &claims); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load imdbId claims")
	}

	report := &AuditReport{
		CheckedMovies:  len(movies),
		CheckedSeries:  len(series),
		CheckedReviews: len(reviews),
		CheckedClaims:  len(claims),
		Issues:         []AuditIssue{},
	}

	type ownerRef struct {
		kind domain.OwnerKind
		id   string
	}
	imdbOwners := make(map[string][]ownerRef)
	claimByImdbID := make(map[string]domain.ImdbClaim, len(claims))
	for _, c := range claims {
		claimByImdbID[c.ImdbID] = c
	}
	reviewByID := make(map[string]*domain.Review, len(reviews))
	for i := range reviews {
		reviewByID[reviews[i].ID] = &reviews[i]
	}
	// referenced marks reviews that some owner's reviewIds points at.
	referenced := make(map[string]bool, len(reviews))

	checkOwner := func(kind domain.OwnerKind, id, imdbID string, reviewIDs []string) {
		collection := collectionFor(kind)
		imdbOwners[imdbID] = append(imdbOwners[imdbID], ownerRef{kind: kind, id: id})

		claim, ok := claimByImdbID[imdbID]
		if !ok {
			report.Issues = append(report.Issues, AuditIssue{
				Kind:       IssueUnclaimedImdbID,
				Collection: collection,
				ID:         id,
				Detail:     fmt.Sprintf("imdbId '%s' has no registry claim", imdbID),
			})
		} else if !claim.Owns(kind, id) {
			report.Issues = append(report.Issues, AuditIssue{
				Kind:       IssueUnclaimedImdbID,
				Collection: collection,
				ID:         id,
				Detail:     fmt.Sprintf("imdbId '%s' is claimed by %s '%s'", imdbID, claim.OwnerKind, claim.OwnerID),
			})
		}

		for _, reviewID := range reviewIDs {
			referenced[reviewID] = true
			review, ok := reviewByID[reviewID]
			if !ok {
				report.Issues = append(report.Issues, AuditIssue{
					Kind:       IssueDanglingReview,
					Collection: collection,
					ID:         id,
					Detail:     fmt.Sprintf("reviewIds entry '%s' has no review document", reviewID),
				})
				continue
			}
			if review.OwnerKind != kind || review.OwnerID != id {
				report.Issues = append(report.Issues, AuditIssue{
					Kind:       IssueDanglingReview,
					Collection: collection,
					ID:         id,
					Detail:     fmt.Sprintf("reviewIds entry '%s' points back at %s '%s'", reviewID, review.OwnerKind, review.OwnerID),
				})
			}
		}
	}

	for i := range movies {
		checkOwner(domain.OwnerMovie, movies[i].ID, movies[i].ImdbID, movies[i].ReviewIDs)
	}
	for i := range series {
		checkOwner(domain.OwnerSeries, series[i].ID, series[i].ImdbID, series[i].ReviewIDs)
		for _, seasonIdx := range series[i].EmptySeasons() {
			report.Issues = append(report.Issues, AuditIssue{
				Kind:       IssueEmptySeason,
				Collection: store.CollectionSeries,
				ID:         series[i].ID,
				Detail:     fmt.Sprintf("season %d has no episodes", seasonIdx+1),
			})
		}
	}

	for imdbID, owners := range imdbOwners {
		if len(owners) < 2 {
			continue
		}
		for _, owner := range owners {
			report.Issues = append(report.Issues, AuditIssue{
				Kind:       IssueDuplicateImdbID,
				Collection: collectionFor(owner.kind),
				ID:         owner.id,
				Detail:     fmt.Sprintf("imdbId '%s' is held by %d documents", imdbID, len(owners)),
			})
		}
	}

	for i := range reviews {
		review := &reviews[i]
		if !review.OwnerKind.Valid() {
			report.Issues = append(report.Issues, AuditIssue{
				Kind:       IssueOrphanReview,
				Collection: store.CollectionReviews,
				ID:         review.ID,
				Detail:     fmt.Sprintf("owner kind '%s' is not a collection", review.OwnerKind),
			})
			continue
		}
		if !referenced[review.ID] {
			report.Issues = append(report.Issues, AuditIssue{
				Kind:       IssueOrphanReview,
				Collection: store.CollectionReviews,
				ID:         review.ID,
				Detail:     fmt.Sprintf("%s '%s' does not list this review", review.OwnerKind, review.OwnerID),
			})
		}
	}

	for _, claim := range claims {
		if !a.claimBacked(claim, movies, series) {
			report.Issues = append(report.Issues, AuditIssue{
				Kind:       IssueStaleClaim,
				Collection: store.CollectionImdbIDs,
				ID:         claim.ImdbID,
				Detail:     fmt.Sprintf("claim points at %s '%s', which does not hold imdbId '%s'", claim.OwnerKind, claim.OwnerID, claim.ImdbID),
			})
		}
	}

	a.logger.Info("catalog audit finished",
		"movies", report.CheckedMovies,
		"series", report.CheckedSeries,
		"reviews", report.CheckedReviews,
		"claims", report.CheckedClaims,
		"issues", len(report.Issues),
	)
	return report, nil
}

// claimBacked reports whether the claimed owner document exists and still
// holds the claimed imdbId.
func (a *Auditor) claimBacked(claim domain.ImdbClaim, movies []domain.Movie, series []domain.Series) bool {
	switch claim.OwnerKind {
	case domain.OwnerMovie:
		for i := range movies {
			if movies[i].ID == claim.OwnerID {
				return movies[i].ImdbID == claim.ImdbID
			}
		}
	case domain.OwnerSeries:
		for i := range series {
			if series[i].ID == claim.OwnerID {
				return series[i].ImdbID == claim.ImdbID
			}
		}
	}
	return false
}
