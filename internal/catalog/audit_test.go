package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinelogapp/cinelog-server/internal/domain"
	"github.com/cinelogapp/cinelog-server/internal/store"
)

func issuesOfKind(report *AuditReport, kind string) []AuditIssue {
	var out []AuditIssue
	for _, issue := range report.Issues {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}

// rawMovie builds a movie document for inserting behind the services' back,
// the way an out-of-band writer would.
func rawMovie(id, imdbID, title string) *domain.Movie {
	return &domain.Movie{
		ID:          id,
		ImdbID:      imdbID,
		Title:       title,
		Overview:    "Inserted without the catalog services.",
		Duration:    "1h 30m",
		Director:    "Nobody Inparticular",
		ReleaseDate: "1999-01-01",
		TrailerLink: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Genres:      []string{"Drama"},
		Poster:      "https://example.com/poster.jpg",
		Backdrop:    "https://example.com/backdrop.jpg",
		ReviewIDs:   []string{},
	}
}

func TestAuditor_CleanCatalog(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	movie, err := tc.movies.Create(ctx, validMovieDraft())
	require.NoError(t, err)
	_, err = tc.series.Create(ctx, validSeriesDraft())
	require.NoError(t, err)
	_, err = tc.reviews.Create(ctx, validReviewDraft(movie.ImdbID))
	require.NoError(t, err)

	report, err := NewAuditor(tc.store, testLogger()).Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Issues)
	assert.Equal(t, 1, report.CheckedMovies)
	assert.Equal(t, 1, report.CheckedSeries)
	assert.Equal(t, 1, report.CheckedReviews)
	assert.Equal(t, 2, report.CheckedClaims)
}

func TestAuditor_UnclaimedImdbID(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	id := NewID()
	err := tc.store.Insert(ctx, store.CollectionMovies, id, rawMovie(id, "tt0000001", "Smuggled In"))
	require.NoError(t, err)

	report, err := NewAuditor(tc.store, testLogger()).Audit(ctx)
	require.NoError(t, err)
	issues := issuesOfKind(report, IssueUnclaimedImdbID)
	require.Len(t, issues, 1)
	assert.Equal(t, store.CollectionMovies, issues[0].Collection)
	assert.Equal(t, id, issues[0].ID)
	assert.Contains(t, issues[0].Detail, "tt0000001")
}

func TestAuditor_DuplicateImdbID(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	movie, err := tc.movies.Create(ctx, validMovieDraft())
	require.NoError(t, err)

	// A second document with the same imdbId can only arrive out-of-band;
	// the services would have refused it.
	intruder := NewID()
	err = tc.store.Insert(ctx, store.CollectionMovies, intruder, rawMovie(intruder, movie.ImdbID, "The Dark Knight (Bootleg)"))
	require.NoError(t, err)

	report, err := NewAuditor(tc.store, testLogger()).Audit(ctx)
	require.NoError(t, err)

	duplicates := issuesOfKind(report, IssueDuplicateImdbID)
	require.Len(t, duplicates, 2, "both holders are reported")
	ids := []string{duplicates[0].ID, duplicates[1].ID}
	assert.Contains(t, ids, movie.ID)
	assert.Contains(t, ids, intruder)

	// The registry still backs the legitimate document, so only the
	// intruder shows up as unclaimed.
	unclaimed := issuesOfKind(report, IssueUnclaimedImdbID)
	require.Len(t, unclaimed, 1)
	assert.Equal(t, intruder, unclaimed[0].ID)
	assert.Contains(t, unclaimed[0].Detail, movie.ID)
}

func TestAuditor_StaleClaim(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	// A claim whose owner never made it to disk, the shape a crash between
	// reservation and insert leaves behind.
	ghost := NewID()
	claim := domain.ImdbClaim{ImdbID: "tt0000002", OwnerKind: domain.OwnerMovie, OwnerID: ghost}
	err := tc.store.Insert(ctx, store.CollectionImdbIDs, claim.ImdbID, claim)
	require.NoError(t, err)

	report, err := NewAuditor(tc.store, testLogger()).Audit(ctx)
	require.NoError(t, err)
	issues := issuesOfKind(report, IssueStaleClaim)
	require.Len(t, issues, 1)
	assert.Equal(t, store.CollectionImdbIDs, issues[0].Collection)
	assert.Equal(t, "tt0000002", issues[0].ID)
	assert.Contains(t, issues[0].Detail, ghost)
}

func TestAuditor_StaleClaimAfterRename(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	movie, err := tc.movies.Create(ctx, validMovieDraft())
	require.NoError(t, err)

	// Rewriting the imdbId without touching the registry strands the old
	// claim and leaves the document unclaimed.
	_, err = tc.store.SetFields(ctx, store.CollectionMovies, movie.ID, map[string]any{"imdbId": "tt7654321"})
	require.NoError(t, err)

	report, err := NewAuditor(tc.store, testLogger()).Audit(ctx)
	require.NoError(t, err)

	stale := issuesOfKind(report, IssueStaleClaim)
	require.Len(t, stale, 1)
	assert.Equal(t, movie.ImdbID, stale[0].ID)

	unclaimed := issuesOfKind(report, IssueUnclaimedImdbID)
	require.Len(t, unclaimed, 1)
	assert.Equal(t, movie.ID, unclaimed[0].ID)
}

func TestAuditor_DanglingReviewRef(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	movie, err := tc.movies.Create(ctx, validMovieDraft())
	require.NoError(t, err)

	ghost := NewID()
	_, err = tc.store.Push(ctx, store.CollectionMovies, movie.ID, "reviewIds", ghost)
	require.NoError(t, err)

	report, err := NewAuditor(tc.store, testLogger()).Audit(ctx)
	require.NoError(t, err)
	issues := issuesOfKind(report, IssueDanglingReview)
	require.Len(t, issues, 1)
	assert.Equal(t, movie.ID, issues[0].ID)
	assert.Contains(t, issues[0].Detail, ghost)
}

func TestAuditor_MisattributedReviewRef(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	movie, err := tc.movies.Create(ctx, validMovieDraft())
	require.NoError(t, err)
	review, err := tc.reviews.Create(ctx, validReviewDraft(movie.ImdbID))
	require.NoError(t, err)

	other := validMovieDraft()
	other.ImdbID = "tt0111161"
	other.Title = "The Shawshank Redemption"
	other.Director = "Frank Darabont"
	second, err := tc.movies.Create(ctx, other)
	require.NoError(t, err)

	// The second movie lists a review that points back at the first.
	_, err = tc.store.Push(ctx, store.CollectionMovies, second.ID, "reviewIds", review.ID)
	require.NoError(t, err)

	report, err := NewAuditor(tc.store, testLogger()).Audit(ctx)
	require.NoError(t, err)
	issues := issuesOfKind(report, IssueDanglingReview)
	require.Len(t, issues, 1)
	assert.Equal(t, second.ID, issues[0].ID)
	assert.Contains(t, issues[0].Detail, movie.ID)
	assert.Empty(t, issuesOfKind(report, IssueOrphanReview), "the review itself is fine")
}

func TestAuditor_OrphanReview(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	movie, err := tc.movies.Create(ctx, validMovieDraft())
	require.NoError(t, err)
	review, err := tc.reviews.Create(ctx, validReviewDraft(movie.ImdbID))
	require.NoError(t, err)

	// Drop the forward reference only.
	removed, err := tc.store.Pull(ctx, store.CollectionMovies, movie.ID, "reviewIds", review.ID)
	require.NoError(t, err)
	require.True(t, removed)

	report, err := NewAuditor(tc.store, testLogger()).Audit(ctx)
	require.NoError(t, err)
	issues := issuesOfKind(report, IssueOrphanReview)
	require.Len(t, issues, 1)
	assert.Equal(t, review.ID, issues[0].ID)
	assert.Contains(t, issues[0].Detail, movie.ID)
}

func TestAuditor_ReviewWithUnknownOwnerKind(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	id := NewID()
	alien := map[string]any{
		"_id":       id,
		"title":     "Great read",
		"rating":    4,
		"body":      "Could not put it down.",
		"ownerType": "book",
		"ownerId":   NewID(),
	}
	require.NoError(t, tc.store.Insert(ctx, store.CollectionReviews, id, alien))

	report, err := NewAuditor(tc.store, testLogger()).Audit(ctx)
	require.NoError(t, err)
	issues := issuesOfKind(report, IssueOrphanReview)
	require.Len(t, issues, 1)
	assert.Equal(t, id, issues[0].ID)
	assert.Contains(t, issues[0].Detail, "book")
}

func TestAuditor_EmptySeason(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	series, err := tc.series.Create(ctx, validSeriesDraft())
	require.NoError(t, err)

	// Strip the second season's episodes behind the services' back.
	stored, err := tc.series.FindByID(ctx, series.ID)
	require.NoError(t, err)
	seasons := stored.SeasonList
	seasons[1].EpisodeList = []domain.Episode{}
	_, err = tc.store.SetFields(ctx, store.CollectionSeries, series.ID, map[string]any{"seasonList": seasons})
	require.NoError(t, err)

	report, err := NewAuditor(tc.store, testLogger()).Audit(ctx)
	require.NoError(t, err)
	issues := issuesOfKind(report, IssueEmptySeason)
	require.Len(t, issues, 1)
	assert.Equal(t, series.ID, issues[0].ID)
	assert.Equal(t, "season 2 has no episodes", issues[0].Detail)
}

func TestAuditor_DeletedOwnerLeavesOrphans(t *testing.T) {
	tc := newTestCatalog(t)
	ctx := context.Background()

	movie, err := tc.movies.Create(ctx, validMovieDraft())
	require.NoError(t, err)
	review, err := tc.reviews.Create(ctx, validReviewDraft(movie.ImdbID))
	require.NoError(t, err)

	// Deleting an owner does not cascade into its reviews; the audit is
	// what makes the leftovers visible.
	require.NoError(t, tc.movies.Delete(ctx, movie.ID))

	report, err := NewAuditor(tc.store, testLogger()).Audit(ctx)
	require.NoError(t, err)
	issues := issuesOfKind(report, IssueOrphanReview)
	require.Len(t, issues, 1)
	assert.Equal(t, review.ID, issues[0].ID)
	assert.Equal(t, 0, report.CheckedMovies)
	assert.Equal(t, 1, report.CheckedReviews)
}
