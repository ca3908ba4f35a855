// Package main provides a read-only inspection tool for the catalog database.
//
// It walks the raw Badger keyspace, prints per-collection counts and
// cross-checks the manually maintained invariants: imdbId claims against
// their owners and reviewIds arrays against stored reviews.
//
// Usage:
//
//	DATA_PATH=~/CineLog/data go run ./cmd/dbinspect
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/cinelogapp/cinelog-server/internal/domain"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/CineLog/data")
	}
	dbPath := filepath.Join(dataPath, "catalog.db")

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("open %s: %v", dbPath, err)
	}
	defer db.Close()

	fmt.Println("=== Catalog Inspection ===")
	fmt.Println()

	movies := map[string]*domain.Movie{}
	series := map[string]*domain.Series{}
	reviews := map[string]*domain.Review{}
	claims := map[string]*domain.ImdbClaim{}
	posterCount := 0

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())

			collection, _, ok := strings.Cut(key, ":")
			if !ok {
				continue
			}

			err := item.Value(func(val []byte) error {
				switch collection {
				case "movies":
					var mv domain.Movie
					if err := json.Unmarshal(val, &mv); err != nil {
						return err
					}
					movies[mv.ID] = &mv
				case "series":
					var sr domain.Series
					if err := json.Unmarshal(val, &sr); err != nil {
						return err
					}
					series[sr.ID] = &sr
				case "reviews":
					var rv domain.Review
					if err := json.Unmarshal(val, &rv); err != nil {
						return err
					}
					reviews[rv.ID] = &rv
				case "imdb_ids":
					var claim domain.ImdbClaim
					if err := json.Unmarshal(val, &claim); err != nil {
						return err
					}
					claims[claim.ImdbID] = &claim
				case "posters":
					posterCount++
				}
				return nil
			})
			if err != nil {
				log.Printf("decode %s: %v", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("walk keyspace: %v", err)
	}

	// Show a few movies with their review membership
	shown := 0
	for _, mv := range movies {
		if shown >= 3 {
			fmt.Printf("... and %d more movies\n\n", len(movies)-shown)
			break
		}
		fmt.Printf("Movie: %s\n", mv.Title)
		fmt.Printf("  ID: %s\n", mv.ID)
		fmt.Printf("  IMDb: %s\n", mv.ImdbID)
		fmt.Printf("  Reviews: %d\n", len(mv.ReviewIDs))
		fmt.Println()
		shown++
	}

	// Cross-check claims against owners
	claimsForMovies := 0
	claimsForSeries := 0
	orphanClaims := 0
	for _, claim := range claims {
		switch claim.OwnerKind {
		case domain.OwnerMovie:
			claimsForMovies++
			if _, ok := movies[claim.OwnerID]; !ok {
				orphanClaims++
				fmt.Printf("ORPHAN CLAIM: %s points at missing movie %s\n", claim.ImdbID, claim.OwnerID)
			}
		case domain.OwnerSeries:
			claimsForSeries++
			if _, ok := series[claim.OwnerID]; !ok {
				orphanClaims++
				fmt.Printf("ORPHAN CLAIM: %s points at missing series %s\n", claim.ImdbID, claim.OwnerID)
			}
		}
	}

	// Cross-check reviewIds arrays against stored reviews
	danglingRefs := 0
	referenced := map[string]bool{}
	for _, mv := range movies {
		for _, reviewID := range mv.ReviewIDs {
			referenced[reviewID] = true
			if _, ok := reviews[reviewID]; !ok {
				danglingRefs++
				fmt.Printf("DANGLING REF: movie %q lists missing review %s\n", mv.Title, reviewID)
			}
		}
	}
	for _, sr := range series {
		for _, reviewID := range sr.ReviewIDs {
			referenced[reviewID] = true
			if _, ok := reviews[reviewID]; !ok {
				danglingRefs++
				fmt.Printf("DANGLING REF: series %q lists missing review %s\n", sr.Title, reviewID)
			}
		}
	}

	orphanReviews := 0
	for id, rv := range reviews {
		if !referenced[id] {
			orphanReviews++
			fmt.Printf("ORPHAN REVIEW: %s (%q) not listed by any %s\n", id, rv.Title, rv.OwnerKind)
		}
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Movies: %d\n", len(movies))
	fmt.Printf("Series: %d\n", len(series))
	fmt.Printf("Reviews: %d\n", len(reviews))
	fmt.Printf("IMDb claims: %d (movies: %d, series: %d)\n", len(claims), claimsForMovies, claimsForSeries)
	fmt.Printf("Poster placeholders: %d\n", posterCount)
	fmt.Printf("Orphan claims: %d\n", orphanClaims)
	fmt.Printf("Dangling review refs: %d\n", danglingRefs)
	fmt.Printf("Orphan reviews: %d\n", orphanReviews)
}
