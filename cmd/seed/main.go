// Package main provides a tool to seed the catalog with demo data.
//
// This creates a set of well-known movies and series through the catalog
// services, so imdbId claims and review references come out consistent.
// Safe to re-run: titles already in the catalog are skipped.
//
// Usage:
//
//	DATA_PATH=~/CineLog/data go run ./cmd/seed
//	DATA_PATH=~/CineLog/data go run ./cmd/seed --with-reviews=false
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/cinelogapp/cinelog-server/internal/catalog"
	"github.com/cinelogapp/cinelog-server/internal/store/badger"
	"github.com/cinelogapp/cinelog-server/internal/validation"
)

var withReviews = flag.Bool("with-reviews", true, "Also create sample reviews for each title")

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/CineLog/data")
	}
	dbPath := filepath.Join(dataPath, "catalog.db")

	fmt.Printf("Opening catalog at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	st, err := badger.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	registry := catalog.NewRegistry(st)
	validate := validation.New()
	movies := catalog.NewMovieService(st, registry, validate, nil, logger)
	series := catalog.NewSeriesService(st, registry, validate, nil, logger)
	reviews := catalog.NewReviewService(st, registry, validate, logger)

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	seeded := []string{}

	for _, draft := range demoMovies() {
		exists, err := movies.ExistsByImdbID(ctx, draft.ImdbID)
		if err != nil {
			log.Fatalf("Failed to check %s: %v", draft.ImdbID, err)
		}
		if exists {
			fmt.Printf("  %s (%s) already in catalog, skipping\n", draft.Title, draft.ImdbID)
			continue
		}
		mv, err := movies.Create(ctx, draft)
		if err != nil {
			log.Fatalf("Failed to create movie %s: %v", draft.Title, err)
		}
		fmt.Printf("  Movie created: %s (id: %s)\n", mv.Title, mv.ID)
		seeded = append(seeded, draft.ImdbID)
	}

	for _, draft := range demoSeries() {
		exists, err := series.ExistsByImdbID(ctx, draft.ImdbID)
		if err != nil {
			log.Fatalf("Failed to check %s: %v", draft.ImdbID, err)
		}
		if exists {
			fmt.Printf("  %s (%s) already in catalog, skipping\n", draft.Title, draft.ImdbID)
			continue
		}
		sr, err := series.Create(ctx, draft)
		if err != nil {
			log.Fatalf("Failed to create series %s: %v", draft.Title, err)
		}
		fmt.Printf("  Series created: %s (id: %s)\n", sr.Title, sr.ID)
		seeded = append(seeded, draft.ImdbID)
	}

	if !*withReviews {
		fmt.Printf("\nSeeded %d titles, reviews skipped\n", len(seeded))
		return
	}

	reviewsCreated := 0
	for _, imdbID := range seeded {
		// 1-3 reviews per freshly seeded title
		for range 1 + rng.Intn(3) {
			draft := randomReview(rng, imdbID)
			if _, err := reviews.Create(ctx, draft); err != nil {
				log.Printf("Failed to create review for %s: %v", imdbID, err)
				continue
			}
			reviewsCreated++
		}
	}

	fmt.Printf("\nSeeded %d titles and %d reviews\n", len(seeded), reviewsCreated)
}

func demoMovies() []catalog.MovieDraft {
	return []catalog.MovieDraft{
		{
			ImdbID:      "tt0468569",
			Title:       "The Dark Knight",
			Overview:    "Batman raises the stakes in his war on crime with the help of Lt. Jim Gordon and District Attorney Harvey Dent, until the Joker throws Gotham into anarchy.",
			Duration:    "2h 32m",
			Director:    "Christopher Nolan",
			ReleaseDate: "2008-7-18",
			TrailerLink: "https://www.youtube.com/watch?v=EXeTwQWrcwY",
			Genres:      []string{"Action", "Crime", "Drama"},
			Poster:      "https://image.tmdb.org/t/p/w500/qJ2tW6WMUDux911r6m7haRef0WH.jpg",
			Backdrop:    "https://image.tmdb.org/t/p/original/hkBaDkMWbLaf8B1lsWsKX7Ew3Xq.jpg",
		},
		{
			ImdbID:      "tt1375666",
			Title:       "Inception",
			Overview:    "A thief who steals corporate secrets through dream-sharing technology is given the inverse task of planting an idea into the mind of a C.E.O.",
			Duration:    "2h 28m",
			Director:    "Christopher Nolan",
			ReleaseDate: "2010-7-16",
			TrailerLink: "https://www.youtube.com/watch?v=YoHD9XEInc0",
			Genres:      []string{"Action", "Sci-Fi", "Thriller"},
			Poster:      "https://image.tmdb.org/t/p/w500/oYuLEt3zVCKq57qu2F8dT7NIa6f.jpg",
			Backdrop:    "https://image.tmdb.org/t/p/original/s3TBrRGB1iav7gFOCNx3H31MoES.jpg",
		},
		{
			ImdbID:      "tt0110912",
			Title:       "Pulp Fiction",
			Overview:    "The lives of two mob hitmen, a boxer, a gangster and his wife intertwine in four tales of violence and redemption.",
			Duration:    "2h 34m",
			Director:    "Quentin Tarantino",
			ReleaseDate: "1994-10-14",
			TrailerLink: "https://www.youtube.com/watch?v=s7EdQ4FqbhY",
			Genres:      []string{"Crime", "Drama"},
			Poster:      "https://image.tmdb.org/t/p/w500/d5iIlFn5s0ImszYzBPb8JPIfbXD.jpg",
			Backdrop:    "https://image.tmdb.org/t/p/original/suaEOtk1N1sgg2MTM7oZd2cfVp3.jpg",
		},
		{
			ImdbID:      "tt0816692",
			Title:       "Interstellar",
			Overview:    "A team of explorers travel through a wormhole in space in an attempt to ensure humanity's survival.",
			Duration:    "2h 49m",
			Director:    "Christopher Nolan",
			ReleaseDate: "2014-11-7",
			TrailerLink: "https://www.youtube.com/watch?v=zSWdZVtXT7E",
			Genres:      []string{"Adventure", "Drama", "Sci-Fi"},
			Poster:      "https://image.tmdb.org/t/p/w500/gEU2QniE6E77NI6lCU6MxlNBvIx.jpg",
			Backdrop:    "https://image.tmdb.org/t/p/original/rAiYTfKGqDCRIIqo664sY9XZIvQ.jpg",
		},
	}
}

func demoSeries() []catalog.SeriesDraft {
	return []catalog.SeriesDraft{
		{
			ImdbID:          "tt0903747",
			Title:           "Breaking Bad",
			Overview:        "A chemistry teacher diagnosed with inoperable lung cancer turns to manufacturing and selling methamphetamine with a former student.",
			NumberOfSeasons: 2,
			Creator:         "Vince Gilligan",
			ReleaseDate:     "2008-1-20",
			TrailerLink:     "https://www.youtube.com/watch?v=HhesaQXLuRY",
			Genres:          []string{"Crime", "Drama", "Thriller"},
			SeasonList: []catalog.SeasonDraft{
				{
					Overview: "Walter White begins cooking to secure his family's future.",
					Poster:   "https://image.tmdb.org/t/p/w500/1BP4xYv9ZG4ZVHkL7ocOziBbSYH.jpg",
					EpisodeList: []catalog.EpisodeDraft{
						{Title: "Pilot", ReleaseDate: "2008-1-20", Duration: "58m", Description: "A high school chemistry teacher learns he has terminal cancer and teams up with a former student."},
						{Title: "Cat's in the Bag...", ReleaseDate: "2008-1-27", Duration: "48m", Description: "Walt and Jesse try to dispose of the bodies of two rivals."},
					},
				},
				{
					Overview: "The consequences of the first cook catch up with everyone.",
					Poster:   "https://image.tmdb.org/t/p/w500/e3oGYpoTUhOFK0BJfloru5ZmGV.jpg",
					EpisodeList: []catalog.EpisodeDraft{
						{Title: "Seven Thirty-Seven", ReleaseDate: "2009-3-8", Duration: "47m", Description: "Walt and Jesse realize how dire their situation is with Tuco."},
					},
				},
			},
			Poster:   "https://image.tmdb.org/t/p/w500/ggFHVNu6YYI5L9pCfOacjizRGt.jpg",
			Backdrop: "https://image.tmdb.org/t/p/original/tsRy63Mu5cu8etL1X7ZLyf7UP1M.jpg",
		},
		{
			ImdbID:          "tt3032476",
			Title:           "Better Call Saul",
			Overview:        "The trials and tribulations of criminal lawyer Jimmy McGill in the years leading up to his fateful run-in with Walter White and Jesse Pinkman.",
			NumberOfSeasons: 1,
			Creator:         "Vince Gilligan",
			ReleaseDate:     "2015-2-8",
			TrailerLink:     "https://www.youtube.com/watch?v=HN4oydykJFc",
			Genres:          []string{"Crime", "Drama"},
			SeasonList: []catalog.SeasonDraft{
				{
					Overview: "Jimmy McGill scrapes by as a public defender while caring for his brother Chuck.",
					Poster:   "https://image.tmdb.org/t/p/w500/qcnzYWBfAnFltiPTd4IUKlibyzk.jpg",
					EpisodeList: []catalog.EpisodeDraft{
						{Title: "Uno", ReleaseDate: "2015-2-8", Duration: "53m", Description: "Jimmy works his magic in the courtroom while struggling to make ends meet."},
						{Title: "Mijo", ReleaseDate: "2015-2-9", Duration: "46m", Description: "Jimmy's plan goes off the rails when a pair of twins cross the wrong man."},
					},
				},
			},
			Poster:   "https://image.tmdb.org/t/p/w500/fC2HDm5t0kHl7mTm7jxMR31b7by.jpg",
			Backdrop: "https://image.tmdb.org/t/p/original/hBNVMNhJ2SDtDDLsvwEEoPMsxLA.jpg",
		},
	}
}

var reviewPool = []struct {
	title string
	body  string
}{
	{"An instant classic", "Every scene earns its place. I left the couch only once and regretted it."},
	{"Held up on rewatch", "Second time through and the small details land even harder than the plot."},
	{"Great, not flawless", "The middle act drags a little, but the ending makes up for everything."},
	{"Believe the hype", "I put this off for years. Should not have. The craft on display is absurd."},
	{"Solid but overrated", "Well made, clearly, yet I never connected with any of the characters."},
}

func randomReview(rng *rand.Rand, imdbID string) catalog.ReviewDraft {
	pick := reviewPool[rng.Intn(len(reviewPool))]
	return catalog.ReviewDraft{
		Title:  pick.title,
		Rating: 3 + rng.Intn(3),
		Body:   pick.body,
		ImdbID: imdbID,
	}
}
