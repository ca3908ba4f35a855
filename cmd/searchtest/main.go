// Package main provides an offline query tool for the search index.
//
// It opens the Bleve index directly and runs one query, printing the hits
// with their scores. The server must not be running, Bleve holds an
// exclusive lock on the index directory.
//
// Usage:
//
//	DATA_PATH=~/CineLog/data go run ./cmd/searchtest "dark knight"
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cinelogapp/cinelog-server/internal/search"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: searchtest <query>")
		os.Exit(1)
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/CineLog/data")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	index, err := search.NewSearchIndex(search.Options{
		DataPath: filepath.Join(dataPath, "search"),
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	docCount, _ := index.DocumentCount()
	fmt.Printf("Index holds %d documents\n\n", docCount)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	params := search.DefaultSearchParams()
	params.Query = strings.Join(os.Args[1:], " ")

	result, err := index.Search(ctx, params)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	fmt.Printf("Query: %q\n", result.Query)
	fmt.Printf("Total: %d (%dms)\n\n", result.Total, result.TookMs)

	for i, hit := range result.Hits {
		fmt.Printf("[%d] %s (%s)\n", i+1, hit.Title, hit.Kind)
		fmt.Printf("    id=%s imdb=%s score=%.3f\n", hit.ID, hit.ImdbID, hit.Score)
		if len(hit.Genres) > 0 {
			fmt.Printf("    genres: %s\n", strings.Join(hit.Genres, ", "))
		}
		for field, fragment := range hit.Highlights {
			fmt.Printf("    %s: %s\n", field, fragment)
		}
	}

	if len(result.Facets.Kinds) > 0 || len(result.Facets.Genres) > 0 {
		fmt.Println("\nFacets:")
		for _, fc := range result.Facets.Kinds {
			fmt.Printf("  kind/%s: %d\n", fc.Value, fc.Count)
		}
		for _, fc := range result.Facets.Genres {
			fmt.Printf("  genre/%s: %d\n", fc.Value, fc.Count)
		}
	}
}
