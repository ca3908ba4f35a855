// Package main provides a dry-run checker for import drop files.
//
// It parses a batch file the way the import watcher would and validates
// every draft without touching the store, so a batch can be checked before
// dropping it into the watched folder.
//
// Usage:
//
//	go run ./cmd/batchcheck <batch.json>
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"

	"github.com/cinelogapp/cinelog-server/internal/importer"
	"github.com/cinelogapp/cinelog-server/internal/normalize"
	"github.com/cinelogapp/cinelog-server/internal/validation"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: batchcheck <batch.json>")
	}

	path := os.Args[1]
	fmt.Printf("Checking: %s\n\n", path)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read file: %v", err)
	}

	var batch importer.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		log.Fatalf("Not a valid batch file: %v", err)
	}

	validate := validation.New()
	invalid := 0

	for i, draft := range batch.Movies {
		draft.Overview = normalize.HTMLToMarkdown(draft.Overview)
		if err := validate.Validate(draft); err != nil {
			invalid++
			fmt.Printf("INVALID movie[%d] %s (%s):\n  %v\n", i, draft.Title, draft.ImdbID, err)
			continue
		}
		fmt.Printf("ok movie[%d]  %s (%s)\n", i, draft.Title, draft.ImdbID)
	}

	for i, draft := range batch.Series {
		draft.Overview = normalize.HTMLToMarkdown(draft.Overview)
		if err := validate.Validate(draft); err != nil {
			invalid++
			fmt.Printf("INVALID series[%d] %s (%s):\n  %v\n", i, draft.Title, draft.ImdbID, err)
			continue
		}
		episodes := 0
		for _, season := range draft.SeasonList {
			episodes += len(season.EpisodeList)
		}
		fmt.Printf("ok series[%d] %s (%s) - %d seasons, %d episodes\n",
			i, draft.Title, draft.ImdbID, len(draft.SeasonList), episodes)
	}

	fmt.Printf("\n%d movies, %d series, %d invalid\n", len(batch.Movies), len(batch.Series), invalid)
	if invalid > 0 {
		os.Exit(1)
	}
}
