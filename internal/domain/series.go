package domain

import "slices"

// Series represents a television series in the catalog.
type Series struct {
	ID              string   `json:"_id" bson:"_id"`
	ImdbID          string   `json:"imdbId" bson:"imdbId"`
	Title           string   `json:"title" bson:"title"`
	Overview        string   `json:"overview" bson:"overview"`
	NumberOfSeasons int      `json:"numberOfSeasons" bson:"numberOfSeasons"`
	Creator         string   `json:"creator" bson:"creator"`
	ReleaseDate     string   `json:"releaseDate" bson:"releaseDate"`
	TrailerLink     string   `json:"trailerLink" bson:"trailerLink"`
	Genres          []string `json:"genres" bson:"genres"`
	SeasonList      []Season `json:"seasonList" bson:"seasonList"`
	Poster          string   `json:"poster" bson:"poster"`
	Backdrop        string   `json:"backdrop" bson:"backdrop"`
	ReviewIDs       []string `json:"reviewIds" bson:"reviewIds"`
}

// Season is a single season embedded in a series document.
// A season must carry at least one episode; the catalog services enforce
// this on create and on every seasonList rewrite.
type Season struct {
	Overview    string    `json:"overview" bson:"overview"`
	EpisodeList []Episode `json:"episodeList" bson:"episodeList"`
	Poster      string    `json:"poster" bson:"poster"`
}

// Episode is a single episode embedded in a season.
type Episode struct {
	Title       string `json:"title" bson:"title"`
	ReleaseDate string `json:"releaseDate" bson:"releaseDate"`
	Duration    string `json:"duration" bson:"duration"`
	Description string `json:"description" bson:"description"`
}

// SeriesItem is the public list shape for series.
type SeriesItem struct {
	ImdbID          string `json:"imdbId"`
	Title           string `json:"title"`
	NumberOfSeasons int    `json:"numberOfSeasons"`
	ReleaseDate     string `json:"releaseDate"`
	Poster          string `json:"poster"`
}

// Item converts the series to its public list shape.
func (s *Series) Item() SeriesItem {
	return SeriesItem{
		ImdbID:          s.ImdbID,
		Title:           s.Title,
		NumberOfSeasons: s.NumberOfSeasons,
		ReleaseDate:     s.ReleaseDate,
		Poster:          s.Poster,
	}
}

// HasReview reports whether the series references the given review id.
func (s *Series) HasReview(reviewID string) bool {
	return slices.Contains(s.ReviewIDs, reviewID)
}

// EmptySeasons returns the indexes of seasons with no episodes.
// A well-formed series returns an empty slice.
func (s *Series) EmptySeasons() []int {
	var empty []int
	for i := range s.SeasonList {
		if len(s.SeasonList[i].EpisodeList) == 0 {
			empty = append(empty, i)
		}
	}
	return empty
}

// EpisodeCount returns the total number of episodes across all seasons.
func (s *Series) EpisodeCount() int {
	n := 0
	for i := range s.SeasonList {
		n += len(s.SeasonList[i].EpisodeList)
	}
	return n
}
