package catalog

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"strconv"
	"strings"

	"github.com/cinelogapp/cinelog-server/internal/domain"
)

// PatchParams is a single-field partial update. Value carries the raw JSON
// so every field can be decoded against its own expected type instead of
// arriving as a flat string.
type PatchParams struct {
	Field string
	Value jsontext.Value
}

// fieldDecoder turns a raw patch value into the typed value stored for a
// field. Decoders check types, not formats: patching releaseDate with a
// string that is not a date succeeds, matching the loose contract of the
// full update. The exceptions are imdbId (format and uniqueness, handled
// by the services), rating bounds and season shape.
type fieldDecoder func(raw jsontext.Value) (any, error)

func decodeString(raw jsontext.Value) (any, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.New("must be a string")
	}
	return s, nil
}

func decodeStringList(raw jsontext.Value) (any, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, errors.New("must be an array of strings")
	}
	return list, nil
}

// decodeInt accepts a JSON number or a numeric string, so clients that
// quote every patch value keep working.
func decodeInt(raw jsontext.Value) (any, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, convErr := strconv.Atoi(strings.TrimSpace(s)); convErr == nil {
			return n, nil
		}
	}
	return nil, errors.New("must be an integer")
}

func decodeRating(raw jsontext.Value) (any, error) {
	v, err := decodeInt(raw)
	if err != nil {
		return nil, err
	}
	if n := v.(int); n < 0 || n > 5 {
		return nil, errors.New("must be between 0 and 5")
	}
	return v, nil
}

// decodeSeasons revalidates the structural rules seasons carry: the list
// stays non-empty and every season keeps at least one episode. Without this
// a patch could strip a series below what create and update accept.
func decodeSeasons(raw jsontext.Value) (any, error) {
	var seasons []domain.Season
	if err := json.Unmarshal(raw, &seasons); err != nil {
		return nil, errors.New("must be an array of seasons")
	}
	if len(seasons) == 0 {
		return nil, errors.New("must contain at least one season")
	}
	for i := range seasons {
		if len(seasons[i].EpisodeList) == 0 {
			return nil, errors.New("every season has to have at least one episode")
		}
	}
	return seasons, nil
}
