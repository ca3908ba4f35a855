// Package validation checks request payloads with validator/v10 plus the
// catalog's own field formats, and converts failures to domain errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/cinelogapp/cinelog-server/internal/errors"
)

// Patterns shared by struct validation and the path-parameter checks in the
// catalog services. The date pattern tolerates single-digit months and days,
// which the seeded catalogs use.
var (
	reImdbID          = regexp.MustCompile(`^tt\d+$`)
	reMovieDuration   = regexp.MustCompile(`^(\d{1,2})h\s(\d{1,2})m$`)
	reEpisodeDuration = regexp.MustCompile(`^(?:(\d{1,2})h(?: (\d{1,2})m)?|(\d{1,2})m)$`)
	rePersonName      = regexp.MustCompile(`^([a-zA-Z]+\.?)\s([a-zA-Z]+\.?)(?:\s([a-zA-Z]+))?$`)
	reReleaseDate     = regexp.MustCompile(`^(\d{4})-([1-9]|0[1-9]|1[0-2])-([1-9]|0[1-9]|[12]\d|3[01])$`)
	reYouTubeURL      = regexp.MustCompile(`^((?:https?:)?//)?((?:www|m)\.)?(youtube(?:-nocookie)?\.com|youtu\.be)(/(?:[\w-]+\?v=|embed/|live/|v/)?)([\w-]+)(\S+)?$`)
	reImageURL        = regexp.MustCompile(`https?://\S+(?:png|jpe?g|webp)\S*`)
)

// IsImdbID reports whether s looks like an imdbId ("tt" followed by digits).
// The catalog services use it to reject malformed path parameters before
// touching the store.
func IsImdbID(s string) bool {
	return reImdbID.MatchString(s)
}

// Validator runs struct validation and converts failures to domain errors.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for the catalog's field formats.
func New() *Validator {
	v := validator.New()

	// Report errors under the JSON name the client sent, not the Go field.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" {
			return fld.Name
		}
		return name
	})

	for tag, re := range map[string]*regexp.Regexp{
		"imdbid":           reImdbID,
		"movie_duration":   reMovieDuration,
		"episode_duration": reEpisodeDuration,
		"person_name":      rePersonName,
		"release_date":     reReleaseDate,
		"youtube_url":      reYouTubeURL,
		"image_url":        reImageURL,
	} {
		mustRegister(v, tag, re)
	}

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("validation: registering %q: %v", tag, err))
	}
}

// Validate checks a struct against its validate tags. Failures come back as a
// single domain validation error carrying a per-field message map.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = v.friendlyMessage(e)
	}
	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

//nolint:gocyclo // One case per validation tag.
func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "imdbid":
		return "must match the following format: 'tt0000'"
	case "movie_duration":
		return "must match the following format: '00h 00m'"
	case "episode_duration":
		return "must match the following formats: '00h 00m', '00h' or '00m'"
	case "person_name":
		return "must match the following format: 'Name Surname'"
	case "release_date":
		return "must match the following format: 'YYYY-MM-DD'"
	case "youtube_url":
		return "has to be a valid YouTube URL"
	case "image_url":
		return "must be a valid URL with one of these extensions: (.jpg, .jpeg, .png or .webp)"
	case "min":
		switch e.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("must contain at least %s item(s)", e.Param())
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters", e.Param())
		default:
			return "must be at least " + e.Param()
		}
	case "max":
		switch e.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("must contain at most %s item(s)", e.Param())
		case reflect.String:
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		default:
			return "must be at most " + e.Param()
		}
	case "len":
		return fmt.Sprintf("must be exactly %s characters", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	default:
		return "is invalid"
	}
}
