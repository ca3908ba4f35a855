// Package id generates prefixed NanoID identifiers for things that live
// outside the catalog collections, such as import jobs. Catalog documents
// keep their ObjectID hex ids; these are for ephemeral work items where a
// readable prefix helps when grepping logs.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate returns a new id of the form "<prefix>-<nanoid>", e.g.
// "imp-V1StGXR8_Z5jdHi6B-myT". The random part is a default NanoID:
// 21 URL-safe characters.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is Generate for callers that would rather crash than run
// without entropy, such as initialization code.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
