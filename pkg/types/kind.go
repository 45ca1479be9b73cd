package types

import (
	"fmt"
	"strings"
)

// Kind identifies one of the content entities.
type Kind string

// Entity kinds.
const (
	KindSurah Kind = "surah"
	KindQuote Kind = "quote"
	KindAudio Kind = "audio"
	KindBook  Kind = "book"
	KindDua   Kind = "dua"
)

// Kinds lists every entity kind in hub order.
var Kinds = []Kind{KindSurah, KindAudio, KindBook, KindQuote, KindDua}

// legacyNames are the collection names used by the deployed dashboard data.
var legacyNames = map[Kind]string{
	KindSurah: "surah",
	KindQuote: "quotes",
	KindAudio: "Audios",
	KindBook:  "Books",
	KindDua:   "duas",
}

// CollectionName returns the backend collection holding documents of kind k.
// Legacy names match existing data; otherwise names are lowercase plurals.
func (k Kind) CollectionName(legacy bool) string {
	if legacy {
		return legacyNames[k]
	}
	return k.Plural()
}

// Plural returns the lowercase plural used in routes and normalized names.
func (k Kind) Plural() string {
	return string(k) + "s"
}

// Valid reports whether k is a known entity kind.
func (k Kind) Valid() bool {
	_, ok := legacyNames[k]
	return ok
}

// ParseKind resolves a kind from its singular, plural, or legacy collection
// name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if name == string(k) || name == k.Plural() || name == strings.ToLower(legacyNames[k]) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrCollectionNotFound, s)
}
