package content

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// Stamp fields.
const (
	createdAt = "createdAt"
	updatedAt = "updatedAt"
)

var surahSchema = &Schema{
	Kind:   types.KindSurah,
	Title:  "Surah",
	Plural: "Surahs",
	Route:  "/surahs",
	Fields: []Field{
		{Key: "surahIndex", Label: "Surah index", Numeric: true, Integer: true},
		{Key: "surahName", Label: "Surah name"},
		{Key: "englishName", Label: "English name"},
		{Key: "lugandaName", Label: "Luganda name"},
		{Key: "description", Label: "Description", Multiline: true},
		{Key: "location", Label: "Location"},
		{Key: "verses", Label: "Verses", Numeric: true, Integer: true},
		{Key: "audioURL", Label: "Audio URL"},
		{Key: "audioName", Label: "Audio file name"},
		{Key: "fileSize", Label: "File size (MB)", Numeric: true},
	},
	Rules: []Rule{
		{Field: "audioURL", Kind: Required, Message: "audio url is required"},
		{Field: "surahIndex", Kind: Required, Message: "surah index is required"},
		{Field: "surahIndex", Kind: Numeric, Message: "surah index should be number"},
		{Field: "verses", Kind: Numeric, Message: "verses should be number"},
		{Field: "fileSize", Kind: Required, Message: "file size is required"},
		{Field: "fileSize", Kind: Numeric, Message: "file size should be number"},
		{Field: "surahName", Kind: Required, Message: "surah name is required"},
		{Field: "description", Kind: Required, Message: "fill in the description"},
		{Field: "englishName", Kind: Required, Message: "fill in the english name"},
		{Field: "lugandaName", Kind: Required, Message: "provide the luganda name"},
	},
	SearchFields: []string{"surahName", "englishName"},
	Order:        types.Order{Field: "surahIndex", Direction: types.Asc},
	Uploads: []UploadSlot{
		{Name: "audio", Label: "Recitation audio", Category: "Quran", Accept: "audio/*",
			URLField: "audioURL", NameField: "audioName", SizeField: "fileSize"},
	},
	Messages: Messages{
		Created: "Surah has been successfully created",
		Edited:  "Surah has been successfully edited",
		Deleted: "The surah has been removed successfully.",
	},
	Card: func(d types.Document) Card {
		s, err := types.DecodeDocument[types.Surah](d)
		if err != nil {
			return Card{Title: d.String("englishName")}
		}
		var meta []string
		if s.LugandaName != "" {
			meta = append(meta, s.LugandaName)
		}
		if s.Verses > 0 {
			meta = append(meta, fmt.Sprintf("%d verses", s.Verses))
		}
		if s.Location != "" {
			meta = append(meta, s.Location)
		}
		return Card{
			Title:    fmt.Sprintf("%d. %s", s.Index, s.EnglishName),
			Subtitle: s.Name,
			Meta:     strings.Join(meta, " · "),
			Body:     s.Description,
			MediaURL: s.AudioURL,
		}
	},
}

var quoteSchema = &Schema{
	Kind:   types.KindQuote,
	Title:  "Quote",
	Plural: "Quotes",
	Route:  "/quotes",
	Fields: []Field{
		{Key: "author", Label: "Author"},
		{Key: "quote", Label: "Quote", Multiline: true},
	},
	Rules: []Rule{
		{Field: "author", Kind: Required, Message: "author is required"},
		{Field: "quote", Kind: Required, Message: "provide the quote"},
	},
	SearchFields: []string{"quote", "author"},
	Order:        types.Order{Field: createdAt, Direction: types.Desc},
	CreateStamps: []string{createdAt},
	Messages: Messages{
		Created: "Quote has been successfully created",
		Edited:  "Quote has been successfully edited",
		Deleted: "The quote has been removed.",
	},
	Card: func(d types.Document) Card {
		q, err := types.DecodeDocument[types.Quote](d)
		if err != nil {
			return Card{}
		}
		return Card{Title: q.Author, Body: q.Quote}
	},
}

var audioSchema = &Schema{
	Kind:   types.KindAudio,
	Title:  "Audio",
	Plural: "Audios",
	Route:  "/audios",
	Fields: []Field{
		{Key: "title", Label: "Title"},
		{Key: "teacher", Label: "Teacher"},
		{Key: "audioUrl", Label: "Audio URL"},
	},
	Rules: []Rule{
		{Field: "audioUrl", Kind: Required, Message: "audio url is required"},
		{Field: "title", Kind: Required, Message: "title is required"},
		{Field: "teacher", Kind: Required, Message: "teacher is required"},
	},
	SearchFields: []string{"title", "teacher"},
	Order:        types.Order{Field: createdAt, Direction: types.Desc},
	Uploads: []UploadSlot{
		{Name: "audio", Label: "Lecture audio", Category: "audios", Accept: "audio/*", URLField: "audioUrl"},
	},
	CreateStamps: []string{createdAt},
	Messages: Messages{
		Created: "Audio recitation added successfully.",
		Edited:  "Audio recitation updated successfully.",
		Deleted: "Audio has been removed.",
	},
	Card: func(d types.Document) Card {
		a, err := types.DecodeDocument[types.Audio](d)
		if err != nil {
			return Card{}
		}
		return Card{Title: a.Title, Subtitle: a.Teacher, MediaURL: a.AudioURL}
	},
}

var bookSchema = &Schema{
	Kind:   types.KindBook,
	Title:  "Book",
	Plural: "Books",
	Route:  "/books",
	Fields: []Field{
		{Key: "title", Label: "Title"},
		{Key: "author", Label: "Author"},
		{Key: "bookUrl", Label: "Book URL"},
		{Key: "bookThumbnail", Label: "Thumbnail URL"},
	},
	Rules: []Rule{
		{Field: "bookUrl", Kind: Required, Message: "book url is required"},
		{Field: "title", Kind: Required, Message: "title is required"},
		{Field: "author", Kind: Required, Message: "author is required"},
	},
	SearchFields: []string{"title", "author"},
	Order:        types.Order{Field: createdAt, Direction: types.Desc},
	Uploads: []UploadSlot{
		{Name: "book", Label: "Book file", Category: "books", Accept: ".pdf,.epub", URLField: "bookUrl"},
		{Name: "thumbnail", Label: "Cover image", Category: "thumbnails", Accept: "image/*", URLField: "bookThumbnail"},
	},
	CreateStamps: []string{createdAt},
	Messages: Messages{
		Created: "Book resource added successfully.",
		Edited:  "Book resource updated successfully.",
		Deleted: "Book has been removed.",
	},
	Card: func(d types.Document) Card {
		b, err := types.DecodeDocument[types.Book](d)
		if err != nil {
			return Card{}
		}
		return Card{Title: b.Title, Subtitle: b.Author, ImageURL: b.BookThumbnail, LinkURL: b.BookURL}
	},
}

var duaSchema = &Schema{
	Kind:   types.KindDua,
	Title:  "Dua",
	Plural: "Duas",
	Route:  "/duas",
	Fields: []Field{
		{Key: "title", Label: "Title"},
		{Key: "content", Label: "Dua (Arabic)", Multiline: true},
		{Key: "translation", Label: "Translation", Multiline: true},
	},
	Rules: []Rule{
		{Field: "title", Kind: Required, Message: "Title and Dua content are required."},
		{Field: "content", Kind: Required, Message: "Title and Dua content are required."},
	},
	SearchFields: []string{"title", "content"},
	Order:        types.Order{Field: updatedAt, Direction: types.Desc},
	CreateStamps: []string{createdAt, updatedAt},
	UpdateStamps: []string{updatedAt},
	Messages: Messages{
		Created: "Dua added successfully.",
		Edited:  "Dua updated successfully.",
		Deleted: "Supplication has been removed.",
	},
	Card: func(d types.Document) Card {
		du, err := types.DecodeDocument[types.Dua](d)
		if err != nil {
			return Card{}
		}
		return Card{Title: du.Title, Body: du.Content, Meta: du.Translation}
	},
}

var schemas = map[types.Kind]*Schema{
	types.KindSurah: surahSchema,
	types.KindQuote: quoteSchema,
	types.KindAudio: audioSchema,
	types.KindBook:  bookSchema,
	types.KindDua:   duaSchema,
}

// SchemaFor returns the schema of an entity kind.
func SchemaFor(kind types.Kind) (*Schema, error) {
	s, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrCollectionNotFound, kind)
	}
	return s, nil
}

// Lookup resolves a schema from any collection, route, or kind name.
func Lookup(name string) (*Schema, error) {
	kind, err := types.ParseKind(strings.TrimPrefix(name, "/"))
	if err != nil {
		return nil, err
	}
	return SchemaFor(kind)
}

// All returns the schemas in hub order.
func All() []*Schema {
	out := make([]*Schema, 0, len(types.Kinds))
	for _, k := range types.Kinds {
		out = append(out, schemas[k])
	}
	return out
}
