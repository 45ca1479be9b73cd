// Package content is the dashboard core: one Schema per entity drives a
// generic list view, edit form, and delete confirmation.
package content

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// Errors returned by views and forms.
var (
	ErrNotOpen      = errors.New("form is not open")
	ErrBusy         = errors.New("form is submitting")
	ErrUnknownField = errors.New("unknown field")
	ErrUnknownSlot  = errors.New("unknown upload slot")
	ErrDialogClosed = errors.New("confirmation dialog is not open")
)

// Field is one editable value of an entity.
type Field struct {
	Key       string
	Label     string
	Numeric   bool
	Integer   bool
	Multiline bool
}

// RuleKind is the check a Rule performs.
type RuleKind int

// Rule kinds. Numeric rules pass blank values; pair them with Required.
const (
	Required RuleKind = iota
	Numeric
)

// Rule is one validation check. Rules run in declaration order and the first
// failure wins.
type Rule struct {
	Field   string
	Kind    RuleKind
	Message string
}

// UploadSlot is a file input whose upload fills URLField.
type UploadSlot struct {
	Name      string
	Label     string
	Category  string
	Accept    string
	URLField  string
	NameField string
	SizeField string
}

// Card is the display form of a document in a list.
type Card struct {
	ID       string
	Title    string
	Subtitle string
	Meta     string
	Body     string
	MediaURL string
	ImageURL string
	LinkURL  string
}

// Messages are the toasts shown after successful writes.
type Messages struct {
	Created string
	Edited  string
	Deleted string
}

// Schema describes one entity kind to the generic views.
type Schema struct {
	Kind         types.Kind
	Title        string
	Plural       string
	Route        string
	Fields       []Field
	Rules        []Rule
	SearchFields []string
	Order        types.Order
	Uploads      []UploadSlot
	CreateStamps []string
	UpdateStamps []string
	Messages     Messages
	Card         func(types.Document) Card
}

// ValidationError reports the first failed rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Field returns the field with the given key.
func (s *Schema) Field(key string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Slot returns the upload slot with the given name.
func (s *Schema) Slot(name string) (UploadSlot, bool) {
	for _, u := range s.Uploads {
		if u.Name == name {
			return u, true
		}
	}
	return UploadSlot{}, false
}

// BlankValues returns an empty value for every field.
func (s *Schema) BlankValues() map[string]string {
	out := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Key] = ""
	}
	return out
}

// ValuesOf returns the form values of a stored document.
func (s *Schema) ValuesOf(doc types.Document) map[string]string {
	out := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Key] = doc.String(f.Key)
	}
	return out
}

// Validate runs the rules in order and returns the first failure.
func (s *Schema) Validate(values map[string]string) *ValidationError {
	for _, r := range s.Rules {
		v := strings.TrimSpace(values[r.Field])
		switch r.Kind {
		case Required:
			if v == "" {
				return &ValidationError{Field: r.Field, Message: r.Message}
			}
		case Numeric:
			if v == "" {
				continue
			}
			f, _ := s.Field(r.Field)
			if _, err := parseNumber(v, f.Integer); err != nil {
				return &ValidationError{Field: r.Field, Message: r.Message}
			}
		}
	}
	return nil
}

// Coerce converts form values into a document body. Numeric fields become
// numbers, blank numeric fields become 0.
func (s *Schema) Coerce(values map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		raw := values[f.Key]
		if !f.Numeric {
			out[f.Key] = raw
			continue
		}
		v := strings.TrimSpace(raw)
		if v == "" {
			out[f.Key] = 0
			continue
		}
		n, err := parseNumber(v, f.Integer)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidData, f.Key, err)
		}
		out[f.Key] = n
	}
	return out, nil
}

// Stamps returns the fields set to the server time on create or edit.
func (s *Schema) Stamps(isEdit bool) []string {
	if isEdit {
		return s.UpdateStamps
	}
	return s.CreateStamps
}

// Matches reports whether any search field contains term, ignoring case.
func (s *Schema) Matches(doc types.Document, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	for _, key := range s.SearchFields {
		if strings.Contains(strings.ToLower(doc.String(key)), needle) {
			return true
		}
	}
	return false
}

// CardOf renders a document for display.
func (s *Schema) CardOf(doc types.Document) Card {
	var c Card
	if s.Card != nil {
		c = s.Card(doc)
	}
	if c.Title == "" {
		c.Title = doc.ID
	}
	c.ID = doc.ID
	return c
}

// SavedMessage is the toast shown after a successful submit.
func (s *Schema) SavedMessage(isEdit bool) string {
	if isEdit {
		return s.Messages.Edited
	}
	return s.Messages.Created
}

// parseNumber parses a decimal number. Integer fields reject fractions and
// values outside the int64 range.
func parseNumber(v string, integer bool) (any, error) {
	if integer {
		n, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("integer out of range: %q", v)
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("not a finite number: %q", v)
	}
	if integer {
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("not an integer: %q", v)
		}
		// float64(math.MaxInt64) rounds up to 2^63.
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, fmt.Errorf("integer out of range: %q", v)
		}
		return int64(f), nil
	}
	return f, nil
}
