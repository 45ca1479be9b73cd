package types

import (
	"fmt"
	"regexp"
)

// Direction is the sort direction of an Order.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order names the document field a listing is sorted by.
type Order struct {
	Field     string
	Direction Direction
}

// fieldPattern restricts order fields to plain identifiers because backends
// splice them into JSON paths.
var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the field name and direction.
func (o Order) Validate() error {
	if !fieldPattern.MatchString(o.Field) {
		return fmt.Errorf("%w: field %q", ErrInvalidOrder, o.Field)
	}
	switch o.Direction {
	case Asc, Desc:
		return nil
	default:
		return fmt.Errorf("%w: direction %q", ErrInvalidOrder, o.Direction)
	}
}

// SQL returns the direction keyword for an ORDER BY clause.
func (d Direction) SQL() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}
