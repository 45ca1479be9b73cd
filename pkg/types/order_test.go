package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderValidate(t *testing.T) {
	assert.NoError(t, Order{Field: "surahIndex", Direction: Asc}.Validate())
	assert.NoError(t, Order{Field: "createdAt", Direction: Desc}.Validate())
	assert.ErrorIs(t, Order{Field: "x') --", Direction: Asc}.Validate(), ErrInvalidOrder)
	assert.ErrorIs(t, Order{Field: "", Direction: Asc}.Validate(), ErrInvalidOrder)
	assert.ErrorIs(t, Order{Field: "title", Direction: "sideways"}.Validate(), ErrInvalidOrder)
}
