package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcity/internal/apperr"
)

type sample struct {
	Title  string  `validate:"required,min=3"`
	Price  float64 `validate:"gt=0"`
	Rating *int    `validate:"omitempty,min=1,max=5"`
}

func TestValidate(t *testing.T) {
	five := 5
	assert.Nil(t, Validate(sample{Title: "Plumbing", Price: 10, Rating: &five}))

	fields := Validate(sample{Title: "ab", Price: 0})
	assert.Equal(t, map[string]string{"Title": "min", "Price": "gt"}, fields)
}

func TestCheck(t *testing.T) {
	six := 6
	err := Check(sample{Title: "Garden", Price: 1, Rating: &six})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "Invalid fields: Rating (max)", err.Error())

	err = Check(sample{})
	require.Error(t, err)
	assert.Equal(t, "Invalid fields: Price (gt), Title (required)", err.Error())
}
