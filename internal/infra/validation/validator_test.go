package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buckler/internal/domain/shared/errs"
)

type sampleCommand struct {
	TargetID string  `validate:"required"`
	Guests   int     `validate:"min=1"`
	Price    *string `validate:"omitempty,numeric"`
}

func TestValidateReportsFields(t *testing.T) {
	v := New()
	bad := "abc"
	err := v.Validate(context.Background(), sampleCommand{Guests: 0, Price: &bad})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Contains(t, err.Error(), "TargetID failed required")
	assert.Contains(t, err.Error(), "Guests failed min=1")
	assert.Contains(t, err.Error(), "Price failed numeric")
}

func TestValidateAcceptsValidAndNonStruct(t *testing.T) {
	v := New()
	price := "5000.50"
	assert.NoError(t, v.Validate(context.Background(), sampleCommand{TargetID: "lst-1", Guests: 2, Price: &price}))
	assert.NoError(t, v.Validate(context.Background(), &sampleCommand{TargetID: "lst-1", Guests: 1}))
	assert.NoError(t, v.Validate(context.Background(), "not a struct"))
}
