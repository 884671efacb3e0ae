package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("assigning staff: %w", NotFound("booking %s", "b1"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindForbidden))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestInvalidTransitionCarriesPair(t *testing.T) {
	err := InvalidTransition("completed", "cancelled")

	assert.Equal(t, "completed", err.From)
	assert.Equal(t, "cancelled", err.To)
	assert.Contains(t, err.Error(), "completed -> cancelled")
}

func TestNotFoundIf(t *testing.T) {
	sentinel := errors.New("record not found")

	err := NotFoundIf(fmt.Errorf("wrapped: %w", sentinel), sentinel, "booking %s", "b1")
	assert.True(t, Is(err, KindNotFound))
	assert.Contains(t, err.Error(), "booking b1")

	other := errors.New("connection reset")
	assert.Same(t, other, NotFoundIf(other, sentinel, "booking"))
}

func TestConflictIf(t *testing.T) {
	sentinel := errors.New("duplicate key")

	assert.True(t, Is(ConflictIf(sentinel, sentinel, "payment exists"), KindConflict))
	assert.Nil(t, ConflictIf(nil, sentinel, "payment exists"))
}
