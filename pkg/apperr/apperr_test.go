package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	assert.Equal(t, "Not found.", New(CodeNotFound, "Not found.").Error())

	err := New(CodeInvalidRequestBody, "Invalid input.").
		WithDetails(Detail{Reason: "Invalid structure.", Code: CodeInvalidStructure})
	assert.Equal(t, "Invalid input. (Invalid structure.)", err.Error())
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name        string
		cause       error
		wantDetails []Detail
	}{
		{
			name:  "plain error",
			cause: errors.New("database is locked"),
			wantDetails: []Detail{
				{Reason: "database is locked", Code: CodeApplicationError},
			},
		},
		{
			name:  "domain error without details",
			cause: New(CodeExistingSlug, "Slug taken."),
			wantDetails: []Detail{
				{Reason: "Slug taken.", Code: CodeExistingSlug},
			},
		},
		{
			name: "domain error with details",
			cause: New(CodeInvalidRequestBody, "Invalid input.").WithDetails(
				Detail{Reason: "a", Code: CodeNoSlug},
				Detail{Reason: "b", Code: CodeEntryCount},
			),
			wantDetails: []Detail{
				{Reason: "a", Code: CodeNoSlug},
				{Reason: "b", Code: CodeEntryCount},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Wrap(CodeInvalidUpdate, "Could not update the revision.", tt.cause)

			assert.Equal(t, CodeInvalidUpdate, err.Code)
			assert.Equal(t, "Could not update the revision.", err.Message)
			assert.Equal(t, tt.wantDetails, err.Details)
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestIsCode(t *testing.T) {
	wrapped := fmt.Errorf("submitting: %w",
		Wrap(CodeInvalidUpdate, "Could not update the revision.", New(CodeExistingSlug, "Slug taken.")))

	assert.True(t, IsCode(wrapped, CodeInvalidUpdate))
	assert.True(t, IsCode(wrapped, CodeExistingSlug))
	assert.False(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeApplicationError))
	assert.False(t, IsCode(nil, CodeNotFound))

	var target *Error
	require.ErrorAs(t, wrapped, &target)
}
