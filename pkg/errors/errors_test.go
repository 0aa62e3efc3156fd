package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseError_FormatsWithLine(t *testing.T) {
	t.Parallel()

	root := fmt.Errorf("unexpected node")
	err := NewParseError("plan.yaml", 12, root)

	require.EqualError(t, err, "parse error: plan.yaml:12: unexpected node")
	require.ErrorIs(t, err, root)
}

func TestParseError_FormatsWithoutLine(t *testing.T) {
	t.Parallel()

	err := NewParseError("plan.yaml", 0, fmt.Errorf("no such file"))
	require.EqualError(t, err, "parse error: plan.yaml: no such file")
}

func TestValidationError_IncludesField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("transformations", "duplicate id \"src\"", nil)
	require.EqualError(t, err, "validation error: transformations: duplicate id \"src\"")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "transformations", validationErr.Field)
}

func TestGenerationError_WrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("iteration does not have any feedback edges")
	err := NewGenerationError("feedback-7", cause)

	require.EqualError(t, err, "generation error on feedback-7: iteration does not have any feedback edges")
	require.ErrorIs(t, err, cause)
}
