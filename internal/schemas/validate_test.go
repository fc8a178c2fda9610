package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ruleSchema = `{
  "type": "object",
  "required": ["label", "patterns"],
  "properties": {
    "label": {"type": "string", "minLength": 1},
    "patterns": {"type": "array", "items": {"type": "string"}}
  }
}`

func TestValidate_Valid(t *testing.T) {
	err := Validate("rule", []byte(ruleSchema), []byte(`{"label": "Consulting", "patterns": ["consult"]}`))
	assert.NoError(t, err)
}

func TestValidate_MissingField(t *testing.T) {
	err := Validate("rule", []byte(ruleSchema), []byte(`{"label": "Consulting"}`))
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr), "error should be ValidationError type")
	assert.Equal(t, "rule", validationErr.Document)
	assert.NotEmpty(t, validationErr.Errors)
	assert.Contains(t, err.Error(), "patterns")
}

func TestValidate_WrongType(t *testing.T) {
	err := Validate("rule", []byte(ruleSchema), []byte(`{"label": "Consulting", "patterns": "consult"}`))
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "patterns", validationErr.Errors[0].Field)
}

func TestValidate_RootField(t *testing.T) {
	err := Validate("rule", []byte(ruleSchema), []byte(`[]`))
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func TestValidate_BrokenSchema(t *testing.T) {
	err := Validate("broken", []byte(`{"type": `), []byte(`{}`))
	require.Error(t, err)

	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr), "error should be SchemaLoadError type")
	assert.Contains(t, err.Error(), "broken")
}
