package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "items"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "items": {"type": "array", "items": {"type": "string"}}
  }
}`

func TestValidateBytes_Valid(t *testing.T) {
	err := ValidateBytes("test", []byte(testSchema), []byte(`{"version": "1", "items": ["a", "b"]}`))
	assert.NoError(t, err)
}

func TestValidateBytes_MissingField(t *testing.T) {
	err := ValidateBytes("test", []byte(testSchema), []byte(`{"items": []}`))
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr), "error should be ValidationError type")
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
	assert.Contains(t, validationErr.Error(), "version")
}

func TestValidateBytes_WrongType(t *testing.T) {
	err := ValidateBytes("test", []byte(testSchema), []byte(`{"version": "1", "items": [1, "b"]}`))
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "items.0", validationErr.Errors[0].Field)
}

func TestValidateBytes_ErrorsSortedByField(t *testing.T) {
	err := ValidateBytes("test", []byte(testSchema), []byte(`{"version": "", "items": [1]}`))
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Len(t, validationErr.Errors, 2)
	assert.Equal(t, "items.0", validationErr.Errors[0].Field)
	assert.Equal(t, "version", validationErr.Errors[1].Field)
}

func TestValidateBytes_MalformedDocument(t *testing.T) {
	err := ValidateBytes("test", []byte(testSchema), []byte(`{"version": `))
	require.Error(t, err)

	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr), "error should be SchemaLoadError type")
	assert.Equal(t, "test", loadErr.Name)
	assert.NotNil(t, loadErr.Unwrap())
}

func TestValidateBytes_MalformedSchema(t *testing.T) {
	err := ValidateBytes("broken", []byte(`{"type": 12}`), []byte(`{}`))
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "broken")
}

func TestValidationError_Format(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{
		{Field: "jobs.0.id", Message: "String length must be greater than or equal to 1"},
	}}
	assert.Contains(t, err.Error(), "validation failed:")
	assert.Contains(t, err.Error(), "1. jobs.0.id: String length")
}
