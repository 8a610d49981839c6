package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "count"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "count": {"type": "integer", "minimum": 0}
  },
  "additionalProperties": false
}`

func TestValidateJSON(t *testing.T) {
	v := New("test.schema.json", []byte(testSchema))

	res, err := v.ValidateJSON([]byte(`{"name": "a", "count": 1}`))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.NoError(t, res.Err())

	res, err = v.ValidateJSON([]byte(`{"name": "", "count": -1, "extra": true}`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.GreaterOrEqual(t, len(res.Issues), 2)
	assert.Error(t, res.Err())

	paths := map[string]bool{}
	for _, issue := range res.Issues {
		paths[issue.Path] = true
	}
	assert.True(t, paths["/name"], "expected an issue at /name, got %v", res.Issues)
	assert.True(t, paths["/count"], "expected an issue at /count, got %v", res.Issues)
}

func TestValidateYAML(t *testing.T) {
	v := New("test.schema.json", []byte(testSchema))

	res, err := v.ValidateYAML([]byte("name: x\ncount: 3\n"))
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = v.ValidateYAML([]byte("name: x\n"))
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestValidateMalformedInput(t *testing.T) {
	v := New("test.schema.json", []byte(testSchema))
	_, err := v.ValidateJSON([]byte(`{not json`))
	assert.Error(t, err)
	_, err = v.ValidateYAML([]byte("a: [unclosed"))
	assert.Error(t, err)
}

func TestBrokenSchema(t *testing.T) {
	v := New("broken.schema.json", []byte(`{"type": 12}`))
	_, err := v.ValidateJSON([]byte(`{}`))
	assert.Error(t, err)
}
