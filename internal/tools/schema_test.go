package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpec() ToolSpec {
	return ToolSpec{
		Name: "sample",
		Parameters: []ToolParameter{
			{Name: "path", Type: "string", Required: true},
			{Name: "limit", Type: "integer"},
			{Name: "recursive", Type: "boolean"},
		},
	}
}

func TestCompileSchema(t *testing.T) {
	schema, err := compileSchema(testSpec())
	require.NoError(t, err)
	require.NotNil(t, schema)
}

func TestCompileSchema_BadTypeFailsAtRegistration(t *testing.T) {
	spec := ToolSpec{
		Name: "broken",
		Parameters: []ToolParameter{
			{Name: "x", Type: "strang"},
		},
	}
	_, err := compileSchema(spec)
	require.Error(t, err)
}

func TestValidateArgs_Valid(t *testing.T) {
	spec := testSpec()
	schema, err := compileSchema(spec)
	require.NoError(t, err)

	terr := validateArgs(spec, schema, map[string]interface{}{
		"path":      "/tmp/x",
		"limit":     10, // Go int, not float64
		"recursive": true,
	})
	assert.Nil(t, terr)
}

func TestValidateArgs_MissingRequired(t *testing.T) {
	spec := testSpec()
	schema, err := compileSchema(spec)
	require.NoError(t, err)

	terr := validateArgs(spec, schema, map[string]interface{}{"limit": 10})
	require.NotNil(t, terr)
	assert.Equal(t, KindValidation, terr.Kind)
	assert.Equal(t, "path", terr.Field)
	assert.Equal(t, "missing required argument: path", terr.Message)
}

func TestValidateArgs_WrongTypeNamesField(t *testing.T) {
	spec := testSpec()
	schema, err := compileSchema(spec)
	require.NoError(t, err)

	terr := validateArgs(spec, schema, map[string]interface{}{
		"path":  "/tmp/x",
		"limit": "ten",
	})
	require.NotNil(t, terr)
	assert.Equal(t, KindValidation, terr.Kind)
	assert.Equal(t, "limit", terr.Field)
}

func TestValidateArgs_ExtraArgumentsAllowed(t *testing.T) {
	spec := testSpec()
	schema, err := compileSchema(spec)
	require.NoError(t, err)

	terr := validateArgs(spec, schema, map[string]interface{}{
		"path":  "/tmp/x",
		"extra": "ignored",
	})
	assert.Nil(t, terr)
}

func TestValidateArgs_NilArgsWithNoRequired(t *testing.T) {
	spec := ToolSpec{
		Name:       "bare",
		Parameters: []ToolParameter{{Name: "opt", Type: "string"}},
	}
	schema, err := compileSchema(spec)
	require.NoError(t, err)

	assert.Nil(t, validateArgs(spec, schema, nil))
}

func TestNormalizeJSON(t *testing.T) {
	in := map[string]interface{}{
		"n":    42,
		"n64":  int64(7),
		"list": []interface{}{1, "two"},
		"nested": map[string]interface{}{
			"f": float32(1.5),
		},
	}
	out := normalizeJSON(in).(map[string]interface{})
	assert.Equal(t, float64(42), out["n"])
	assert.Equal(t, float64(7), out["n64"])
	assert.Equal(t, float64(1), out["list"].([]interface{})[0])
	assert.Equal(t, "two", out["list"].([]interface{})[1])
	assert.Equal(t, float64(1.5), out["nested"].(map[string]interface{})["f"])
}
