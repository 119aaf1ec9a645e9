package tool

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/internal/util"
)

// -------------------- Schema & Validation Tests --------------------

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	// Required only includes non-pointer, non-omitempty exported fields
	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"a"}, req)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		// Use []any to mirror possible JSON decoded schema shape
		"required": []any{"x"},
	}

	err := util.ValidateParameters(map[string]any{"x": 5}, schema)
	assert.NoError(t, err)

	// JSON numbers decode as float64; integral values must still validate
	err = util.ValidateParameters(map[string]any{"x": float64(5)}, schema)
	assert.NoError(t, err)

	err = util.ValidateParameters(map[string]any{}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)

	err = util.ValidateParameters(map[string]any{"x": "not-int"}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "expected type integer")
}

// -------------------- FunctionTool Tests --------------------

func echoSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required": []string{"text"},
	}
}

func TestFunctionTool_Success(t *testing.T) {
	echo := NewFunctionTool("echo", "Echo text back", echoSchema(),
		func(ctx context.Context, args map[string]any) (string, error) {
			return args["text"].(string), nil
		})

	result, err := echo.Call(context.Background(), map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	echo := NewFunctionTool("echo", "Echo text back", echoSchema(),
		func(ctx context.Context, args map[string]any) (string, error) {
			return args["text"].(string), nil
		})

	_, err := echo.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	assert.Equal(t, "echo", toolErr.Tool)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	failing := NewFunctionTool("boom", "Always fails", echoSchema(),
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("upstream unavailable")
		})

	_, err := failing.Call(context.Background(), map[string]any{"text": "x"})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Contains(t, toolErr.Message, "upstream unavailable")
}

func TestFunctionTool_CustomToolErrorPassthrough(t *testing.T) {
	custom := NewToolError("quota", "rate limited", "RATE_LIMITED")
	failing := NewFunctionTool("quota", "Quota limited", echoSchema(),
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", custom
		})

	_, err := failing.Call(context.Background(), map[string]any{"text": "x"})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "RATE_LIMITED", toolErr.Code)
}

type structArgs struct {
	Query string `json:"query" description:"Search query"`
}

func TestFunctionToolFromStruct(t *testing.T) {
	search := NewFunctionToolFromStruct("search", "Search something", structArgs{},
		func(ctx context.Context, args map[string]any) (string, error) {
			return "ok", nil
		})

	_, err := search.Call(context.Background(), map[string]any{})
	assert.Error(t, err)

	result, err := search.Call(context.Background(), map[string]any{"query": "go"})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

// -------------------- Registry Tests --------------------

func TestRegistry(t *testing.T) {
	echo := NewFunctionTool("echo", "Echo text back", echoSchema(), nil)
	search := NewFunctionToolFromStruct("search", "Search something", structArgs{}, nil)

	reg := NewRegistry(search, echo)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"echo", "search"}, reg.Names())

	got, ok := reg.Lookup("echo")
	assert.True(t, ok)
	assert.Equal(t, "echo", got.Name())

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistry_SpecsJSON(t *testing.T) {
	echo := NewFunctionTool("echo", "Echo text back", echoSchema(), nil)
	reg := NewRegistry(echo)

	text, err := reg.SpecsJSON()
	require.NoError(t, err)

	var specs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &specs))
	require.Len(t, specs, 1)
	assert.Equal(t, "echo", specs[0]["function_name"])
	assert.Equal(t, "Echo text back", specs[0]["description"])
	assert.Contains(t, specs[0], "parameters")
}
