package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/restq/internal/query"
	"github.com/roach88/restq/internal/querydef"
	"github.com/roach88/restq/internal/resource"
	"github.com/roach88/restq/internal/transport"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]int{"count": 42}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"count": float64(42)}, resp.Data)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}
		require.NoError(t, formatter.Success("deleted"))
		assert.Equal(t, "deleted\n", buf.String())
	})

	t.Run("value", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}
		require.NoError(t, formatter.Success(map[string]int{"count": 42}))
		assert.Equal(t, "{\n  \"count\": 42\n}\n", buf.String())
	})
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error(ErrCodeRequest, "get failed", map[string]any{"status": 404}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E002", resp.Error.Code)
	assert.Equal(t, "get failed", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("E001", "request failed", map[string]string{"url": "x"}))
			assert.Contains(t, buf.String(), "Error [E001]: request failed")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("GET %s", "http://api.test/posts")
	assert.Empty(t, out.String())
	assert.Equal(t, "GET http://api.test/posts\n", errOut.String())

	formatter.Verbose = false
	formatter.VerboseLog("hidden")
	assert.Equal(t, "GET http://api.test/posts\n", errOut.String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"request", &transport.RequestError{Method: "GET", URL: "u", Status: 500}, ErrCodeRequest, ExitFailure},
		{"decode", &transport.ResponseDecodeError{Status: 200}, ErrCodeDecode, ExitFailure},
		{"argument", &resource.InvalidArgumentError{Argument: "url"}, ErrCodeArgument, ExitCommandError},
		{"unsupported", &query.UnsupportedOperationError{Operation: "median"}, ErrCodeUnsupported, ExitCommandError},
		{"definition", &querydef.DefinitionError{Message: "bad"}, ErrCodeDefinition, ExitCommandError},
		{"exit error", NewExitError(ExitCommandError, "bad flag"), ErrCodeGeneric, ExitCommandError},
		{"other", errors.New("boom"), ErrCodeGeneric, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, exit := classify(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantExit, exit)
		})
	}
}

func TestFail_IncludesRequestDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Fail("get", &transport.RequestError{
		Method: "GET", URL: "http://api.test/posts/9", Status: 404, Body: []byte("Bad request"),
	})
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, map[string]any{"status": float64(404), "body": "Bad request"}, resp.Error.Details)
}
