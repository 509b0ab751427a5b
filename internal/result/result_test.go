package result

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Result {
	t.Helper()
	r, err := Decode(200, http.Header{
		"Content-Type": {"application/json"},
		"x-trace":      {"a", "b"},
	}, []byte(`{
		"data": [{"id": 1, "name": "first", "tags": ["x", "y"]}, {"id": 2, "owner": null}],
		"meta": {"total": 2}
	}`))
	require.NoError(t, err)
	return r
}

func TestResult_Get(t *testing.T) {
	r := sample(t)

	tests := []struct {
		path string
		want any
	}{
		{"meta.total", float64(2)},
		{"data.0.id", float64(1)},
		{"data.0.tags.1", "y"},
		{"data.1.id", float64(2)},
		{"data.5.id", "fallback"},
		{"data.1.owner", "fallback"},
		{"data.1.owner.name", "fallback"},
		{"meta.total.value", "fallback"},
		{"missing", "fallback"},
		{"data.x", "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Get(tt.path, "fallback"))
		})
	}
}

func TestResult_GetDefaultFuncs(t *testing.T) {
	r := sample(t)

	assert.Nil(t, r.Get("nope"))
	assert.Equal(t, 7, r.Get("nope", func() any { return 7 }))
	assert.Equal(t, "nope!", r.Get("nope", func(name string) any { return name + "!" }))
}

func TestResult_Headers(t *testing.T) {
	r := sample(t)

	assert.Equal(t, "application/json", r.Header("content-type"))
	assert.Equal(t, "a,b", r.Header("X-Trace"))
	assert.Equal(t, "none", r.Header("x-missing", "none"))
	assert.Equal(t, "", r.Header("x-missing"))
	assert.True(t, r.IsOK())
	assert.Equal(t, 200, r.Status())
}

func TestResult_EmptyBody(t *testing.T) {
	r, err := Decode(204, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, r.Body())
	assert.Equal(t, "d", r.Get("data", "d"))
}

func TestResult_DecodePath(t *testing.T) {
	var row struct {
		ID   int      `json:"id"`
		Tags []string `json:"tags"`
	}
	require.NoError(t, sample(t).DecodePath("data.0", &row))
	assert.Equal(t, 1, row.ID)
	assert.Equal(t, []string{"x", "y"}, row.Tags)

	assert.Error(t, sample(t).DecodePath("data.9", &row))
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode(200, nil, []byte("{"))
	assert.Error(t, err)
}
