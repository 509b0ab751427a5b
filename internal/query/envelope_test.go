package query

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertGolden(t *testing.T, name string, b *Builder) {
	t.Helper()
	raw, err := MarshalEnvelope(b)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, raw)
}

func TestEnvelope_Golden(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) *Builder
	}{
		{
			name:  "empty",
			build: func(*testing.T) *Builder { return New() },
		},
		{
			name: "where_or_sort",
			build: func(*testing.T) *Builder {
				return New().Eq("status", "open").OrLike("title", "go").Sort("id", -1)
			},
		},
		{
			name: "operators",
			build: func(*testing.T) *Builder {
				return New().Gte("likes", 100).Neq("title", "a&b").OrLt("rank", 3)
			},
		},
		{
			name: "exists_aggregate",
			build: func(t *testing.T) *Builder {
				b := New().
					Exists("comments", func(q *Builder) *Builder { return q.Eq("approved", true) }).
					Select("id", "title").
					Excludes("secret")
				require.NoError(t, b.Aggregate("count", "*", "comments"))
				require.NoError(t, b.Aggregate("sum", "amount", "orders"))
				return b
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertGolden(t, "envelope_"+tt.name, tt.build(t))
		})
	}
}

func TestEnvelope_Defaults(t *testing.T) {
	env, err := New().Envelope()
	require.NoError(t, err)

	assert.Equal(t, "{}", env.Query)
	assert.Equal(t, []string{}, env.Hidden)
	assert.Equal(t, []string{"*"}, env.Columns)
}

func TestEnvelope_QueryIsString(t *testing.T) {
	raw, err := MarshalEnvelope(New().Eq("id", 2))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	s, ok := body["_query"].(string)
	require.True(t, ok, "_query must stay a pre-serialized string")
	assert.Equal(t, `{"where":[["id","=",2]]}`, s)
}

func TestEnvelope_NoHTMLEscaping(t *testing.T) {
	env, err := New().Gte("likes", 100).Neq("title", "a&b").Envelope()
	require.NoError(t, err)
	assert.Equal(t, `{"where":[["likes",">=",100],["title","<>","a&b"]]}`, env.Query)

	nested, err := New().Exists("tags", func(q *Builder) *Builder { return q.Lt("weight", 5) }).Envelope()
	require.NoError(t, err)
	assert.Equal(t, `{"has":[{"column":"tags","match":{"method":"query","params":{"where":[["weight","<",5]]}}}]}`, nested.Query)
}

func TestEnvelope_AggregationColumns(t *testing.T) {
	b := New().Select("id", "total")
	require.NoError(t, b.Aggregate("sum", "amount", "orders"))
	require.NoError(t, b.Aggregate("sum", "amount", "orders"))
	require.NoError(t, b.Aggregate("count", "*", ""))

	env, err := b.Envelope()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "total", "orders_sum_amount", "count"}, env.Columns)

	var q map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.Query), &q))
	assert.Equal(t, map[string]any{
		"sum":   []any{[]any{"amount", "orders"}, []any{"amount", "orders"}},
		"count": []any{[]any{"*"}},
	}, q["aggregate"])
}

func TestEnvelope_DoesNotMutateBuilder(t *testing.T) {
	b := New().Eq("a", 1)
	require.NoError(t, b.Aggregate("count", "*", ""))

	first, err := b.Envelope()
	require.NoError(t, err)
	second, err := b.Envelope()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []Kind{KindWhere}, b.Query().Kinds())
	assert.Empty(t, b.Columns())
}

func TestBuilder_ImplementsBodyBuilder(t *testing.T) {
	var bb BodyBuilder = New().Eq("id", 1)
	body, err := bb.Body()
	require.NoError(t, err)
	assert.Contains(t, body, "_query")
	assert.Contains(t, body, "_hidden")
	assert.Contains(t, body, "_columns")
}
