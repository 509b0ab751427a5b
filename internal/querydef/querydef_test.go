package querydef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/restq/internal/query"
)

const postsDef = `
resource: "posts"
select: ["id", "title"]
where: [{column: "status", value: "open"}]
has: [{
	relation: "comments"
	match: where: [{column: "likes", op: ">=", value: 100}]
}]
sort: {by: "id", order: "desc"}
limit: 10
aggregate: [{method: "count", relation: "comments"}]
`

func TestParse_Defaults(t *testing.T) {
	def, err := Parse("posts.cue", []byte(postsDef))
	require.NoError(t, err)

	assert.Equal(t, "posts", def.Resource)
	assert.Equal(t, []string{"id", "title"}, def.Select)
	require.Len(t, def.Where, 1)
	assert.Equal(t, "=", def.Where[0].Op)
	require.Len(t, def.Aggregate, 1)
	assert.Equal(t, Aggregate{Method: "count", Column: "*", Relation: "comments"}, def.Aggregate[0])
	require.NotNil(t, def.Limit)
	assert.Equal(t, 10, *def.Limit)
	require.Len(t, def.Has, 1)
	require.NotNil(t, def.Has[0].Match)
}

func TestDefinition_Builder(t *testing.T) {
	def, err := Parse("posts.cue", []byte(postsDef))
	require.NoError(t, err)

	b, err := def.Builder()
	require.NoError(t, err)

	env, err := b.Envelope()
	require.NoError(t, err)
	assert.Equal(t,
		`{"where":[["status","=","open"]],"has":[{"column":"comments","match":{"method":"query","params":{"where":[["likes",">=",100]]}}}],"sort":{"order":"DESC","by":"id"},"limit":10,"aggregate":{"count":[["*","comments"]]}}`,
		env.Query)
	assert.Equal(t, []string{"id", "title", "comments_count"}, env.Columns)
}

func TestDefinition_ApplyFilters(t *testing.T) {
	src := `{
		"in": [{"column": "id", "values": [1, 2]}],
		"isNull": ["deleted_at"],
		"between": [{"column": "score", "low": 1, "high": 5}],
		"doesntHave": [{"relation": "flags"}],
		"groupBy": ["author_id"],
		"exclude": ["secret"]
	}`
	def, err := Parse("filters.json", []byte(src))
	require.NoError(t, err)

	b := query.New()
	require.NoError(t, def.Apply(b))

	env, err := b.Envelope()
	require.NoError(t, err)
	assert.Equal(t,
		`{"in":[["id",[1,2]]],"isnull":["deleted_at"],"between":[["score",[1,5]]],"doesnthave":["flags"],"groupby":["author_id"]}`,
		env.Query)
	assert.Equal(t, []string{"secret"}, env.Hidden)
}

func TestParse_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "unknown field", src: `wherever: []`},
		{name: "bad operator", src: `where: [{column: "a", op: "~", value: 1}]`},
		{name: "missing value", src: `where: [{column: "a"}]`},
		{name: "unsupported aggregate", src: `aggregate: [{method: "median"}]`},
		{name: "bad limit", src: `limit: 0`},
		{name: "syntax", src: `where: [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.cue", []byte(tt.src))
			require.Error(t, err)
			var de *DefinitionError
			assert.ErrorAs(t, err, &de)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.cue")
	require.NoError(t, os.WriteFile(path, []byte(postsDef), 0o600))

	def, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "posts", def.Resource)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}
