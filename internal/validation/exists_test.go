package validation

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/restq/internal/resource"
	"github.com/roach88/restq/internal/transport"
	"github.com/roach88/restq/internal/transport/transporttest"
)

func countTable(n int) *transporttest.Table {
	return transporttest.New().For("/posts", transporttest.JSON(200, map[string]any{
		"data": []any{map[string]any{"count": n}},
	}), "GET")
}

func newRule(t *testing.T, tbl *transporttest.Table) *Exists {
	t.Helper()
	rule, err := NewExistsFromURL("http://api.test/posts", "", resource.WithClient(tbl))
	require.NoError(t, err)
	return rule
}

func lastQuery(t *testing.T, tbl *transporttest.Table) string {
	t.Helper()
	raw, err := json.Marshal(tbl.LastRequest().Body)
	require.NoError(t, err)
	var body struct {
		Query string `json:"_query"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body.Query
}

func TestExists_Validate(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{name: "match", count: 3},
		{name: "no match", count: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := countTable(tt.count)
			err := newRule(t, tbl).Validate(context.Background(), "post_id", 7)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Equal(t, "post_id attribute value is invalid", err.Error())
		})
	}
}

func TestExists_SendsCountQuery(t *testing.T) {
	tbl := countTable(1)
	rule := newRule(t, tbl).WhereNull("deleted_at").Where("status", "open")

	require.NoError(t, rule.Validate(context.Background(), "post_id", 7))
	assert.Equal(t,
		`{"isnull":["deleted_at"],"where":[["status","=","open"],["id","=",7]],"limit":1,"aggregate":{"count":[["*"]]}}`,
		lastQuery(t, tbl))

	// The rule does not accumulate values between calls.
	require.NoError(t, rule.Validate(context.Background(), "post_id", 8))
	assert.Equal(t,
		`{"isnull":["deleted_at"],"where":[["status","=","open"],["id","=",8]],"limit":1,"aggregate":{"count":[["*"]]}}`,
		lastQuery(t, tbl))
}

func TestExists_CustomProperty(t *testing.T) {
	tbl := countTable(1)
	q, err := resource.New("http://api.test/posts", resource.WithClient(tbl))
	require.NoError(t, err)

	rule := NewExists(q, "slug").WhereNot("status", "draft").WhereNotNull("published_at")
	require.NoError(t, rule.Validate(context.Background(), "slug", "hello"))
	assert.Equal(t,
		`{"where":[["status","<>","draft"],["slug","=","hello"]],"notnull":["published_at"],"limit":1,"aggregate":{"count":[["*"]]}}`,
		lastQuery(t, tbl))

	// The source query is left alone.
	assert.True(t, q.Builder().Query().IsEmpty())
}

func TestExists_WithAuthorization(t *testing.T) {
	tbl := countTable(1)
	rule := newRule(t, tbl).WithAuthorization("tok", "")
	require.NoError(t, rule.Validate(context.Background(), "id", 1))
	assert.Equal(t, "Bearer tok", tbl.LastRequest().Header.Get("Authorization"))
}

func TestExists_RequestFailure(t *testing.T) {
	tbl := transporttest.New()

	t.Run("passes by default", func(t *testing.T) {
		assert.NoError(t, newRule(t, tbl).Validate(context.Background(), "id", 1))
	})

	t.Run("fails when configured", func(t *testing.T) {
		err := newRule(t, tbl).WithFailureOnError().Validate(context.Background(), "id", 1)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.True(t, transport.IsRequestError(err))
		assert.Equal(t, 404, transport.StatusOf(err))
	})
}

func TestRegister(t *testing.T) {
	type input struct {
		PostID int `validate:"post_exists"`
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	require.NoError(t, Register(v, "post_exists", newRule(t, countTable(1))))
	assert.NoError(t, v.StructCtx(context.Background(), input{PostID: 1}))

	v = validator.New(validator.WithRequiredStructEnabled())
	require.NoError(t, Register(v, "post_exists", newRule(t, countTable(0))))
	err := v.StructCtx(context.Background(), input{PostID: 2})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "post_exists", verrs[0].Tag())
}
