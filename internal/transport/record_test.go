package transport

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/restq/internal/journal"
)

func openJournal(t *testing.T) *journal.Store {
	t.Helper()
	s, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecorderThenReplayer(t *testing.T) {
	store := openJournal(t)
	ctx := context.Background()

	calls := 0
	live := ClientFunc(func(_ context.Context, req *Request) (*Response, error) {
		calls++
		if req.Method == "DELETE" {
			resp := NewResponse(404, []byte("gone"), nil)
			return resp, CheckStatus(req, resp)
		}
		return NewResponse(200, []byte(`{"data":{"id":2}}`), nil), nil
	})

	rec := NewRecorder(live, store)
	get := &Request{Method: "GET", URL: "http://api/posts/2", Body: map[string]any{"_columns": []string{"*"}}}
	_, err := rec.SendRequest(ctx, get)
	require.NoError(t, err)
	_, err = rec.SendRequest(ctx, &Request{Method: "DELETE", URL: "http://api/posts/9"})
	require.Error(t, err)

	history, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 404, history[0].Status)
	assert.NotEmpty(t, history[0].Error)
	assert.JSONEq(t, `{"_columns":["*"]}`, string(history[1].RequestBody))

	replay := NewReplayer(store)
	resp, err := replay.SendRequest(ctx, &Request{Method: "get", URL: "http://api/posts/2", Body: map[string]any{"_columns": []any{"*"}}})
	require.NoError(t, err)
	assert.Equal(t, `{"data":{"id":2}}`, string(resp.Body))

	_, err = replay.SendRequest(ctx, &Request{Method: "DELETE", URL: "http://api/posts/9"})
	assert.Equal(t, 404, StatusOf(err))

	_, err = replay.SendRequest(ctx, &Request{Method: "GET", URL: "http://api/never"})
	assert.True(t, IsRequestError(err))
	assert.ErrorIs(t, err, journal.ErrNotFound)

	assert.Equal(t, 2, calls)
}
