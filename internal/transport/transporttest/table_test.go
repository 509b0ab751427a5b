package transporttest

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/restq/internal/transport"
)

func send(t *testing.T, c transport.Client, method, url string) (*transport.Response, error) {
	t.Helper()
	return c.SendRequest(context.Background(), &transport.Request{Method: method, URL: url})
}

func TestTable_Routes(t *testing.T) {
	tbl := New().For("posts/1", JSON(200, map[string]any{"data": map[string]any{"id": 1}}), "GET")

	resp, err := send(t, tbl, "get", "http://api.test/posts/1?page=2")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.JSONEq(t, `{"data":{"id":1}}`, string(resp.Body))
}

func TestTable_UnknownPathIs404(t *testing.T) {
	_, err := send(t, New(), "GET", "http://api.test/missing")

	var re *transport.RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusNotFound, re.Status)
	assert.Equal(t, "Bad request", string(re.Body))
}

func TestTable_MethodMismatchIs403(t *testing.T) {
	tbl := New().For("/posts", JSON(200, nil), "POST")

	_, err := send(t, tbl, "GET", "http://api.test/posts")
	assert.Equal(t, http.StatusForbidden, transport.StatusOf(err))
}

func TestTable_SeveralMethodsOnOnePath(t *testing.T) {
	tbl := New().
		For("/posts", JSON(200, map[string]any{"data": []any{}}), "GET").
		For("/posts", JSON(201, map[string]any{"data": map[string]any{"id": 9}}), "POST")

	resp, err := send(t, tbl, "GET", "http://api.test/posts")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)

	resp, err = send(t, tbl, "post", "http://api.test/posts")
	require.NoError(t, err)
	assert.Equal(t, 201, resp.Status)

	_, err = send(t, tbl, "DELETE", "http://api.test/posts")
	assert.Equal(t, http.StatusForbidden, transport.StatusOf(err))
}

func TestTable_SetRouteResponsesSeveralMethods(t *testing.T) {
	tbl := New().SetRouteResponses(map[string][]Route{
		"/posts/1": {
			{Method: "PUT", Response: JSON(200, nil)},
			{Method: "DELETE", Response: JSON(204, nil)},
		},
	})

	resp, err := send(t, tbl, "PUT", "http://api.test/posts/1")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)

	resp, err = send(t, tbl, "DELETE", "http://api.test/posts/1")
	require.NoError(t, err)
	assert.Equal(t, 204, resp.Status)
}

func TestTable_DefaultMethodIsGet(t *testing.T) {
	tbl := New().For("/posts", JSON(200, nil), "")
	_, err := send(t, tbl, "GET", "http://api.test/posts")
	assert.NoError(t, err)
}

func TestTable_CannedErrorStatus(t *testing.T) {
	tbl := New().For("/boom", JSON(502, map[string]any{"message": "upstream"}), "GET")

	resp, err := send(t, tbl, "GET", "/boom")
	assert.True(t, transport.IsRequestError(err))
	require.NotNil(t, resp)
	assert.Equal(t, 502, resp.Status)
}

func TestTable_RecordsRequests(t *testing.T) {
	tbl := New().SetRouteResponses(map[string][]Route{
		"/a": {{Method: "GET", Response: JSON(200, nil)}},
		"/b": {{Method: "PUT", Response: JSON(200, nil)}},
	})

	_, _ = send(t, tbl, "GET", "http://h/a")
	_, _ = tbl.SendRequest(context.Background(), &transport.Request{
		Method: "PUT",
		URL:    "http://h/b",
		Body:   map[string]any{"x": 1},
	})

	reqs := tbl.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "GET", reqs[0].Method)
	assert.Equal(t, map[string]any{"x": 1}, tbl.LastRequest().Body)
}

func TestTable_RecordedRequestIsIsolated(t *testing.T) {
	tbl := New().For("/a", JSON(200, nil), "POST")

	header := http.Header{"Authorization": {"Bearer one"}}
	body := map[string]any{"title": "x"}
	_, err := tbl.SendRequest(context.Background(), &transport.Request{
		Method: "POST", URL: "http://h/a", Header: header, Body: body,
	})
	require.NoError(t, err)

	header.Set("Authorization", "Bearer two")
	body["title"] = "y"

	last := tbl.LastRequest()
	assert.Equal(t, "Bearer one", last.Header.Get("Authorization"))
	assert.Equal(t, map[string]any{"title": "x"}, last.Body)
}

func TestTable_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().SendRequest(ctx, &transport.Request{Method: "GET", URL: "/x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadRoutes(t *testing.T) {
	tbl, err := LoadRoutes("testdata/routes.yaml")
	require.NoError(t, err)

	resp, err := send(t, tbl, "GET", "http://api.test/posts/2")
	require.NoError(t, err)
	res, err := resp.Result()
	require.NoError(t, err)
	assert.Equal(t, "second", res.Get("data.title"))
	assert.Equal(t, "1", res.Header("x-total"))

	resp, err = send(t, tbl, "DELETE", "http://api.test/posts/3")
	require.NoError(t, err)
	assert.Equal(t, 204, resp.Status)
	assert.Empty(t, resp.Body)

	_, err = send(t, tbl, "GET", "http://api.test/broken")
	assert.Equal(t, 500, transport.StatusOf(err))
}

func TestParseRoutes_RequiresPath(t *testing.T) {
	_, err := ParseRoutes([]byte("routes:\n  - method: GET\n"))
	assert.Error(t, err)
}
