package journal

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_SetsPragmas(t *testing.T) {
	s := openTest(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestRecord_AssignsSeqAndID(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	first, err := s.Record(ctx, Exchange{Fingerprint: "fp1", Method: "GET", URL: "http://api/posts", Status: 200})
	require.NoError(t, err)
	second, err := s.Record(ctx, Exchange{Fingerprint: "fp2", Method: "POST", URL: "http://api/posts", Status: 201})
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.Greater(t, second.Seq, first.Seq)
	assert.False(t, first.RecordedAt.IsZero())
}

func TestRecord_DuplicateIDIsIgnored(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	a, err := s.Record(ctx, Exchange{ID: "same", Fingerprint: "fp", Method: "GET", URL: "u", Status: 200})
	require.NoError(t, err)
	b, err := s.Record(ctx, Exchange{ID: "same", Fingerprint: "other", Method: "GET", URL: "u", Status: 500})
	require.NoError(t, err)
	assert.Equal(t, a.Seq, b.Seq)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLookup_ReturnsNewestMatch(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := s.Record(ctx, Exchange{Fingerprint: "fp", Method: "GET", URL: "u", Status: 200, ResponseBody: []byte(`{"v":1}`)})
	require.NoError(t, err)
	_, err = s.Record(ctx, Exchange{
		Fingerprint:    "fp",
		Method:         "GET",
		URL:            "u",
		Status:         200,
		ResponseBody:   []byte(`{"v":2}`),
		ResponseHeader: http.Header{"Content-Type": {"application/json"}},
		Duration:       1500 * time.Millisecond,
	})
	require.NoError(t, err)

	ex, err := s.Lookup(ctx, "fp")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(ex.ResponseBody))
	assert.Equal(t, "application/json", ex.ResponseHeader.Get("Content-Type"))
	assert.Equal(t, 1500*time.Millisecond, ex.Duration)
}

func TestLookup_NotFound(t *testing.T) {
	s := openTest(t)

	_, err := s.Lookup(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Lookup() error = %v, want ErrNotFound", err)
	}
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	for _, m := range []string{"GET", "POST", "DELETE"} {
		_, err := s.Record(ctx, Exchange{Fingerprint: m, Method: m, URL: "u", Status: 200})
		require.NoError(t, err)
	}

	got, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "DELETE", got[0].Method)
	assert.Equal(t, "POST", got[1].Method)
}
