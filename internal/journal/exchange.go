package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ErrNotFound is returned by Lookup when no exchange matches.
var ErrNotFound = errors.New("exchange not found")

// Exchange is one recorded request/response pair.
type Exchange struct {
	Seq            int64         `json:"seq"`
	ID             string        `json:"id"`
	Fingerprint    string        `json:"fingerprint"`
	Method         string        `json:"method"`
	URL            string        `json:"url"`
	RequestBody    []byte        `json:"request_body,omitempty"`
	Status         int           `json:"status"`
	ResponseBody   []byte        `json:"response_body,omitempty"`
	ResponseHeader http.Header   `json:"response_headers,omitempty"`
	Error          string        `json:"error,omitempty"`
	Duration       time.Duration `json:"duration"`
	RecordedAt     time.Time     `json:"recorded_at"`
}

// Record appends an exchange and returns it with Seq, ID and RecordedAt
// filled in. A caller-supplied ID is kept; duplicate IDs are ignored.
func (s *Store) Record(ctx context.Context, ex Exchange) (Exchange, error) {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.RecordedAt.IsZero() {
		ex.RecordedAt = time.Now().UTC()
	}

	headers := ex.ResponseHeader
	if headers == nil {
		headers = http.Header{}
	}
	headerJSON, err := json.Marshal(headers)
	if err != nil {
		return Exchange{}, fmt.Errorf("record exchange: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO exchanges
		(id, fingerprint, method, url, request_body, status, response_body, response_headers, error, duration_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ex.ID,
		ex.Fingerprint,
		ex.Method,
		ex.URL,
		ex.RequestBody,
		ex.Status,
		ex.ResponseBody,
		string(headerJSON),
		ex.Error,
		ex.Duration.Milliseconds(),
		ex.RecordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Exchange{}, fmt.Errorf("record exchange: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Duplicate ID: report the row that already holds it.
		if err := s.db.QueryRowContext(ctx, `SELECT seq FROM exchanges WHERE id = ?`, ex.ID).Scan(&ex.Seq); err != nil {
			return Exchange{}, fmt.Errorf("record exchange: %w", err)
		}
		return ex, nil
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return Exchange{}, fmt.Errorf("record exchange: %w", err)
	}
	ex.Seq = seq
	return ex, nil
}

// Lookup returns the most recent exchange with the given fingerprint.
func (s *Store) Lookup(ctx context.Context, fingerprint string) (Exchange, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, fingerprint, method, url, request_body, status, response_body,
		       response_headers, error, duration_ms, recorded_at
		FROM exchanges
		WHERE fingerprint = ?
		ORDER BY seq DESC
		LIMIT 1
	`, fingerprint)

	ex, err := scanExchange(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Exchange{}, fmt.Errorf("lookup %s: %w", fingerprint, ErrNotFound)
	}
	if err != nil {
		return Exchange{}, fmt.Errorf("lookup %s: %w", fingerprint, err)
	}
	return ex, nil
}

// List returns up to limit exchanges, newest first. A non-positive limit
// returns every exchange.
func (s *Store) List(ctx context.Context, limit int) ([]Exchange, error) {
	query := `
		SELECT seq, id, fingerprint, method, url, request_body, status, response_body,
		       response_headers, error, duration_ms, recorded_at
		FROM exchanges
		ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("list exchanges: %w", err)
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExchange(row scanner) (Exchange, error) {
	var (
		ex         Exchange
		headerJSON string
		durationMS int64
		recordedAt string
	)
	err := row.Scan(
		&ex.Seq,
		&ex.ID,
		&ex.Fingerprint,
		&ex.Method,
		&ex.URL,
		&ex.RequestBody,
		&ex.Status,
		&ex.ResponseBody,
		&headerJSON,
		&ex.Error,
		&durationMS,
		&recordedAt,
	)
	if err != nil {
		return Exchange{}, err
	}

	if err := json.Unmarshal([]byte(headerJSON), &ex.ResponseHeader); err != nil {
		return Exchange{}, fmt.Errorf("decode response headers: %w", err)
	}
	ex.Duration = time.Duration(durationMS) * time.Millisecond
	ex.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
	if err != nil {
		return Exchange{}, fmt.Errorf("parse recorded_at: %w", err)
	}
	return ex, nil
}
