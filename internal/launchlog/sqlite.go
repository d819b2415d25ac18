package launchlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// List limits.
const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// timestampLayout is fixed width so rendered_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Filter controls which launches List returns.
type Filter struct {
	PageID string // optional: only launches of this page
	Limit  int    // default 50, max 200
	Offset int    // pagination offset
}

// ListResult is one page of launches.
type ListResult struct {
	Launches []Event `json:"launches"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
}

// SQLiteRepository stores launches in the launches table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on a migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts ev. ID and RenderedAt are generated if empty.
func (r *SQLiteRepository) Record(ctx context.Context, ev *Event) error {
	if err := ev.prepare(); err != nil {
		return err
	}

	keys, err := json.Marshal(ev.ForwardedKeys)
	if err != nil {
		return fmt.Errorf("marshalling forwarded keys: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO launches (id, request_id, page_id, remote_addr, user_agent,
		                       forwarded_keys, forwarded_count, escape_mode, rendered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, nullableString(ev.RequestID), ev.PageID,
		nullableString(ev.RemoteAddr), nullableString(ev.UserAgent),
		string(keys), ev.ForwardedCount, ev.EscapeMode,
		ev.RenderedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting launch: %w", err)
	}

	return nil
}

// nullableString maps "" to NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns launches matching filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	// An empty page_id matches every row.
	const where = "WHERE (? = '' OR page_id = ?)"

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM launches "+where,
		filter.PageID, filter.PageID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting launches: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, request_id, page_id, remote_addr, user_agent,
		        forwarded_keys, forwarded_count, escape_mode, rendered_at
		 FROM launches `+where+`
		 ORDER BY rendered_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		filter.PageID, filter.PageID, filter.Limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying launches: %w", err)
	}
	defer rows.Close()

	launches := []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		launches = append(launches, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating launches: %w", err)
	}

	return &ListResult{
		Launches: launches,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

func scanEvent(rows *sql.Rows) (Event, error) {
	var ev Event
	var requestID, remoteAddr, userAgent sql.NullString
	var keys, renderedAt string

	if err := rows.Scan(&ev.ID, &requestID, &ev.PageID, &remoteAddr, &userAgent,
		&keys, &ev.ForwardedCount, &ev.EscapeMode, &renderedAt); err != nil {
		return Event{}, fmt.Errorf("scanning launch: %w", err)
	}

	ev.RequestID = requestID.String
	ev.RemoteAddr = remoteAddr.String
	ev.UserAgent = userAgent.String

	if err := json.Unmarshal([]byte(keys), &ev.ForwardedKeys); err != nil {
		return Event{}, fmt.Errorf("decoding forwarded keys of %s: %w", ev.ID, err)
	}
	if ev.ForwardedKeys == nil {
		ev.ForwardedKeys = []string{}
	}

	t, err := time.Parse(time.RFC3339Nano, renderedAt)
	if err != nil {
		return Event{}, fmt.Errorf("parsing launch timestamp %q: %w", renderedAt, err)
	}
	ev.RenderedAt = t

	return ev, nil
}
