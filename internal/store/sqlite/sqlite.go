// Package sqlite stores game records in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mattn/go-sqlite3"

	"scorefive/internal/codec"
	"scorefive/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	owner        TEXT    NOT NULL,
	id           TEXT    NOT NULL,
	body         TEXT    NOT NULL,
	created_at   INTEGER NOT NULL,
	last_updated INTEGER NOT NULL,
	complete     INTEGER NOT NULL DEFAULT 0,
	version      INTEGER NOT NULL,
	PRIMARY KEY (owner, id)
);

CREATE INDEX IF NOT EXISTS games_owner_updated ON games (owner, complete, last_updated DESC);
`

// Store implements ports.RecordStore over database/sql.
type Store struct {
	db *sql.DB
}

var _ ports.RecordStore = (*Store)(nil)

// Open opens (creating if needed) the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, owner, id string) (ports.GameRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT body, created_at, last_updated, complete, version
		FROM games WHERE owner = ? AND id = ?`, owner, id)
	rec, err := scanRecord(row, owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.GameRecord{}, ports.ErrRecordNotFound
	}
	return rec, err
}

func (s *Store) Save(ctx context.Context, rec ports.GameRecord, expectedVersion string) (ports.GameRecord, error) {
	body, err := codec.MarshalJSON(rec.Card)
	if err != nil {
		return ports.GameRecord{}, err
	}
	id := rec.Card.ID()

	if expectedVersion == "" {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO games (owner, id, body, created_at, last_updated, complete, version)
			VALUES (?, ?, ?, ?, ?, ?, 1)`,
			rec.Owner, id, string(body), rec.CreatedAt.UnixNano(), rec.LastUpdated.UnixNano(), rec.Complete)
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return ports.GameRecord{}, fmt.Errorf("%w: game %s already exists", ports.ErrVersionConflict, id)
		}
		if err != nil {
			return ports.GameRecord{}, fmt.Errorf("insert game %s: %w", id, err)
		}
		rec.Version = "1"
		return rec, nil
	}

	expected, err := strconv.ParseInt(expectedVersion, 10, 64)
	if err != nil {
		return ports.GameRecord{}, fmt.Errorf("%w: bad version %q", ports.ErrVersionConflict, expectedVersion)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE games SET body = ?, last_updated = ?, complete = ?, version = version + 1
		WHERE owner = ? AND id = ? AND version = ?`,
		string(body), rec.LastUpdated.UnixNano(), rec.Complete, rec.Owner, id, expected)
	if err != nil {
		return ports.GameRecord{}, fmt.Errorf("update game %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ports.GameRecord{}, err
	}
	if n == 0 {
		if _, err := s.Get(ctx, rec.Owner, id); err != nil {
			return ports.GameRecord{}, err
		}
		return ports.GameRecord{}, fmt.Errorf("%w: game %s is not at version %s", ports.ErrVersionConflict, id, expectedVersion)
	}
	rec.Version = strconv.FormatInt(expected+1, 10)
	return rec, nil
}

func (s *Store) List(ctx context.Context, owner string, limit int) ([]ports.GameRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT body, created_at, last_updated, complete, version
		FROM games WHERE owner = ?
		ORDER BY complete, last_updated DESC
		LIMIT ?`, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.GameRecord
	for rows.Next() {
		rec, err := scanRecord(rows, owner)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, owner string) (ports.GameRecord, error) {
	var (
		body             string
		created, updated int64
		complete         bool
		version          int64
	)
	if err := row.Scan(&body, &created, &updated, &complete, &version); err != nil {
		return ports.GameRecord{}, err
	}
	card, err := codec.UnmarshalJSON([]byte(body))
	if err != nil {
		return ports.GameRecord{}, err
	}
	return ports.GameRecord{
		Card:        card,
		Owner:       owner,
		CreatedAt:   time.Unix(0, created).UTC(),
		LastUpdated: time.Unix(0, updated).UTC(),
		Complete:    complete,
		Version:     strconv.FormatInt(version, 10),
	}, nil
}
