// Package postgres stores game records in PostgreSQL through bun.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"scorefive/internal/codec"
	"scorefive/internal/ports"
)

// GameRow is the bun model of one game record. The card is kept as its JSON record.
type GameRow struct {
	bun.BaseModel `bun:"table:scorefive_games"`

	Owner       string    `bun:"owner,pk"`
	ID          string    `bun:"id,pk"`
	Body        string    `bun:"body,type:jsonb,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	LastUpdated time.Time `bun:"last_updated,notnull"`
	Complete    bool      `bun:"complete,notnull"`
	Version     int64     `bun:"version,notnull"`
}

// Store implements ports.RecordStore. Run the migrations package before use.
type Store struct {
	DB *bun.DB
}

var _ ports.RecordStore = (*Store)(nil)

// Open connects to dsn with pgdriver.
func Open(dsn string) *Store {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return &Store{DB: bun.NewDB(sqldb, pgdialect.New())}
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) Get(ctx context.Context, owner, id string) (ports.GameRecord, error) {
	var row GameRow
	err := s.DB.NewSelect().
		Model(&row).
		Where("owner = ?", owner).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.GameRecord{}, ports.ErrRecordNotFound
		}
		return ports.GameRecord{}, fmt.Errorf("failed to fetch game %s: %w", id, err)
	}
	return row.record()
}

func (s *Store) Save(ctx context.Context, rec ports.GameRecord, expectedVersion string) (ports.GameRecord, error) {
	body, err := codec.MarshalJSON(rec.Card)
	if err != nil {
		return ports.GameRecord{}, err
	}
	id := rec.Card.ID()

	if expectedVersion == "" {
		row := GameRow{
			Owner:       rec.Owner,
			ID:          id,
			Body:        string(body),
			CreatedAt:   rec.CreatedAt,
			LastUpdated: rec.LastUpdated,
			Complete:    rec.Complete,
			Version:     1,
		}
		res, err := s.DB.NewInsert().
			Model(&row).
			On("CONFLICT (owner, id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return ports.GameRecord{}, fmt.Errorf("failed to insert game %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ports.GameRecord{}, fmt.Errorf("%w: game %s already exists", ports.ErrVersionConflict, id)
		}
		rec.Version = "1"
		return rec, nil
	}

	expected, err := strconv.ParseInt(expectedVersion, 10, 64)
	if err != nil {
		return ports.GameRecord{}, fmt.Errorf("%w: bad version %q", ports.ErrVersionConflict, expectedVersion)
	}
	res, err := s.DB.NewUpdate().
		Model((*GameRow)(nil)).
		Set("body = ?", string(body)).
		Set("last_updated = ?", rec.LastUpdated).
		Set("complete = ?", rec.Complete).
		Set("version = version + 1").
		Where("owner = ?", rec.Owner).
		Where("id = ?", id).
		Where("version = ?", expected).
		Exec(ctx)
	if err != nil {
		return ports.GameRecord{}, fmt.Errorf("failed to update game %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.Get(ctx, rec.Owner, id); err != nil {
			return ports.GameRecord{}, err
		}
		return ports.GameRecord{}, fmt.Errorf("%w: game %s is not at version %s", ports.ErrVersionConflict, id, expectedVersion)
	}
	rec.Version = strconv.FormatInt(expected+1, 10)
	return rec, nil
}

func (s *Store) List(ctx context.Context, owner string, limit int) ([]ports.GameRecord, error) {
	var rows []GameRow
	q := s.DB.NewSelect().
		Model(&rows).
		Where("owner = ?", owner).
		Order("complete ASC", "last_updated DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list games for %s: %w", owner, err)
	}

	out := make([]ports.GameRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, owner, id string) error {
	res, err := s.DB.NewDelete().
		Model((*GameRow)(nil)).
		Where("owner = ?", owner).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}

func (row GameRow) record() (ports.GameRecord, error) {
	card, err := codec.UnmarshalJSON([]byte(row.Body))
	if err != nil {
		return ports.GameRecord{}, err
	}
	return ports.GameRecord{
		Card:        card,
		Owner:       row.Owner,
		CreatedAt:   row.CreatedAt,
		LastUpdated: row.LastUpdated,
		Complete:    row.Complete,
		Version:     strconv.FormatInt(row.Version, 10),
	}, nil
}
