package ports

import (
	"context"
	"errors"
	"time"

	"scorefive/internal/domain"
)

var (
	ErrRecordNotFound  = errors.New("game record not found")
	ErrVersionConflict = errors.New("game record was modified concurrently")
)

// GameRecord is one stored game: the score card plus listing metadata.
type GameRecord struct {
	Card        domain.ScoreCard
	Owner       string
	CreatedAt   time.Time
	LastUpdated time.Time
	// Complete mirrors Card.IsFinished at save time so stores can sort without decoding.
	Complete bool
	// Version is opaque to callers and changes on every successful save.
	Version string
}

// RecordStore persists game records per owner.
type RecordStore interface {
	// Get returns ErrRecordNotFound when owner has no game with id.
	Get(ctx context.Context, owner, id string) (GameRecord, error)
	// Save writes rec and returns it with its new Version. An empty expectedVersion
	// creates the record and fails with ErrVersionConflict if it already exists;
	// otherwise the stored version must equal expectedVersion.
	Save(ctx context.Context, rec GameRecord, expectedVersion string) (GameRecord, error)
	// List returns up to limit of owner's records in no particular order; limit <= 0 returns them all.
	List(ctx context.Context, owner string, limit int) ([]GameRecord, error)
	Delete(ctx context.Context, owner, id string) error
}
