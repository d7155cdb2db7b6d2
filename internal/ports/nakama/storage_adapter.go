package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"scorefive/internal/codec"
	"scorefive/internal/ports"
)

// storageModule is the part of runtime.NakamaModule the record store needs.
type storageModule interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
	StorageList(ctx context.Context, callerID, userID, collection string, limit int, cursor string) ([]*api.StorageObject, string, error)
	StorageDelete(ctx context.Context, deletes []*runtime.StorageDelete) error
}

// storedGame is the storage object value. The score card is its JSON record.
type storedGame struct {
	Card        codec.CardRecord `json:"card"`
	CreatedAt   time.Time        `json:"createdAt"`
	LastUpdated time.Time        `json:"lastUpdated"`
	Complete    bool             `json:"complete"`
}

// NakamaRecordStore implements ports.RecordStore with Nakama storage objects owned by the player.
type NakamaRecordStore struct {
	nk         storageModule
	collection string
}

// NewNakamaRecordStore creates a record store over collection.
func NewNakamaRecordStore(nk storageModule, collection string) *NakamaRecordStore {
	return &NakamaRecordStore{nk: nk, collection: collection}
}

var _ ports.RecordStore = (*NakamaRecordStore)(nil)

func (s *NakamaRecordStore) Get(ctx context.Context, owner, id string) (ports.GameRecord, error) {
	objs, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{{
		Collection: s.collection,
		Key:        id,
		UserID:     owner,
	}})
	if err != nil {
		return ports.GameRecord{}, fmt.Errorf("failed to read game %s: %w", id, err)
	}
	if len(objs) == 0 {
		return ports.GameRecord{}, ports.ErrRecordNotFound
	}
	return s.decode(objs[0])
}

// Save maps expectedVersion onto Nakama's conditional writes: "*" for create, the object version for updates.
func (s *NakamaRecordStore) Save(ctx context.Context, rec ports.GameRecord, expectedVersion string) (ports.GameRecord, error) {
	value, err := json.Marshal(storedGame{
		Card:        codec.FromCard(rec.Card),
		CreatedAt:   rec.CreatedAt.UTC(),
		LastUpdated: rec.LastUpdated.UTC(),
		Complete:    rec.Complete,
	})
	if err != nil {
		return ports.GameRecord{}, fmt.Errorf("failed to marshal game %s: %w", rec.Card.ID(), err)
	}

	version := expectedVersion
	if version == "" {
		version = "*"
	}
	acks, err := s.nk.StorageWrite(ctx, []*runtime.StorageWrite{{
		Collection:      s.collection,
		Key:             rec.Card.ID(),
		UserID:          rec.Owner,
		Value:           string(value),
		Version:         version,
		PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
		PermissionWrite: runtime.STORAGE_PERMISSION_OWNER_WRITE,
	}})
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return ports.GameRecord{}, fmt.Errorf("%w: game %s", ports.ErrVersionConflict, rec.Card.ID())
		}
		return ports.GameRecord{}, fmt.Errorf("failed to write game %s: %w", rec.Card.ID(), err)
	}
	if len(acks) == 0 {
		return ports.GameRecord{}, fmt.Errorf("no storage ack for game %s", rec.Card.ID())
	}
	rec.Version = acks[0].GetVersion()
	return rec, nil
}

func (s *NakamaRecordStore) List(ctx context.Context, owner string, limit int) ([]ports.GameRecord, error) {
	var (
		out    []ports.GameRecord
		cursor string
	)
	for {
		page := storageListPage
		if limit > 0 {
			page = min(page, limit-len(out))
		}
		objs, next, err := s.nk.StorageList(ctx, "", owner, s.collection, page, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to list games for %s: %w", owner, err)
		}
		for _, obj := range objs {
			rec, err := s.decode(obj)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
		if next == "" || (limit > 0 && len(out) >= limit) {
			return out, nil
		}
		cursor = next
	}
}

func (s *NakamaRecordStore) Delete(ctx context.Context, owner, id string) error {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	if err := s.nk.StorageDelete(ctx, []*runtime.StorageDelete{{
		Collection: s.collection,
		Key:        id,
		UserID:     owner,
	}}); err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}
	return nil
}

func (s *NakamaRecordStore) decode(obj *api.StorageObject) (ports.GameRecord, error) {
	var stored storedGame
	if err := json.Unmarshal([]byte(obj.GetValue()), &stored); err != nil {
		return ports.GameRecord{}, fmt.Errorf("%w: game %s: %w", codec.ErrMalformed, obj.GetKey(), err)
	}
	card, err := stored.Card.ToCard()
	if err != nil {
		return ports.GameRecord{}, err
	}
	return ports.GameRecord{
		Card:        card,
		Owner:       obj.GetUserId(),
		CreatedAt:   stored.CreatedAt,
		LastUpdated: stored.LastUpdated,
		Complete:    stored.Complete,
		Version:     obj.GetVersion(),
	}, nil
}
