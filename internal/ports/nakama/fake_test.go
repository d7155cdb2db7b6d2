package nakama

import (
	"context"
	"database/sql"
	"slices"
	"strconv"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type objectKey struct{ collection, userID, key string }

type sentNotification struct {
	userID     string
	subject    string
	content    map[string]interface{}
	code       int
	persistent bool
}

// fakeNakama implements the storage and notification calls of runtime.NakamaModule.
// Any other call panics on the nil embedded interface.
type fakeNakama struct {
	runtime.NakamaModule

	objects       map[objectKey]*api.StorageObject
	seq           int
	notifications []sentNotification
	notifyErr     error
}

func newFakeNakama() *fakeNakama {
	return &fakeNakama{objects: make(map[objectKey]*api.StorageObject)}
}

func (f *fakeNakama) StorageRead(_ context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	var out []*api.StorageObject
	for _, r := range reads {
		if obj, ok := f.objects[objectKey{r.Collection, r.UserID, r.Key}]; ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

func (f *fakeNakama) StorageWrite(_ context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	for _, w := range writes {
		current, exists := f.objects[objectKey{w.Collection, w.UserID, w.Key}]
		switch {
		case w.Version == "*" && exists:
			return nil, runtime.ErrStorageRejectedVersion
		case w.Version != "" && w.Version != "*" && (!exists || current.Version != w.Version):
			return nil, runtime.ErrStorageRejectedVersion
		}
	}
	acks := make([]*api.StorageObjectAck, 0, len(writes))
	for _, w := range writes {
		f.seq++
		version := "v" + strconv.Itoa(f.seq)
		f.objects[objectKey{w.Collection, w.UserID, w.Key}] = &api.StorageObject{
			Collection:      w.Collection,
			Key:             w.Key,
			UserId:          w.UserID,
			Value:           w.Value,
			Version:         version,
			PermissionRead:  int32(w.PermissionRead),
			PermissionWrite: int32(w.PermissionWrite),
		}
		acks = append(acks, &api.StorageObjectAck{Collection: w.Collection, Key: w.Key, UserId: w.UserID, Version: version})
	}
	return acks, nil
}

func (f *fakeNakama) StorageList(_ context.Context, _, userID, collection string, limit int, cursor string) ([]*api.StorageObject, string, error) {
	var all []*api.StorageObject
	for k, obj := range f.objects {
		if k.collection == collection && k.userID == userID {
			all = append(all, obj)
		}
	}
	slices.SortFunc(all, func(a, b *api.StorageObject) int {
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		}
		return 0
	})

	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := min(start+limit, len(all))
	next := ""
	if end < len(all) {
		next = strconv.Itoa(end)
	}
	return all[start:end], next, nil
}

func (f *fakeNakama) StorageDelete(_ context.Context, deletes []*runtime.StorageDelete) error {
	for _, d := range deletes {
		delete(f.objects, objectKey{d.Collection, d.UserID, d.Key})
	}
	return nil
}

func (f *fakeNakama) NotificationSend(_ context.Context, userID, subject string, content map[string]interface{}, code int, _ string, persistent bool) error {
	f.notifications = append(f.notifications, sentNotification{
		userID:     userID,
		subject:    subject,
		content:    content,
		code:       code,
		persistent: persistent,
	})
	return f.notifyErr
}

// fakeInitializer records RPC registrations.
type fakeInitializer struct {
	runtime.Initializer
	rpcs map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error)
}

func (f *fakeInitializer) RegisterRpc(id string, fn func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)) error {
	if f.rpcs == nil {
		f.rpcs = make(map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error))
	}
	f.rpcs[id] = fn
	return nil
}
