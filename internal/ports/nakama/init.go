package nakama

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"scorefive/internal/config"
)

// InitModule loads configuration and registers the score card RPCs.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if err := config.Load(env[envConfigPath]); err != nil {
		logger.Warn("InitModule: could not load config, using defaults: %v", err)
	}

	collection := config.GetStorageCollection()
	if v := env[envStorageCollection]; v != "" {
		collection = v
	}
	h := &rpcHandlers{
		collection:        collection,
		defaultScoreLimit: config.GetDefaultScoreLimit(),
		listLimit:         config.Get().Game.ListLimit,
	}
	if err := h.RegisterRPCs(initializer); err != nil {
		return err
	}

	logger.Info("ScoreFive Go module loaded (collection %s).", collection)
	return nil
}
