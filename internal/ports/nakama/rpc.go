package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/heroiclabs/nakama-common/runtime"

	"scorefive/internal/app"
	"scorefive/internal/codec"
	"scorefive/internal/ports"
)

type rpcFunc = func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)

// rpcHandlers builds a Service per call from the caller's NakamaModule.
type rpcHandlers struct {
	collection        string
	defaultScoreLimit int
	listLimit         int
}

type gameRequest struct {
	GameID string `json:"gameId"`
}

type createGameRequest struct {
	Players    []string `json:"players"`
	ScoreLimit int      `json:"scoreLimit"`
}

type scoresRequest struct {
	GameID  string         `json:"gameId"`
	RoundID string         `json:"roundId"`
	Scores  map[string]int `json:"scores"`
}

type scoreLimitRequest struct {
	GameID     string `json:"gameId"`
	ScoreLimit int    `json:"scoreLimit"`
}

type startingPlayerRequest struct {
	GameID string `json:"gameId"`
	Index  int    `json:"index"`
}

type startingPlayerResponse struct {
	GameID string `json:"gameId"`
	Index  int    `json:"index"`
	Player string `json:"player"`
}

type listGamesResponse struct {
	Games []GameSummary `json:"games"`
}

type deleteGameResponse struct {
	GameID  string `json:"gameId"`
	Deleted bool   `json:"deleted"`
}

// RegisterRPCs registers every score card RPC.
func (h *rpcHandlers) RegisterRPCs(initializer runtime.Initializer) error {
	rpcs := map[string]rpcFunc{
		RpcCreateGame:     h.createGame,
		RpcGetGame:        h.getGame,
		RpcListGames:      h.listGames,
		RpcAddRound:       h.addRound,
		RpcRemoveRound:    h.removeRound,
		RpcReplaceRound:   h.replaceRound,
		RpcSetScoreLimit:  h.setScoreLimit,
		RpcDeleteGame:     h.deleteGame,
		RpcStartingPlayer: h.startingPlayer,
	}
	for id, fn := range rpcs {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

func (h *rpcHandlers) service(nk runtime.NakamaModule, logger runtime.Logger) *app.Service {
	return app.NewService(
		NewNakamaRecordStore(nk, h.collection),
		app.WithPublisher(NewNakamaNotificationPublisher(nk, logger)),
		app.WithListLimit(h.listLimit),
	)
}

func (h *rpcHandlers) createGame(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	var req createGameRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	if req.ScoreLimit == 0 {
		req.ScoreLimit = h.defaultScoreLimit
	}

	rec, _, err := h.service(nk, logger).CreateGame(ctx, userID, req.Players, req.ScoreLimit)
	if err != nil {
		return "", toRuntimeError(logger, RpcCreateGame, err)
	}
	logger.Info("%s [User:%s]: created game %s", RpcCreateGame, userID, rec.Card.ID())
	return encodeResponse(gameToResponse(rec))
}

func (h *rpcHandlers) getGame(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	var req gameRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	rec, err := h.service(nk, logger).GetGame(ctx, userID, req.GameID)
	if err != nil {
		return "", toRuntimeError(logger, RpcGetGame, err)
	}
	return encodeResponse(gameToResponse(rec))
}

func (h *rpcHandlers) listGames(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	recs, err := h.service(nk, logger).ListGames(ctx, userID)
	if err != nil {
		return "", toRuntimeError(logger, RpcListGames, err)
	}
	resp := listGamesResponse{Games: make([]GameSummary, 0, len(recs))}
	for _, rec := range recs {
		resp.Games = append(resp.Games, gameToSummary(rec))
	}
	return encodeResponse(resp)
}

func (h *rpcHandlers) addRound(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	var req scoresRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	rec, _, err := h.service(nk, logger).AddRound(ctx, userID, req.GameID, req.Scores)
	if err != nil {
		return "", toRuntimeError(logger, RpcAddRound, err)
	}
	return encodeResponse(gameToResponse(rec))
}

func (h *rpcHandlers) removeRound(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	var req scoresRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	rec, _, err := h.service(nk, logger).RemoveRound(ctx, userID, req.GameID, req.RoundID)
	if err != nil {
		return "", toRuntimeError(logger, RpcRemoveRound, err)
	}
	return encodeResponse(gameToResponse(rec))
}

func (h *rpcHandlers) replaceRound(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	var req scoresRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	rec, _, err := h.service(nk, logger).ReplaceRound(ctx, userID, req.GameID, req.RoundID, req.Scores)
	if err != nil {
		return "", toRuntimeError(logger, RpcReplaceRound, err)
	}
	return encodeResponse(gameToResponse(rec))
}

func (h *rpcHandlers) setScoreLimit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	var req scoreLimitRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	rec, _, err := h.service(nk, logger).SetScoreLimit(ctx, userID, req.GameID, req.ScoreLimit)
	if err != nil {
		return "", toRuntimeError(logger, RpcSetScoreLimit, err)
	}
	return encodeResponse(gameToResponse(rec))
}

func (h *rpcHandlers) deleteGame(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	var req gameRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	if _, err := h.service(nk, logger).DeleteGame(ctx, userID, req.GameID); err != nil {
		return "", toRuntimeError(logger, RpcDeleteGame, err)
	}
	return encodeResponse(deleteGameResponse{GameID: req.GameID, Deleted: true})
}

func (h *rpcHandlers) startingPlayer(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	var req startingPlayerRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	player, err := h.service(nk, logger).StartingPlayer(ctx, userID, req.GameID, req.Index)
	if err != nil {
		return "", toRuntimeError(logger, RpcStartingPlayer, err)
	}
	return encodeResponse(startingPlayerResponse{GameID: req.GameID, Index: req.Index, Player: player})
}

func callerID(ctx context.Context) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("No user ID in context", codeUnauthenticated)
	}
	return userID, nil
}

func decodePayload(payload string, v any) error {
	if payload == "" {
		payload = "{}"
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return runtime.NewError("Invalid payload", codeInvalidArgument)
	}
	return nil
}

func encodeResponse(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", runtime.NewError("Failed to encode response", codeInternal)
	}
	return string(b), nil
}

// toRuntimeError maps app and store errors onto gRPC codes.
func toRuntimeError(logger runtime.Logger, rpc string, err error) error {
	switch {
	case errors.Is(err, ports.ErrRecordNotFound), errors.Is(err, app.ErrRoundNotFound):
		return runtime.NewError(err.Error(), codeNotFound)
	case errors.Is(err, app.ErrInvalidRoster),
		errors.Is(err, app.ErrInvalidScoreLimit),
		errors.Is(err, app.ErrInvalidScore),
		errors.Is(err, app.ErrUnknownPlayer):
		return runtime.NewError(err.Error(), codeInvalidArgument)
	case errors.Is(err, app.ErrRoundRejected), errors.Is(err, ports.ErrVersionConflict):
		return runtime.NewError(err.Error(), codeFailedPrecondition)
	case errors.Is(err, codec.ErrMalformed):
		logger.Error("%s: stored game is corrupt: %v", rpc, err)
		return runtime.NewError("Stored game is corrupt", codeInternal)
	default:
		logger.Error("%s: %v", rpc, err)
		return runtime.NewError("Internal error", codeInternal)
	}
}
