package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorefive/internal/app"
	"scorefive/internal/ports"
	"scorefive/internal/store/storetest"
)

func TestNakamaRecordStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.RecordStore {
		return NewNakamaRecordStore(newFakeNakama(), "scorefive_games")
	})
}

func TestNakamaRecordStoreWritesOwnerOnlyObjects(t *testing.T) {
	nk := newFakeNakama()
	svc := app.NewService(NewNakamaRecordStore(nk, "games"))
	rec, _, err := svc.CreateGame(context.Background(), "user-1", []string{"A", "B"}, 100)
	require.NoError(t, err)

	obj := nk.objects[objectKey{"games", "user-1", rec.Card.ID()}]
	require.NotNil(t, obj)
	assert.EqualValues(t, runtime.STORAGE_PERMISSION_OWNER_READ, obj.PermissionRead)
	assert.EqualValues(t, runtime.STORAGE_PERMISSION_OWNER_WRITE, obj.PermissionWrite)
	assert.Equal(t, obj.Version, rec.Version)
}

func TestNakamaRecordStoreListPages(t *testing.T) {
	ctx := context.Background()
	nk := newFakeNakama()
	svc := app.NewService(NewNakamaRecordStore(nk, "games"), app.WithListLimit(250))
	for range 230 {
		_, _, err := svc.CreateGame(ctx, "user-1", []string{"A", "B"}, 100)
		require.NoError(t, err)
	}

	recs, err := svc.ListGames(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, recs, 230)

	limited, err := NewNakamaRecordStore(nk, "games").List(ctx, "user-1", 120)
	require.NoError(t, err)
	assert.Len(t, limited, 120)
}

func TestNotificationPublisher(t *testing.T) {
	nk := newFakeNakama()
	pub := NewNakamaNotificationPublisher(nk, noopLogger{})

	err := pub.Publish(context.Background(), string(app.EventGameFinished), "user-1", app.GameFinishedPayload{GameID: "g1", Winner: "Ann"})
	require.NoError(t, err)
	require.Len(t, nk.notifications, 1)
	n := nk.notifications[0]
	assert.Equal(t, "user-1", n.userID)
	assert.Equal(t, "game_finished", n.subject)
	assert.Equal(t, NotifyGameFinished, n.code)
	assert.True(t, n.persistent)
	assert.Equal(t, map[string]interface{}{"gameId": "g1", "winner": "Ann"}, n.content)

	require.NoError(t, pub.Publish(context.Background(), string(app.EventRoundAdded), "user-1", app.RoundPayload{GameID: "g1"}))
	assert.False(t, nk.notifications[1].persistent)

	assert.Error(t, pub.Publish(context.Background(), "unknown_kind", "user-1", nil))

	nk.notifyErr = errors.New("offline")
	assert.Error(t, pub.Publish(context.Background(), string(app.EventGameDeleted), "user-1", app.GameDeletedPayload{GameID: "g1"}))
}

func TestRegisterRPCs(t *testing.T) {
	initializer := &fakeInitializer{}
	h := &rpcHandlers{collection: "games", defaultScoreLimit: 250, listLimit: 100}
	require.NoError(t, h.RegisterRPCs(initializer))

	for _, id := range []string{
		RpcCreateGame, RpcGetGame, RpcListGames, RpcAddRound, RpcRemoveRound,
		RpcReplaceRound, RpcSetScoreLimit, RpcDeleteGame, RpcStartingPlayer,
	} {
		assert.Contains(t, initializer.rpcs, id)
	}
}

type rpcClient struct {
	t   *testing.T
	h   *rpcHandlers
	nk  *fakeNakama
	ctx context.Context
}

func newRPCClient(t *testing.T, userID string) *rpcClient {
	return &rpcClient{
		t:   t,
		h:   &rpcHandlers{collection: "games", defaultScoreLimit: 250, listLimit: 100},
		nk:  newFakeNakama(),
		ctx: context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, userID),
	}
}

func (c *rpcClient) call(fn rpcFunc, req any, resp any) error {
	c.t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(c.t, err)
	out, err := fn(c.ctx, noopLogger{}, nil, c.nk, string(payload))
	if err != nil {
		return err
	}
	if resp != nil {
		require.NoError(c.t, json.Unmarshal([]byte(out), resp))
	}
	return nil
}

func runtimeCode(t *testing.T, err error) int {
	t.Helper()
	var rtErr *runtime.Error
	require.ErrorAs(t, err, &rtErr)
	return rtErr.Code
}

func TestRPCGameFlow(t *testing.T) {
	c := newRPCClient(t, "user-1")

	var created GameResponse
	require.NoError(t, c.call(c.h.createGame, createGameRequest{Players: []string{"Ann", "Bo", "Cy"}}, &created))
	id := created.Game.ID
	assert.Equal(t, 250, created.Game.ScoreLimit, "default limit applied")
	assert.Equal(t, "Ann", created.NextStartingPlayer)

	var limited GameResponse
	require.NoError(t, c.call(c.h.setScoreLimit, scoreLimitRequest{GameID: id, ScoreLimit: 50}, &limited))
	assert.Equal(t, 50, limited.Game.ScoreLimit)

	var afterRound GameResponse
	require.NoError(t, c.call(c.h.addRound, scoresRequest{GameID: id, Scores: map[string]int{"Ann": 0, "Bo": 50, "Cy": 5}}, &afterRound))
	assert.Equal(t, []string{"Ann", "Cy"}, afterRound.AlivePlayers)
	assert.Equal(t, map[string]int{"Ann": 0, "Bo": 50, "Cy": 5}, afterRound.Totals)
	assert.Equal(t, "Cy", afterRound.NextStartingPlayer)
	roundID := afterRound.Game.Rounds[0].ID

	var replaced GameResponse
	require.NoError(t, c.call(c.h.replaceRound, scoresRequest{GameID: id, RoundID: roundID, Scores: map[string]int{"Ann": 0, "Bo": 10, "Cy": 5}}, &replaced))
	assert.Equal(t, []string{"Ann", "Bo", "Cy"}, replaced.AlivePlayers)

	var starter startingPlayerResponse
	require.NoError(t, c.call(c.h.startingPlayer, startingPlayerRequest{GameID: id, Index: 1}, &starter))
	assert.Equal(t, "Bo", starter.Player)

	var list listGamesResponse
	require.NoError(t, c.call(c.h.listGames, struct{}{}, &list))
	require.Len(t, list.Games, 1)
	assert.Equal(t, 1, list.Games[0].Rounds)

	var removed GameResponse
	require.NoError(t, c.call(c.h.removeRound, scoresRequest{GameID: id, RoundID: roundID}, &removed))
	assert.Empty(t, removed.Game.Rounds)

	var got GameResponse
	require.NoError(t, c.call(c.h.getGame, gameRequest{GameID: id}, &got))
	assert.Equal(t, removed.Game, got.Game)

	require.NoError(t, c.call(c.h.deleteGame, gameRequest{GameID: id}, nil))
	err := c.call(c.h.getGame, gameRequest{GameID: id}, nil)
	assert.Equal(t, codeNotFound, runtimeCode(t, err))

	subjects := make([]string, 0, len(c.nk.notifications))
	for _, n := range c.nk.notifications {
		subjects = append(subjects, n.subject)
	}
	assert.Equal(t, []string{
		"game_created", "score_limit_changed", "round_added", "player_eliminated",
		"round_replaced", "player_revived", "round_removed", "game_deleted",
	}, subjects)
}

func TestRPCErrors(t *testing.T) {
	c := newRPCClient(t, "user-1")
	var created GameResponse
	require.NoError(t, c.call(c.h.createGame, createGameRequest{Players: []string{"Ann", "Bo"}, ScoreLimit: 100}, &created))
	id := created.Game.ID

	tests := []struct {
		name string
		fn   rpcFunc
		req  any
		code int
	}{
		{name: "duplicate players", fn: c.h.createGame, req: createGameRequest{Players: []string{"A", "A"}}, code: codeInvalidArgument},
		{name: "low limit", fn: c.h.createGame, req: createGameRequest{Players: []string{"A", "B"}, ScoreLimit: 10}, code: codeInvalidArgument},
		{name: "illegal score", fn: c.h.addRound, req: scoresRequest{GameID: id, Scores: map[string]int{"Ann": 0, "Bo": 60}}, code: codeInvalidArgument},
		{name: "incomplete round", fn: c.h.addRound, req: scoresRequest{GameID: id, Scores: map[string]int{"Ann": 0}}, code: codeFailedPrecondition},
		{name: "unknown game", fn: c.h.addRound, req: scoresRequest{GameID: "nope", Scores: map[string]int{"Ann": 0, "Bo": 1}}, code: codeNotFound},
		{name: "unknown round", fn: c.h.removeRound, req: scoresRequest{GameID: id, RoundID: "nope"}, code: codeNotFound},
		{name: "starting player out of range", fn: c.h.startingPlayer, req: startingPlayerRequest{GameID: id, Index: 5}, code: codeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.call(tt.fn, tt.req, nil)
			if got := runtimeCode(t, err); got != tt.code {
				t.Fatalf("code = %d, want %d (err %v)", got, tt.code, err)
			}
		})
	}

	_, err := c.h.getGame(c.ctx, noopLogger{}, nil, c.nk, "{not json")
	assert.Equal(t, codeInvalidArgument, runtimeCode(t, err))

	_, err = c.h.getGame(context.Background(), noopLogger{}, nil, c.nk, "{}")
	assert.Equal(t, codeUnauthenticated, runtimeCode(t, err))
}

func TestRPCOwnersAreIsolated(t *testing.T) {
	c := newRPCClient(t, "user-1")
	var created GameResponse
	require.NoError(t, c.call(c.h.createGame, createGameRequest{Players: []string{"Ann", "Bo"}}, &created))

	other := &rpcClient{t: t, h: c.h, nk: c.nk, ctx: context.WithValue(context.Background(), runtime.RUNTIME_CTX_USER_ID, "user-2")}
	err := other.call(other.h.getGame, gameRequest{GameID: created.Game.ID}, nil)
	assert.Equal(t, codeNotFound, runtimeCode(t, err))
}

func TestInitModuleRegistersRPCs(t *testing.T) {
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_ENV, map[string]string{envStorageCollection: "custom_games"})
	initializer := &fakeInitializer{}
	require.NoError(t, InitModule(ctx, noopLogger{}, nil, newFakeNakama(), initializer))
	assert.Len(t, initializer.rpcs, 9)

	nk := newFakeNakama()
	userCtx := context.WithValue(ctx, runtime.RUNTIME_CTX_USER_ID, "user-1")
	_, err := initializer.rpcs[RpcCreateGame](userCtx, noopLogger{}, nil, nk, `{"players":["Ann","Bo"]}`)
	require.NoError(t, err)
	for k := range nk.objects {
		assert.Equal(t, "custom_games", k.collection)
	}
}
