package nakama

// RPC ids registered with Nakama.
const (
	RpcCreateGame     = "scorefive_create_game"
	RpcGetGame        = "scorefive_get_game"
	RpcListGames      = "scorefive_list_games"
	RpcAddRound       = "scorefive_add_round"
	RpcRemoveRound    = "scorefive_remove_round"
	RpcReplaceRound   = "scorefive_replace_round"
	RpcSetScoreLimit  = "scorefive_set_score_limit"
	RpcDeleteGame     = "scorefive_delete_game"
	RpcStartingPlayer = "scorefive_starting_player"
)

// gRPC status codes used in runtime.NewError.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnauthenticated    = 16
)

// Notification codes, one per event kind. Nakama reserves codes <= 0.
const (
	NotifyGameCreated       = 1001
	NotifyRoundAdded        = 1002
	NotifyRoundRemoved      = 1003
	NotifyRoundReplaced     = 1004
	NotifyScoreLimitChanged = 1005
	NotifyPlayerEliminated  = 1006
	NotifyPlayerRevived     = 1007
	NotifyGameFinished      = 1008
	NotifyGameDeleted       = 1009
)

// Runtime env keys read at module init.
const (
	envConfigPath        = "scorefive_config"
	envStorageCollection = "scorefive_storage_collection"
)

// storageListPage is Nakama's maximum page size for StorageList.
const storageListPage = 100
