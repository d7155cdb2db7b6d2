package app

// EventKind identifies emitted game events for publisher dispatch.
type EventKind string

const (
	EventGameCreated       EventKind = "game_created"
	EventRoundAdded        EventKind = "round_added"
	EventRoundRemoved      EventKind = "round_removed"
	EventRoundReplaced     EventKind = "round_replaced"
	EventScoreLimitChanged EventKind = "score_limit_changed"
	EventPlayerEliminated  EventKind = "player_eliminated"
	EventPlayerRevived     EventKind = "player_revived"
	EventGameFinished      EventKind = "game_finished"
	EventGameDeleted       EventKind = "game_deleted"
)

// Event is an app event addressed to the owner of the game it describes.
type Event struct {
	Kind    EventKind
	Payload any
	Owner   string
}

type GameCreatedPayload struct {
	GameID     string   `json:"gameId"`
	Players    []string `json:"players"`
	ScoreLimit int      `json:"scoreLimit"`
}

// RoundPayload describes an added, removed or replaced round.
type RoundPayload struct {
	GameID  string         `json:"gameId"`
	RoundID string         `json:"roundId"`
	Index   int            `json:"index"`
	Scores  map[string]int `json:"scores,omitempty"`
	// NextStartingPlayer is empty once the game is finished.
	NextStartingPlayer string `json:"nextStartingPlayer,omitempty"`
}

type ScoreLimitChangedPayload struct {
	GameID   string `json:"gameId"`
	OldLimit int    `json:"oldLimit"`
	NewLimit int    `json:"newLimit"`
}

// PlayerPayload is used for both elimination and revival.
type PlayerPayload struct {
	GameID string `json:"gameId"`
	Player string `json:"player"`
	Total  int    `json:"total"`
}

type GameFinishedPayload struct {
	GameID string `json:"gameId"`
	Winner string `json:"winner,omitempty"`
}

type GameDeletedPayload struct {
	GameID string `json:"gameId"`
}
