package nakama

import (
	"time"

	"scorefive/internal/codec"
	"scorefive/internal/ports"
)

// GameResponse is the JSON returned by every RPC that yields a game.
type GameResponse struct {
	Game               codec.CardRecord `json:"game"`
	CreatedAt          time.Time        `json:"createdAt"`
	LastUpdated        time.Time        `json:"lastUpdated"`
	Complete           bool             `json:"complete"`
	AlivePlayers       []string         `json:"alivePlayers"`
	Totals             map[string]int   `json:"totals"`
	StartingPlayers    []string         `json:"startingPlayers"`
	NextStartingPlayer string           `json:"nextStartingPlayer,omitempty"`
	Winner             string           `json:"winner,omitempty"`
}

// GameSummary is one entry of the list RPC.
type GameSummary struct {
	GameID      string    `json:"gameId"`
	Players     []string  `json:"players"`
	ScoreLimit  int       `json:"scoreLimit"`
	Rounds      int       `json:"rounds"`
	LastUpdated time.Time `json:"lastUpdated"`
	Complete    bool      `json:"complete"`
}

func gameToResponse(rec ports.GameRecord) GameResponse {
	card := rec.Card
	resp := GameResponse{
		Game:            codec.FromCard(card),
		CreatedAt:       rec.CreatedAt,
		LastUpdated:     rec.LastUpdated,
		Complete:        rec.Complete,
		AlivePlayers:    card.AlivePlayers(),
		Totals:          card.Totals(),
		StartingPlayers: card.StartingPlayers(),
	}
	if card.IsFinished() {
		resp.Winner, _ = card.Winner()
	} else {
		resp.NextStartingPlayer = card.StartingPlayer(card.RoundCount())
	}
	return resp
}

func gameToSummary(rec ports.GameRecord) GameSummary {
	return GameSummary{
		GameID:      rec.Card.ID(),
		Players:     rec.Card.Players(),
		ScoreLimit:  rec.Card.ScoreLimit(),
		Rounds:      rec.Card.RoundCount(),
		LastUpdated: rec.LastUpdated,
		Complete:    rec.Complete,
	}
}
