package domain

const (
	// MinScore is the lowest score a player can record in a round (the round's winner).
	MinScore = 0
	// MaxScore is the highest score a player can record in a round.
	MaxScore = 50

	// MinScoreLimit is the lowest elimination threshold a score card accepts.
	MinScoreLimit = 50
	// MinPlayers is the smallest roster a game can be played with.
	MinPlayers = 2
)
