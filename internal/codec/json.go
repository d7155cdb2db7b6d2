// Package codec converts score cards to and from their stored representations.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"scorefive/internal/domain"
)

// ErrMalformed is returned when stored bytes cannot be decoded into a valid score card.
var ErrMalformed = errors.New("malformed score card")

// CardRecord is the text form of a score card.
type CardRecord struct {
	ID         string        `json:"id"`
	Players    []string      `json:"players"`
	ScoreLimit int           `json:"scoreLimit"`
	Rounds     []RoundRecord `json:"rounds"`
}

// RoundRecord holds only the scores that were recorded; unscored players are absent.
type RoundRecord struct {
	ID      string         `json:"id"`
	Players []string       `json:"players"`
	Scores  map[string]int `json:"scores"`
}

// FromCard copies c into its record form.
func FromCard(c domain.ScoreCard) CardRecord {
	rounds := c.Rounds()
	rec := CardRecord{
		ID:         c.ID(),
		Players:    c.Players(),
		ScoreLimit: c.ScoreLimit(),
		Rounds:     make([]RoundRecord, 0, len(rounds)),
	}
	for _, r := range rounds {
		rec.Rounds = append(rec.Rounds, RoundRecord{
			ID:      r.ID(),
			Players: r.Players(),
			Scores:  r.ScoreMap(),
		})
	}
	return rec
}

// ToCard validates the record and rebuilds the score card it describes.
func (rec CardRecord) ToCard() (domain.ScoreCard, error) {
	rounds := make([]domain.Round, 0, len(rec.Rounds))
	for i, rr := range rec.Rounds {
		r, err := domain.RestoreRound(rr.ID, rr.Players, rr.Scores)
		if err != nil {
			return domain.ScoreCard{}, fmt.Errorf("%w: round %d: %w", ErrMalformed, i, err)
		}
		rounds = append(rounds, r)
	}
	c, err := domain.RestoreScoreCard(rec.ID, rec.Players, rec.ScoreLimit, rounds)
	if err != nil {
		return domain.ScoreCard{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return c, nil
}

// MarshalJSON encodes c as a JSON record.
func MarshalJSON(c domain.ScoreCard) ([]byte, error) {
	return json.Marshal(FromCard(c))
}

// UnmarshalJSON decodes a JSON record produced by MarshalJSON.
func UnmarshalJSON(data []byte) (domain.ScoreCard, error) {
	var rec CardRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.ScoreCard{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return rec.ToCard()
}
