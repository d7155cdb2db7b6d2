package domain

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Round holds one dealt hand's scores for the players who were dealt in.
//
// Round is a value: mutating methods replace the score map instead of writing
// into it, so a copy made by assignment never observes later changes.
type Round struct {
	id      string
	players []string
	scores  map[string]int // player -> score; absent means not yet scored
}

// NewRound creates an empty round for players. An empty id is replaced by a fresh UUID.
// It panics if the id or a player name is not valid UTF-8.
func NewRound(players []string, id string) Round {
	must(validNames(id), ErrIllegalMutation, "round id %q is not valid UTF-8", id)
	must(validNames(players...), ErrInvalidRoster, "round players %q are not valid UTF-8", players)
	if id == "" {
		id = uuid.NewString()
	}
	return Round{
		id:      id,
		players: slices.Clone(players),
	}
}

// RestoreRound rebuilds a round from stored data, rejecting scores that could not
// have been recorded through SetScore.
func RestoreRound(id string, players []string, scores map[string]int) (Round, error) {
	if id == "" {
		return Round{}, fmt.Errorf("%w: round id is empty", ErrIllegalMutation)
	}
	if !validNames(id) {
		return Round{}, fmt.Errorf("%w: round id %q is not valid UTF-8", ErrIllegalMutation, id)
	}
	if !validNames(players...) {
		return Round{}, fmt.Errorf("%w: round %s players %q are not valid UTF-8", ErrInvalidRoster, id, players)
	}
	r := NewRound(players, id)
	for player, score := range scores {
		if !r.HasPlayer(player) {
			return Round{}, fmt.Errorf("%w: %q is not in round %s", ErrUnknownPlayer, player, id)
		}
		if _, err := ValidateScore(score); err != nil {
			return Round{}, fmt.Errorf("round %s, player %q: %w", id, player, err)
		}
	}
	if len(scores) > 0 {
		r.scores = maps.Clone(scores)
	}
	return r, nil
}

func (r Round) ID() string { return r.id }

// Clone returns a deep copy of the round.
func (r Round) Clone() Round {
	r.players = slices.Clone(r.players)
	r.scores = maps.Clone(r.scores)
	return r
}

// Players returns the players dealt into this round, in seating order.
func (r Round) Players() []string { return slices.Clone(r.players) }

// HasPlayer reports whether player was dealt into this round.
func (r Round) HasPlayer(player string) bool {
	return slices.Contains(r.players, player)
}

// IsComplete reports whether the round can be committed to a score card: at least
// two players, at least one winner (score 0) and at least one non-zero score.
func (r Round) IsComplete() bool {
	if len(r.players) < MinPlayers {
		return false
	}
	winners, losers := 0, 0
	for _, score := range r.scores {
		if score == 0 {
			winners++
		} else {
			losers++
		}
	}
	return winners > 0 && losers > 0
}

// SetScore records score for player, overwriting any previous value.
// It panics if player is not in the round or score is not legal.
func (r *Round) SetScore(player string, score int) {
	must(r.HasPlayer(player), ErrUnknownPlayer, "%q is not in round %s", player, r.id)
	_, err := ValidateScore(score)
	must(err == nil, ErrInvalidScore, "%d for %q", score, player)

	next := make(map[string]int, len(r.scores)+1)
	maps.Copy(next, r.scores)
	next[player] = score
	r.scores = next
}

// RemoveScore reverts player to unscored. It panics if player is not in the round.
func (r *Round) RemoveScore(player string) {
	must(r.HasPlayer(player), ErrUnknownPlayer, "%q is not in round %s", player, r.id)
	if _, ok := r.scores[player]; !ok {
		return
	}
	next := maps.Clone(r.scores)
	delete(next, player)
	r.scores = next
}

// Score returns player's score and whether one has been recorded.
// It panics if player is not in the round.
func (r Round) Score(player string) (int, bool) {
	must(r.HasPlayer(player), ErrUnknownPlayer, "%q is not in round %s", player, r.id)
	score, ok := r.scores[player]
	return score, ok
}

// Scores returns the recorded scores in player order, skipping unscored players.
func (r Round) Scores() []int {
	out := make([]int, 0, len(r.scores))
	for _, p := range r.players {
		if score, ok := r.scores[p]; ok {
			out = append(out, score)
		}
	}
	return out
}

// ScoreMap returns a copy of the recorded scores keyed by player.
func (r Round) ScoreMap() map[string]int {
	out := make(map[string]int, len(r.scores))
	maps.Copy(out, r.scores)
	return out
}

// WithScore returns a copy of the round with score recorded for player.
func (r Round) WithScore(player string, score int) Round {
	r.SetScore(player, score)
	return r
}

// WithoutScore returns a copy of the round with player's score cleared.
func (r Round) WithoutScore(player string) Round {
	r.RemoveScore(player)
	return r
}

// Equal reports whether both rounds have the same id, the same ordered players and the same scores.
func (r Round) Equal(other Round) bool {
	return r.id == other.id &&
		slices.Equal(r.players, other.players) &&
		maps.Equal(r.scores, other.scores)
}

// Hash returns a hash consistent with Equal.
func (r Round) Hash() uint64 {
	d := xxhash.New()
	r.writeHash(d)
	return d.Sum64()
}

func (r Round) writeHash(d *xxhash.Digest) {
	_, _ = d.WriteString(r.id)
	_, _ = d.Write([]byte{0})
	for _, p := range r.players {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
	}
	_, _ = d.Write([]byte{1})
	for _, p := range slices.Sorted(maps.Keys(r.scores)) {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(strconv.Itoa(r.scores[p]))
		_, _ = d.Write([]byte{0})
	}
}
