package domain

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// ScoreCard is the record of one game of Five: the roster, the elimination
// threshold and every round played so far.
//
// ScoreCard is a value. Pointer methods (AddRound, RemoveRound, ...) mutate in
// place; the With*/Without*/Replacing* methods return a modified copy. Both go
// through the same checks, and neither shares slices or maps with other copies.
type ScoreCard struct {
	id         string
	players    []string
	scoreLimit int
	rounds     []Round
}

// NewScoreCard creates an empty card. It panics unless scoreLimit is at least
// MinScoreLimit and players holds at least two distinct names; callers holding
// untrusted input should run ValidateRoster and ValidateScoreLimit first.
func NewScoreCard(players []string, scoreLimit int, id string) ScoreCard {
	if err := ValidateScoreLimit(scoreLimit); err != nil {
		panic(err)
	}
	if err := ValidateRoster(players); err != nil {
		panic(err)
	}
	must(validNames(id), ErrIllegalMutation, "score card id %q is not valid UTF-8", id)
	if id == "" {
		id = uuid.NewString()
	}
	return ScoreCard{
		id:         id,
		players:    slices.Clone(players),
		scoreLimit: scoreLimit,
	}
}

// RestoreScoreCard rebuilds a card from stored data. Rounds are taken as they were
// committed; only structural problems are rejected.
func RestoreScoreCard(id string, players []string, scoreLimit int, rounds []Round) (ScoreCard, error) {
	if id == "" {
		return ScoreCard{}, fmt.Errorf("%w: score card id is empty", ErrIllegalMutation)
	}
	if !validNames(id) {
		return ScoreCard{}, fmt.Errorf("%w: score card id %q is not valid UTF-8", ErrIllegalMutation, id)
	}
	if err := ValidateScoreLimit(scoreLimit); err != nil {
		return ScoreCard{}, err
	}
	if err := ValidateRoster(players); err != nil {
		return ScoreCard{}, err
	}
	for _, r := range rounds {
		for _, p := range r.players {
			if !slices.Contains(players, p) {
				return ScoreCard{}, fmt.Errorf("%w: round %s has %q who is not on the roster", ErrUnknownPlayer, r.id, p)
			}
		}
	}
	return ScoreCard{
		id:         id,
		players:    slices.Clone(players),
		scoreLimit: scoreLimit,
		rounds:     slices.Clone(rounds),
	}, nil
}

// ID returns the card's identifier.
func (c ScoreCard) ID() string { return c.id }

// Clone returns a deep copy of the card.
func (c ScoreCard) Clone() ScoreCard {
	c.players = slices.Clone(c.players)
	c.rounds = slices.Clone(c.rounds)
	for i := range c.rounds {
		c.rounds[i] = c.rounds[i].Clone()
	}
	return c
}

// Players returns the full roster in seating order.
func (c ScoreCard) Players() []string { return slices.Clone(c.players) }

// ScoreLimit returns the total at which a player is eliminated.
func (c ScoreCard) ScoreLimit() int { return c.scoreLimit }

// Rounds returns the committed rounds in play order.
func (c ScoreCard) Rounds() []Round { return slices.Clone(c.rounds) }

// RoundCount returns the number of committed rounds.
func (c ScoreCard) RoundCount() int { return len(c.rounds) }

// Round returns the round at index. It panics when index is out of range.
func (c ScoreCard) Round(index int) Round {
	must(c.hasIndex(index), ErrRoundNotFound, "index %d of %d", index, len(c.rounds))
	return c.rounds[index]
}

// SetRound is equivalent to ReplaceRound.
func (c *ScoreCard) SetRound(index int, round Round) {
	c.ReplaceRound(index, round)
}

// RoundIndex returns the position of the first round with id.
func (c ScoreCard) RoundIndex(id string) (int, bool) {
	i := slices.IndexFunc(c.rounds, func(r Round) bool { return r.id == id })
	return i, i >= 0
}

// TotalScore sums player's recorded scores over every round. It panics for a
// player who is not on the roster.
func (c ScoreCard) TotalScore(player string) int {
	must(slices.Contains(c.players, player), ErrUnknownPlayer, "%q is not on score card %s", player, c.id)
	total := 0
	for _, r := range c.rounds {
		total += r.scores[player]
	}
	return total
}

// Totals returns every roster player's total score.
func (c ScoreCard) Totals() map[string]int {
	return totals(c.players, c.rounds)
}

// AlivePlayers returns, in seating order, the players whose total is still below the score limit.
func (c ScoreCard) AlivePlayers() []string {
	return alive(c.players, c.scoreLimit, c.rounds)
}

// IsAlive reports whether player has not yet been eliminated.
func (c ScoreCard) IsAlive(player string) bool {
	return c.TotalScore(player) < c.scoreLimit
}

// IsFinished reports whether fewer than two players remain.
func (c ScoreCard) IsFinished() bool {
	return len(c.AlivePlayers()) < MinPlayers
}

// Winner returns the last player standing once the game is finished.
func (c ScoreCard) Winner() (string, bool) {
	a := c.AlivePlayers()
	if len(a) != 1 {
		return "", false
	}
	return a[0], true
}

// CanSetScoreLimit reports whether limit can replace the current score limit
// without eliminating a player who is still alive.
func (c ScoreCard) CanSetScoreLimit(limit int) bool {
	highest := 0
	t := c.Totals()
	for _, p := range c.AlivePlayers() {
		highest = max(highest, t[p])
	}
	return limit >= MinScoreLimit && limit > highest
}

// SetScoreLimit changes the score limit. It panics unless CanSetScoreLimit(limit).
func (c *ScoreCard) SetScoreLimit(limit int) {
	must(c.CanSetScoreLimit(limit), ErrInvalidScoreLimit, "cannot set limit %d on score card %s", limit, c.id)
	c.scoreLimit = limit
}

// WithScoreLimit returns a copy of the card with a new score limit.
func (c ScoreCard) WithScoreLimit(limit int) ScoreCard {
	c.SetScoreLimit(limit)
	return c
}

// CanAddRound reports whether round can be appended: at least two players are
// alive, the round is complete, and it was dealt to exactly the alive players.
func (c ScoreCard) CanAddRound(round Round) bool {
	a := c.AlivePlayers()
	if len(a) < MinPlayers || !round.IsComplete() {
		return false
	}
	if len(round.players) != len(a) {
		return false
	}
	dealt := make(map[string]struct{}, len(round.players))
	for _, p := range round.players {
		dealt[p] = struct{}{}
	}
	if len(dealt) != len(a) {
		return false
	}
	for _, p := range a {
		if _, ok := dealt[p]; !ok {
			return false
		}
	}
	return true
}

// AddRound appends round. It panics unless CanAddRound(round).
func (c *ScoreCard) AddRound(round Round) {
	must(c.CanAddRound(round), ErrIllegalMutation, "cannot add round %s to score card %s", round.id, c.id)
	c.rounds = append(slices.Clip(c.rounds), round)
}

// WithRound returns a copy of the card with round appended.
func (c ScoreCard) WithRound(round Round) ScoreCard {
	c.AddRound(round)
	return c
}

// CanRemoveRound reports whether the round at index can be removed. The last
// round can always be removed; any other round only if doing so leaves the
// alive players unchanged.
func (c ScoreCard) CanRemoveRound(index int) bool {
	if !c.hasIndex(index) {
		return false
	}
	if index == len(c.rounds)-1 {
		return true
	}
	return slices.Equal(c.AlivePlayers(), alive(c.players, c.scoreLimit, slices.Delete(slices.Clone(c.rounds), index, index+1)))
}

// RemoveRound removes the round at index. It panics unless CanRemoveRound(index).
func (c *ScoreCard) RemoveRound(index int) {
	must(c.CanRemoveRound(index), ErrIllegalMutation, "cannot remove round %d from score card %s", index, c.id)
	c.rounds = slices.Delete(slices.Clone(c.rounds), index, index+1)
}

// WithoutRound returns a copy of the card without the round at index.
func (c ScoreCard) WithoutRound(index int) ScoreCard {
	c.RemoveRound(index)
	return c
}

// CanRemoveRoundByID is CanRemoveRound for the round with id; false if there is none.
func (c ScoreCard) CanRemoveRoundByID(id string) bool {
	i, ok := c.RoundIndex(id)
	return ok && c.CanRemoveRound(i)
}

// RemoveRoundByID removes the round with id. It panics unless CanRemoveRoundByID(id).
func (c *ScoreCard) RemoveRoundByID(id string) {
	must(c.CanRemoveRoundByID(id), ErrIllegalMutation, "cannot remove round %s from score card %s", id, c.id)
	i, _ := c.RoundIndex(id)
	c.RemoveRound(i)
}

// WithoutRoundByID returns a copy of the card without the round with id.
func (c ScoreCard) WithoutRoundByID(id string) ScoreCard {
	c.RemoveRoundByID(id)
	return c
}

// CanReplaceRound reports whether round can take the place of the round at
// index: same ordered players, complete, and (unless it is the last round) no
// change to who is alive.
func (c ScoreCard) CanReplaceRound(index int, round Round) bool {
	if !c.hasIndex(index) || !slices.Equal(c.rounds[index].players, round.players) || !round.IsComplete() {
		return false
	}
	if index == len(c.rounds)-1 {
		return true
	}
	next := slices.Clone(c.rounds)
	next[index] = round
	return slices.Equal(c.AlivePlayers(), alive(c.players, c.scoreLimit, next))
}

// ReplaceRound swaps in round at index, rebuilding it score by score so that only
// legal values are stored. It panics unless CanReplaceRound(index, round).
func (c *ScoreCard) ReplaceRound(index int, round Round) {
	must(c.CanReplaceRound(index, round), ErrIllegalMutation, "cannot replace round %d on score card %s", index, c.id)
	rebuilt := NewRound(round.players, round.id)
	for _, p := range round.players {
		if score, ok := round.scores[p]; ok {
			rebuilt.SetScore(p, score)
		}
	}
	next := slices.Clone(c.rounds)
	next[index] = rebuilt
	c.rounds = next
}

// ReplacingRound returns a copy of the card with round at index.
func (c ScoreCard) ReplacingRound(index int, round Round) ScoreCard {
	c.ReplaceRound(index, round)
	return c
}

// CanReplaceRoundByID is CanReplaceRound for the round with id; false if there is none.
func (c ScoreCard) CanReplaceRoundByID(id string, round Round) bool {
	i, ok := c.RoundIndex(id)
	return ok && c.CanReplaceRound(i, round)
}

// ReplaceRoundByID replaces the round with id. It panics unless CanReplaceRoundByID(id, round).
func (c *ScoreCard) ReplaceRoundByID(id string, round Round) {
	must(c.CanReplaceRoundByID(id, round), ErrIllegalMutation, "cannot replace round %s on score card %s", id, c.id)
	i, _ := c.RoundIndex(id)
	c.ReplaceRound(i, round)
}

// ReplacingRoundByID returns a copy of the card with the round with id replaced.
func (c ScoreCard) ReplacingRoundByID(id string, round Round) ScoreCard {
	c.ReplaceRoundByID(id, round)
	return c
}

// DropLast returns a copy of the card without its last k rounds.
func (c ScoreCard) DropLast(k int) ScoreCard {
	must(k >= 0 && k <= len(c.rounds), ErrIllegalMutation, "cannot drop %d of %d rounds", k, len(c.rounds))
	c.rounds = slices.Clone(c.rounds[:len(c.rounds)-k])
	return c
}

// Equal reports whether both cards have the same id, roster, limit and rounds.
func (c ScoreCard) Equal(other ScoreCard) bool {
	return c.id == other.id &&
		c.scoreLimit == other.scoreLimit &&
		slices.Equal(c.players, other.players) &&
		slices.EqualFunc(c.rounds, other.rounds, Round.Equal)
}

// Hash returns a hash consistent with Equal.
func (c ScoreCard) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(c.id)
	_, _ = d.Write([]byte{0})
	for _, p := range c.players {
		_, _ = d.WriteString(p)
		_, _ = d.Write([]byte{0})
	}
	_, _ = d.WriteString(strconv.Itoa(c.scoreLimit))
	for _, r := range c.rounds {
		_, _ = d.Write([]byte{2})
		r.writeHash(d)
	}
	return d.Sum64()
}

func (c ScoreCard) hasIndex(index int) bool {
	return index >= 0 && index < len(c.rounds)
}

func totals(players []string, rounds []Round) map[string]int {
	t := make(map[string]int, len(players))
	for _, p := range players {
		t[p] = 0
	}
	for _, r := range rounds {
		for p, score := range r.scores {
			if _, ok := t[p]; ok {
				t[p] += score
			}
		}
	}
	return t
}

func alive(players []string, limit int, rounds []Round) []string {
	t := totals(players, rounds)
	out := make([]string, 0, len(players))
	for _, p := range players {
		if t[p] < limit {
			out = append(out, p)
		}
	}
	return out
}
