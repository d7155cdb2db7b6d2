package domain

import "slices"

// StartingPlayer returns the player who leads the round at index. Index may equal
// RoundCount to ask who leads the next round. It panics for any other index.
//
// Until someone is eliminated the lead rotates over the whole roster. After that
// it passes to the next roster seat after the previous leader that is still alive
// before the round is played.
func (c ScoreCard) StartingPlayer(index int) string {
	must(index >= 0 && index <= len(c.rounds), ErrRoundNotFound, "starting player for round %d of %d", index, len(c.rounds))
	return c.starters(index)[index]
}

// StartingPlayers returns the leader of every committed round followed by the
// leader of the next round.
func (c ScoreCard) StartingPlayers() []string {
	return c.starters(len(c.rounds))
}

// starters walks the rounds forward once, keeping running totals, and returns the
// leaders of rounds 0 through upTo.
func (c ScoreCard) starters(upTo int) []string {
	n := len(c.players)
	out := make([]string, 0, upTo+1)
	out = append(out, c.players[0])

	t := make(map[string]int, n)
	seat := 0
	for i := 1; i <= upTo; i++ {
		for p, score := range c.rounds[i-1].scores {
			t[p] += score
		}
		eliminated := slices.ContainsFunc(c.players, func(p string) bool { return t[p] >= c.scoreLimit })
		if !eliminated {
			seat = i % n
			out = append(out, c.players[seat])
			continue
		}
		next := (seat + 1) % n
		for step := 1; step <= n; step++ {
			candidate := (seat + step) % n
			if t[c.players[candidate]] < c.scoreLimit {
				next = candidate
				break
			}
		}
		seat = next
		out = append(out, c.players[seat])
	}
	return out
}
