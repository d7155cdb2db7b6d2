package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"scorefive/internal/domain"
)

// Field numbers of the binary encoding.
const (
	cardID         protowire.Number = 1
	cardPlayers    protowire.Number = 2
	cardScoreLimit protowire.Number = 3
	cardRounds     protowire.Number = 4

	roundID      protowire.Number = 1
	roundPlayers protowire.Number = 2
	roundScores  protowire.Number = 3

	entryPlayer protowire.Number = 1
	entryScore  protowire.Number = 2
)

// MarshalBinary encodes c in protobuf wire format. Score entries follow the
// round's player order so equal cards always produce equal bytes.
func MarshalBinary(c domain.ScoreCard) []byte {
	var b []byte
	b = protowire.AppendTag(b, cardID, protowire.BytesType)
	b = protowire.AppendString(b, c.ID())
	for _, p := range c.Players() {
		b = protowire.AppendTag(b, cardPlayers, protowire.BytesType)
		b = protowire.AppendString(b, p)
	}
	b = protowire.AppendTag(b, cardScoreLimit, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.ScoreLimit()))
	for _, r := range c.Rounds() {
		b = protowire.AppendTag(b, cardRounds, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalRound(r))
	}
	return b
}

func marshalRound(r domain.Round) []byte {
	var b []byte
	b = protowire.AppendTag(b, roundID, protowire.BytesType)
	b = protowire.AppendString(b, r.ID())
	players := r.Players()
	for _, p := range players {
		b = protowire.AppendTag(b, roundPlayers, protowire.BytesType)
		b = protowire.AppendString(b, p)
	}
	for _, p := range players {
		score, ok := r.Score(p)
		if !ok {
			continue
		}
		var e []byte
		e = protowire.AppendTag(e, entryPlayer, protowire.BytesType)
		e = protowire.AppendString(e, p)
		e = protowire.AppendTag(e, entryScore, protowire.VarintType)
		e = protowire.AppendVarint(e, uint64(int64(score)))
		b = protowire.AppendTag(b, roundScores, protowire.BytesType)
		b = protowire.AppendBytes(b, e)
	}
	return b
}

// UnmarshalBinary decodes bytes produced by MarshalBinary. Unknown fields are skipped.
func UnmarshalBinary(b []byte) (domain.ScoreCard, error) {
	var rec CardRecord
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return domain.ScoreCard{}, malformed(n)
		}
		b = b[n:]
		switch {
		case num == cardID && typ == protowire.BytesType:
			rec.ID, n = protowire.ConsumeString(b)
		case num == cardPlayers && typ == protowire.BytesType:
			var p string
			p, n = protowire.ConsumeString(b)
			rec.Players = append(rec.Players, p)
		case num == cardScoreLimit && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			rec.ScoreLimit = int(int64(v))
		case num == cardRounds && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				rr, err := unmarshalRound(raw)
				if err != nil {
					return domain.ScoreCard{}, err
				}
				rec.Rounds = append(rec.Rounds, rr)
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return domain.ScoreCard{}, malformed(n)
		}
		b = b[n:]
	}
	return rec.ToCard()
}

func unmarshalRound(b []byte) (RoundRecord, error) {
	var rr RoundRecord
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return rr, malformed(n)
		}
		b = b[n:]
		switch {
		case num == roundID && typ == protowire.BytesType:
			rr.ID, n = protowire.ConsumeString(b)
		case num == roundPlayers && typ == protowire.BytesType:
			var p string
			p, n = protowire.ConsumeString(b)
			rr.Players = append(rr.Players, p)
		case num == roundScores && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				player, score, err := unmarshalEntry(raw)
				if err != nil {
					return rr, err
				}
				if _, dup := rr.Scores[player]; dup {
					return rr, fmt.Errorf("%w: round %s scores %q twice", ErrMalformed, rr.ID, player)
				}
				if rr.Scores == nil {
					rr.Scores = make(map[string]int)
				}
				rr.Scores[player] = score
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return rr, malformed(n)
		}
		b = b[n:]
	}
	return rr, nil
}

func unmarshalEntry(b []byte) (string, int, error) {
	var (
		player    string
		score     int
		hasPlayer bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", 0, malformed(n)
		}
		b = b[n:]
		switch {
		case num == entryPlayer && typ == protowire.BytesType:
			player, n = protowire.ConsumeString(b)
			hasPlayer = true
		case num == entryScore && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			score = int(int64(v))
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return "", 0, malformed(n)
		}
		b = b[n:]
	}
	if !hasPlayer {
		return "", 0, fmt.Errorf("%w: score entry without player", ErrMalformed)
	}
	return player, score, nil
}

func malformed(n int) error {
	return fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
}
