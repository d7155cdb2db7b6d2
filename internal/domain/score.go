package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrInvalidScore      = errors.New("invalid score")
	ErrInvalidScoreLimit = errors.New("invalid score limit")
	ErrInvalidRoster     = errors.New("invalid roster")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrRoundNotFound     = errors.New("round not found")
	ErrIllegalMutation   = errors.New("illegal score card mutation")
)

// IsLegalScore reports whether n can be recorded as a single round score.
func IsLegalScore(n int) bool {
	return n >= MinScore && n <= MaxScore
}

// ValidateScore returns n unchanged when it is a legal round score.
func ValidateScore(n int) (int, error) {
	if !IsLegalScore(n) {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidScore, n, MinScore, MaxScore)
	}
	return n, nil
}

// ValidateScoreLimit checks a proposed elimination threshold for a new card.
func ValidateScoreLimit(limit int) error {
	if limit < MinScoreLimit {
		return fmt.Errorf("%w: %d is below %d", ErrInvalidScoreLimit, limit, MinScoreLimit)
	}
	return nil
}

// ValidateRoster checks that players can form a score card: at least two
// distinct names, each valid UTF-8.
func ValidateRoster(players []string) error {
	if len(players) < MinPlayers {
		return fmt.Errorf("%w: need at least %d players, got %d", ErrInvalidRoster, MinPlayers, len(players))
	}
	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if !utf8.ValidString(p) {
			return fmt.Errorf("%w: player %q is not valid UTF-8", ErrInvalidRoster, p)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: duplicate player %q", ErrInvalidRoster, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// validNames reports whether every name is valid UTF-8.
func validNames(names ...string) bool {
	for _, n := range names {
		if !utf8.ValidString(n) {
			return false
		}
	}
	return true
}

// must panics with err when ok is false. Used for caller bugs that a Can* predicate
// or a Validate* function could have caught up front.
func must(ok bool, err error, format string, args ...any) {
	if ok {
		return
	}
	panic(fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...)))
}
