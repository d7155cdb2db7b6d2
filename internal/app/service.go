package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"scorefive/internal/domain"
	"scorefive/internal/logger"
	"scorefive/internal/metrics"
	"scorefive/internal/ports"
)

var (
	ErrInvalidRoster     = domain.ErrInvalidRoster
	ErrInvalidScoreLimit = domain.ErrInvalidScoreLimit
	ErrInvalidScore      = domain.ErrInvalidScore
	ErrUnknownPlayer     = domain.ErrUnknownPlayer
	ErrRoundNotFound     = domain.ErrRoundNotFound
	ErrRoundRejected     = errors.New("round rejected by score card rules")
)

// Service contains the score card use-cases. Every mutation is checked with the
// matching Can* predicate first, so callers get errors rather than panics.
type Service struct {
	store     ports.RecordStore
	publisher ports.EventPublisher
	metrics   *metrics.Recorder
	now       func() time.Time
	listLimit int
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sends every emitted event through p after the record is saved.
func WithPublisher(p ports.EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithClock overrides time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithListLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.listLimit = n
		}
	}
}

// NewService constructs a Service over store.
func NewService(store ports.RecordStore, opts ...Option) *Service {
	s := &Service{
		store:     store,
		now:       time.Now,
		listLimit: DefaultListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGame starts a new score card for owner.
func (s *Service) CreateGame(ctx context.Context, owner string, players []string, scoreLimit int) (ports.GameRecord, []Event, error) {
	if err := domain.ValidateRoster(players); err != nil {
		return ports.GameRecord{}, nil, err
	}
	if err := domain.ValidateScoreLimit(scoreLimit); err != nil {
		return ports.GameRecord{}, nil, err
	}

	card := domain.NewScoreCard(players, scoreLimit, "")
	now := s.now()
	rec, err := s.store.Save(ctx, ports.GameRecord{
		Card:        card,
		Owner:       owner,
		CreatedAt:   now,
		LastUpdated: now,
	}, "")
	if err != nil {
		return ports.GameRecord{}, nil, err
	}
	s.metrics.GameCreated()

	events := []Event{{
		Kind:  EventGameCreated,
		Owner: owner,
		Payload: GameCreatedPayload{
			GameID:     card.ID(),
			Players:    card.Players(),
			ScoreLimit: card.ScoreLimit(),
		},
	}}
	s.publish(ctx, events)
	return rec, events, nil
}

// GetGame loads one of owner's games.
func (s *Service) GetGame(ctx context.Context, owner, id string) (ports.GameRecord, error) {
	return s.store.Get(ctx, owner, id)
}

// ListGames returns up to the list limit of owner's games, unfinished games first,
// each group most recently updated first. Stores list in no particular order, so
// every record is read and sorted before the limit is applied.
func (s *Service) ListGames(ctx context.Context, owner string) ([]ports.GameRecord, error) {
	recs, err := s.store.List(ctx, owner, 0)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(recs, func(a, b ports.GameRecord) int {
		if a.Complete != b.Complete {
			if a.Complete {
				return 1
			}
			return -1
		}
		return b.LastUpdated.Compare(a.LastUpdated)
	})
	if len(recs) > s.listLimit {
		recs = slices.Clip(recs[:s.listLimit])
	}
	return recs, nil
}

// AddRound records a round dealt to every player still alive. Players missing from
// scores are left unscored.
func (s *Service) AddRound(ctx context.Context, owner, id string, scores map[string]int) (ports.GameRecord, []Event, error) {
	rec, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return ports.GameRecord{}, nil, err
	}
	card := rec.Card

	round, err := buildRound(card.AlivePlayers(), "", scores)
	if err != nil {
		return ports.GameRecord{}, nil, err
	}
	if !card.CanAddRound(round) {
		s.metrics.Rejected(opAdd)
		return ports.GameRecord{}, nil, fmt.Errorf("%w: cannot add round to game %s", ErrRoundRejected, id)
	}

	before := card
	card.AddRound(round)
	events := []Event{{
		Kind:    EventRoundAdded,
		Owner:   owner,
		Payload: roundPayload(card, round, card.RoundCount()-1),
	}}
	return s.commit(ctx, rec, before, card, opAdd, events)
}

// RemoveRound deletes the round with roundID.
func (s *Service) RemoveRound(ctx context.Context, owner, id, roundID string) (ports.GameRecord, []Event, error) {
	rec, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return ports.GameRecord{}, nil, err
	}
	card := rec.Card

	index, ok := card.RoundIndex(roundID)
	if !ok {
		return ports.GameRecord{}, nil, fmt.Errorf("%w: %s in game %s", ErrRoundNotFound, roundID, id)
	}
	if !card.CanRemoveRound(index) {
		s.metrics.Rejected(opRemove)
		return ports.GameRecord{}, nil, fmt.Errorf("%w: removing round %s would change who is eliminated", ErrRoundRejected, roundID)
	}

	before := card
	removed := card.Round(index)
	card.RemoveRound(index)
	payload := roundPayload(card, removed, index)
	payload.Scores = nil
	events := []Event{{Kind: EventRoundRemoved, Owner: owner, Payload: payload}}
	return s.commit(ctx, rec, before, card, opRemove, events)
}

// ReplaceRound rescores the round with roundID. The round keeps its id and players.
func (s *Service) ReplaceRound(ctx context.Context, owner, id, roundID string, scores map[string]int) (ports.GameRecord, []Event, error) {
	rec, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return ports.GameRecord{}, nil, err
	}
	card := rec.Card

	index, ok := card.RoundIndex(roundID)
	if !ok {
		return ports.GameRecord{}, nil, fmt.Errorf("%w: %s in game %s", ErrRoundNotFound, roundID, id)
	}
	round, err := buildRound(card.Round(index).Players(), roundID, scores)
	if err != nil {
		return ports.GameRecord{}, nil, err
	}
	if !card.CanReplaceRound(index, round) {
		s.metrics.Rejected(opReplace)
		return ports.GameRecord{}, nil, fmt.Errorf("%w: cannot replace round %s", ErrRoundRejected, roundID)
	}

	before := card
	card.ReplaceRound(index, round)
	events := []Event{{
		Kind:    EventRoundReplaced,
		Owner:   owner,
		Payload: roundPayload(card, card.Round(index), index),
	}}
	return s.commit(ctx, rec, before, card, opReplace, events)
}

// SetScoreLimit changes the elimination threshold. Raising it can bring eliminated players back.
func (s *Service) SetScoreLimit(ctx context.Context, owner, id string, limit int) (ports.GameRecord, []Event, error) {
	rec, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return ports.GameRecord{}, nil, err
	}
	card := rec.Card

	if !card.CanSetScoreLimit(limit) {
		s.metrics.Rejected(opLimit)
		return ports.GameRecord{}, nil, fmt.Errorf("%w: %d is not above every alive player's total", ErrInvalidScoreLimit, limit)
	}

	before := card
	card.SetScoreLimit(limit)
	events := []Event{{
		Kind:  EventScoreLimitChanged,
		Owner: owner,
		Payload: ScoreLimitChangedPayload{
			GameID:   id,
			OldLimit: before.ScoreLimit(),
			NewLimit: limit,
		},
	}}
	return s.commit(ctx, rec, before, card, opLimit, events)
}

// DeleteGame removes one of owner's games.
func (s *Service) DeleteGame(ctx context.Context, owner, id string) ([]Event, error) {
	if err := s.store.Delete(ctx, owner, id); err != nil {
		return nil, err
	}
	events := []Event{{Kind: EventGameDeleted, Owner: owner, Payload: GameDeletedPayload{GameID: id}}}
	s.publish(ctx, events)
	return events, nil
}

// StartingPlayer reports who leads round index; index may equal the round count.
func (s *Service) StartingPlayer(ctx context.Context, owner, id string, index int) (string, error) {
	rec, err := s.store.Get(ctx, owner, id)
	if err != nil {
		return "", err
	}
	if index < 0 || index > rec.Card.RoundCount() {
		return "", fmt.Errorf("%w: index %d of %d", ErrRoundNotFound, index, rec.Card.RoundCount())
	}
	return rec.Card.StartingPlayer(index), nil
}

// commit saves the new card, appends elimination events and publishes.
func (s *Service) commit(ctx context.Context, rec ports.GameRecord, before, after domain.ScoreCard, op string, events []Event) (ports.GameRecord, []Event, error) {
	rec.Card = after
	rec.LastUpdated = s.now()
	rec.Complete = after.IsFinished()

	saved, err := s.store.Save(ctx, rec, rec.Version)
	if err != nil {
		return ports.GameRecord{}, nil, err
	}

	events = append(events, aliveChanges(rec.Owner, before, after)...)
	if !before.IsFinished() && after.IsFinished() {
		s.metrics.GameFinished()
		winner, _ := after.Winner()
		events = append(events, Event{
			Kind:    EventGameFinished,
			Owner:   rec.Owner,
			Payload: GameFinishedPayload{GameID: after.ID(), Winner: winner},
		})
	}
	if op == opLimit {
		s.metrics.ScoreLimitChanged()
	} else {
		s.metrics.Round(op)
	}
	s.publish(ctx, events)
	return saved, events, nil
}

func (s *Service) publish(ctx context.Context, events []Event) {
	if s.publisher == nil {
		return
	}
	for _, e := range events {
		if err := s.publisher.Publish(ctx, string(e.Kind), e.Owner, e.Payload); err != nil {
			logger.Warn("event publish failed", "kind", e.Kind, "owner", e.Owner, "error", err)
		}
	}
}

// buildRound validates scores before they reach the panicking Round setters.
func buildRound(players []string, id string, scores map[string]int) (domain.Round, error) {
	round := domain.NewRound(players, id)
	for _, p := range players {
		score, ok := scores[p]
		if !ok {
			continue
		}
		if _, err := domain.ValidateScore(score); err != nil {
			return domain.Round{}, fmt.Errorf("player %q: %w", p, err)
		}
		round.SetScore(p, score)
	}
	for p := range scores {
		if !round.HasPlayer(p) {
			return domain.Round{}, fmt.Errorf("%w: %q is not playing this round", ErrUnknownPlayer, p)
		}
	}
	return round, nil
}

func roundPayload(card domain.ScoreCard, round domain.Round, index int) RoundPayload {
	p := RoundPayload{
		GameID:  card.ID(),
		RoundID: round.ID(),
		Index:   index,
		Scores:  round.ScoreMap(),
	}
	if !card.IsFinished() {
		p.NextStartingPlayer = card.StartingPlayer(card.RoundCount())
	}
	return p
}

// aliveChanges reports players whose elimination status differs between before and after, in roster order.
func aliveChanges(owner string, before, after domain.ScoreCard) []Event {
	var events []Event
	for _, p := range after.Players() {
		was, is := before.IsAlive(p), after.IsAlive(p)
		if was == is {
			continue
		}
		kind := EventPlayerEliminated
		if is {
			kind = EventPlayerRevived
		}
		events = append(events, Event{
			Kind:    kind,
			Owner:   owner,
			Payload: PlayerPayload{GameID: after.ID(), Player: p, Total: after.TotalScore(p)},
		})
	}
	return events
}
