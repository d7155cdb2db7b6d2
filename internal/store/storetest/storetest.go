// Package storetest checks a ports.RecordStore implementation against the shared contract.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorefive/internal/domain"
	"scorefive/internal/ports"
)

// Run exercises a fresh store returned by newStore in every subtest.
func Run(t *testing.T, newStore func(t *testing.T) ports.RecordStore) {
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	sample := func(id string) ports.GameRecord {
		card := domain.NewScoreCard([]string{"Ann", "Bo", "Cy"}, 100, id)
		card.AddRound(domain.NewRound([]string{"Ann", "Bo", "Cy"}, id+"-r1").WithScore("Ann", 0).WithScore("Cy", 40))
		return ports.GameRecord{Card: card, Owner: "owner-1", CreatedAt: created, LastUpdated: created}
	}

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		saved, err := s.Save(ctx, sample("g1"), "")
		require.NoError(t, err)
		require.NotEmpty(t, saved.Version)

		got, err := s.Get(ctx, "owner-1", "g1")
		require.NoError(t, err)
		assert.True(t, saved.Card.Equal(got.Card))
		assert.Equal(t, "owner-1", got.Owner)
		assert.Equal(t, saved.Version, got.Version)
		assert.True(t, created.Equal(got.CreatedAt))
		assert.True(t, created.Equal(got.LastUpdated))
		assert.False(t, got.Complete)
	})

	t.Run("missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "owner-1", "nope")
		assert.ErrorIs(t, err, ports.ErrRecordNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "owner-1", "nope"), ports.ErrRecordNotFound)
	})

	t.Run("owners are isolated", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Save(ctx, sample("g1"), "")
		require.NoError(t, err)
		_, err = s.Get(ctx, "owner-2", "g1")
		assert.ErrorIs(t, err, ports.ErrRecordNotFound)
		list, err := s.List(ctx, "owner-2", 10)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("create twice conflicts", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Save(ctx, sample("g1"), "")
		require.NoError(t, err)
		_, err = s.Save(ctx, sample("g1"), "")
		assert.ErrorIs(t, err, ports.ErrVersionConflict)
	})

	t.Run("optimistic update", func(t *testing.T) {
		s := newStore(t)
		first, err := s.Save(ctx, sample("g1"), "")
		require.NoError(t, err)

		next := first
		next.Card = next.Card.WithScoreLimit(150)
		next.LastUpdated = created.Add(time.Hour)
		second, err := s.Save(ctx, next, first.Version)
		require.NoError(t, err)
		assert.NotEqual(t, first.Version, second.Version)

		_, err = s.Save(ctx, next, first.Version)
		assert.ErrorIs(t, err, ports.ErrVersionConflict, "stale version")

		got, err := s.Get(ctx, "owner-1", "g1")
		require.NoError(t, err)
		assert.Equal(t, 150, got.Card.ScoreLimit())
		assert.True(t, created.Add(time.Hour).Equal(got.LastUpdated))
	})

	t.Run("list and delete", func(t *testing.T) {
		s := newStore(t)
		for _, id := range []string{"g1", "g2", "g3"} {
			_, err := s.Save(ctx, sample(id), "")
			require.NoError(t, err)
		}

		list, err := s.List(ctx, "owner-1", 10)
		require.NoError(t, err)
		assert.Len(t, list, 3)

		limited, err := s.List(ctx, "owner-1", 2)
		require.NoError(t, err)
		assert.Len(t, limited, 2)

		all, err := s.List(ctx, "owner-1", 0)
		require.NoError(t, err)
		assert.Len(t, all, 3, "no limit")

		require.NoError(t, s.Delete(ctx, "owner-1", "g2"))
		list, err = s.List(ctx, "owner-1", 10)
		require.NoError(t, err)
		assert.Len(t, list, 2)
		for _, rec := range list {
			assert.NotEqual(t, "g2", rec.Card.ID())
		}
	})

	t.Run("complete flag", func(t *testing.T) {
		s := newStore(t)
		rec := sample("g1")
		rec.Card = domain.NewScoreCard([]string{"Ann", "Bo"}, 50, "g1")
		rec.Card.AddRound(domain.NewRound([]string{"Ann", "Bo"}, "r").WithScore("Ann", 0).WithScore("Bo", 50))
		rec.Complete = rec.Card.IsFinished()
		_, err := s.Save(ctx, rec, "")
		require.NoError(t, err)

		got, err := s.Get(ctx, "owner-1", "g1")
		require.NoError(t, err)
		assert.True(t, got.Complete)
	})
}
