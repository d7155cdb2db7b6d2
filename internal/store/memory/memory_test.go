package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorefive/internal/domain"
	"scorefive/internal/ports"
	"scorefive/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.RecordStore { return New() })
}

func TestStoreDoesNotAliasCards(t *testing.T) {
	ctx := context.Background()
	s := New()
	card := domain.NewScoreCard([]string{"A", "B"}, 100, "g")
	saved, err := s.Save(ctx, ports.GameRecord{Card: card, Owner: "o"}, "")
	require.NoError(t, err)

	saved.Card.AddRound(domain.NewRound([]string{"A", "B"}, "r").WithScore("A", 0).WithScore("B", 3))

	got, err := s.Get(ctx, "o", "g")
	require.NoError(t, err)
	assert.Zero(t, got.Card.RoundCount())
}
