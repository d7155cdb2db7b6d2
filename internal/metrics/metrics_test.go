package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.GameCreated()
	r.GameCreated()
	r.Round("add")
	r.Round("add")
	r.Round("remove")
	r.Rejected("replace")
	r.GameFinished()
	r.ScoreLimitChanged()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.gamesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.gamesFinished))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.limitChanges))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.rounds.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rounds.WithLabelValues("remove")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rejected.WithLabelValues("replace")))

	expected := `
# HELP scorefive_games_created_total Score cards created.
# TYPE scorefive_games_created_total counter
scorefive_games_created_total 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "scorefive_games_created_total"))
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.GameCreated()
		r.GameFinished()
		r.ScoreLimitChanged()
		r.Round("add")
		r.Rejected("add")
	})
}
