// Package metrics records score card activity as Prometheus counters.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "scorefive"

// Recorder is safe for concurrent use. A nil *Recorder records nothing.
type Recorder struct {
	gamesCreated  prometheus.Counter
	gamesFinished prometheus.Counter
	limitChanges  prometheus.Counter
	rounds        *prometheus.CounterVec
	rejected      *prometheus.CounterVec
}

// NewRecorder registers the score card counters on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		gamesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_created_total",
			Help:      "Score cards created.",
		}),
		gamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Games that ended with fewer than two players alive.",
		}),
		limitChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_limit_changes_total",
			Help:      "Accepted score limit changes.",
		}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Accepted round mutations by operation.",
		}, []string{"op"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_rejected_total",
			Help:      "Score card mutations refused by the rules, by operation.",
		}, []string{"op"}),
	}
	reg.MustRegister(r.gamesCreated, r.gamesFinished, r.limitChanges, r.rounds, r.rejected)
	return r
}

func (r *Recorder) GameCreated() {
	if r != nil {
		r.gamesCreated.Inc()
	}
}

func (r *Recorder) GameFinished() {
	if r != nil {
		r.gamesFinished.Inc()
	}
}

func (r *Recorder) ScoreLimitChanged() {
	if r != nil {
		r.limitChanges.Inc()
	}
}

// Round counts an accepted add, remove or replace.
func (r *Recorder) Round(op string) {
	if r != nil {
		r.rounds.WithLabelValues(op).Inc()
	}
}

// Rejected counts a mutation that a Can* check refused.
func (r *Recorder) Rejected(op string) {
	if r != nil {
		r.rejected.WithLabelValues(op).Inc()
	}
}
