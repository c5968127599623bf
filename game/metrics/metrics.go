// Package metrics exposes Prometheus collectors for game activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wricardo/tsuro-game/game/engine"
)

// Recorder counts turns, cheats, eliminations and game lifecycles. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	gamesCreated  prometheus.Counter
	gamesStarted  prometheus.Counter
	gamesFinished *prometheus.CounterVec
	activeGames   prometheus.Gauge
	turns         prometheus.Counter
	cheats        *prometheus.CounterVec
	eliminations  prometheus.Counter
	tilesPlaced   prometheus.Histogram
}

// NewRecorder creates the collectors and registers them with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		gamesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsuro_games_created_total",
			Help: "Total number of games created",
		}),
		gamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsuro_games_started_total",
			Help: "Total number of games started",
		}),
		gamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tsuro_games_finished_total",
			Help: "Total number of finished games by number of winners",
		}, []string{"winners"}),
		activeGames: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tsuro_games_in_progress",
			Help: "Games started but not finished",
		}),
		turns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsuro_turns_total",
			Help: "Total number of resolved turns",
		}),
		cheats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tsuro_cheats_total",
			Help: "Players replaced for breaking the rules, by seat kind",
		}, []string{"kind"}),
		eliminations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tsuro_eliminations_total",
			Help: "Total number of eliminated tokens",
		}),
		tilesPlaced: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tsuro_game_tiles_placed",
			Help:    "Tiles on the board when a game ends",
			Buckets: prometheus.LinearBuckets(0, 4, 10),
		}),
	}
	reg.MustRegister(r.gamesCreated, r.gamesStarted, r.gamesFinished, r.activeGames,
		r.turns, r.cheats, r.eliminations, r.tilesPlaced)
	return r
}

// GameCreated counts a new game
func (r *Recorder) GameCreated() {
	if r == nil {
		return
	}
	r.gamesCreated.Inc()
}

// GameStarted counts a started game and marks it active
func (r *Recorder) GameStarted() {
	if r == nil {
		return
	}
	r.gamesStarted.Inc()
	r.activeGames.Inc()
}

// Turn records a resolved turn. kind is the seat kind before any replacement.
func (r *Recorder) Turn(result *engine.TurnResult, kind engine.SeatKind) {
	if r == nil || result == nil {
		return
	}
	r.turns.Inc()
	if result.Cheated {
		r.cheats.WithLabelValues(kind.String()).Inc()
	}
	r.eliminations.Add(float64(len(result.Eliminated)))
}

// Cheat records a replacement outside of a turn, e.g. a bad starting position
func (r *Recorder) Cheat(kind engine.SeatKind) {
	if r == nil {
		return
	}
	r.cheats.WithLabelValues(kind.String()).Inc()
}

// GameFinished records the end of a started game
func (r *Recorder) GameFinished(winners, tiles int) {
	if r == nil {
		return
	}
	label := "shared"
	if winners == 1 {
		label = "single"
	}
	r.gamesFinished.WithLabelValues(label).Inc()
	r.activeGames.Dec()
	r.tilesPlaced.Observe(float64(tiles))
}

// GameAbandoned records a started game deleted before it ended
func (r *Recorder) GameAbandoned() {
	if r == nil {
		return
	}
	r.activeGames.Dec()
}
