package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GameStatUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_stat_updates_total",
			Help: "Total number of game statistic updates by kind",
		},
		[]string{"kind"},
	)

	RecipeLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_lookups_total",
			Help: "Total number of recipe catalog lookups by operation and result",
		},
		[]string{"operation", "result"},
	)
)
