package mission

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.missionstake.io/stake"
)

var (
	transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stake_mission_transitions_total",
		Help: "number of mission commands by outcome",
	}, []string{"command", "outcome"})

	payouts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stake_mission_payouts_total",
		Help: "number of reward payouts attempted by outcome",
	}, []string{"outcome"})
)

func init() {
	stake.PromCollectors = append(stake.PromCollectors, transitions, payouts)
}
