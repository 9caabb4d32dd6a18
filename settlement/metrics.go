package settlement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics is optional; a nil *Metrics records nothing.
type Metrics struct {
	declarations  *prometheus.CounterVec
	winningBets   prometheus.Counter
	payoutAmount  prometheus.Counter
	lostBets      prometheus.Counter
	commission    prometheus.Counter
	skippedAgents prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		declarations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matka",
			Name:      "declarations_total",
			Help:      "Result declarations by slot, trigger and outcome.",
		}, []string{"slot", "trigger", "outcome"}),
		winningBets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matka",
			Name:      "winning_bets_total",
			Help:      "Bets marked won.",
		}),
		payoutAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matka",
			Name:      "payout_amount_total",
			Help:      "Sum of winnings credited to users.",
		}),
		lostBets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matka",
			Name:      "lost_bets_total",
			Help:      "Bets swept to lost at close.",
		}),
		commission: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matka",
			Name:      "commission_amount_total",
			Help:      "Sum of commission credited to agents.",
		}),
		skippedAgents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matka",
			Name:      "commission_skipped_agents_total",
			Help:      "Agents skipped during commission distribution.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.declarations, m.winningBets, m.payoutAmount, m.lostBets, m.commission, m.skippedAgents)
	}
	return m
}

func (m *Metrics) observe(req DeclareRequest, outcome string, out *Outcome) {
	if m == nil {
		return
	}
	m.declarations.WithLabelValues(string(req.Slot), string(req.Trigger), outcome).Inc()
	if out == nil {
		return
	}
	m.winningBets.Add(float64(out.Winners))
	m.payoutAmount.Add(decimalFloat(out.PayoutTotal))
	m.lostBets.Add(float64(out.LostCount))
	m.commission.Add(decimalFloat(out.CommissionTotal))
	m.skippedAgents.Add(float64(len(out.SkippedAgents)))
}

func decimalFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
