package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// FarmMetrics tracks the externally visible activity of the staking farm and
// the option vault.
type FarmMetrics struct {
	pools           prometheus.Gauge
	deposits        *prometheus.CounterVec
	withdrawals     *prometheus.CounterVec
	claimsIssued    prometheus.Counter
	claimsExercised prometheus.Counter
	custodyBalance  prometheus.Gauge
}

var (
	farmOnce     sync.Once
	farmRegistry *FarmMetrics
)

// Farm returns the process-wide farm metrics registry.
func Farm() *FarmMetrics {
	farmOnce.Do(func() {
		farmRegistry = &FarmMetrics{
			pools: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "farm_pools",
				Help: "Number of registered stake pools.",
			}),
			deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "farm_deposits_total",
				Help: "Count of deposit operations by pool.",
			}, []string{"pool"}),
			withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "farm_withdrawals_total",
				Help: "Count of withdraw operations by pool.",
			}, []string{"pool"}),
			claimsIssued: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "farm_claims_issued_total",
				Help: "Count of option claims minted by the vault.",
			}),
			claimsExercised: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "farm_claims_exercised_total",
				Help: "Count of option claims settled via exercise.",
			}),
			custodyBalance: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "farm_custody_balance",
				Help: "Reward tokens currently escrowed in vault custody.",
			}),
		}
		prometheus.MustRegister(
			farmRegistry.pools,
			farmRegistry.deposits,
			farmRegistry.withdrawals,
			farmRegistry.claimsIssued,
			farmRegistry.claimsExercised,
			farmRegistry.custodyBalance,
		)
	})
	return farmRegistry
}

// SetPools records the current pool count.
func (m *FarmMetrics) SetPools(count uint64) {
	if m == nil {
		return
	}
	m.pools.Set(float64(count))
}

// RecordDeposit counts a deposit against the pool label.
func (m *FarmMetrics) RecordDeposit(pool string) {
	if m == nil {
		return
	}
	m.deposits.WithLabelValues(pool).Inc()
}

// RecordWithdraw counts a withdrawal against the pool label.
func (m *FarmMetrics) RecordWithdraw(pool string) {
	if m == nil {
		return
	}
	m.withdrawals.WithLabelValues(pool).Inc()
}

// RecordClaimIssued counts a minted claim.
func (m *FarmMetrics) RecordClaimIssued() {
	if m == nil {
		return
	}
	m.claimsIssued.Inc()
}

// RecordClaimExercised counts a settled claim.
func (m *FarmMetrics) RecordClaimExercised() {
	if m == nil {
		return
	}
	m.claimsExercised.Inc()
}

// SetCustodyBalance records the vault's escrowed reward balance.
func (m *FarmMetrics) SetCustodyBalance(balance float64) {
	if m == nil {
		return
	}
	m.custodyBalance.Set(balance)
}
