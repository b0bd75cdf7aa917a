package manager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics
var (
	signatures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seedvault_signatures_total",
			Help: "Signatures produced by unlocked wallets",
		},
	)

	vaultOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedvault_vault_operations_total",
			Help: "Vault record operations",
		},
		[]string{"operation"},
	)
)
