package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes.
const (
	outcomeSuccess     = "success"
	outcomeNotFound    = "not_found"
	outcomeDisabled    = "disabled"
	outcomeLocked      = "locked"
	outcomeInvalid     = "invalid_credentials"
	outcomeStoreError  = "error"
	decisionAllow      = "allow"
	decisionDeny       = "deny"
	decisionResolution = "resolution_failed"
)

var (
	loginAttempts = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: "keyward",
			Name:      "login_attempts_total",
			Help:      "Authentication attempts by identifier kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	accessDecisions = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: "keyward",
			Name:      "access_decisions_total",
			Help:      "Permission and role checks by check type and result.",
		},
		[]string{"check", "result"},
	)

	lockouts = promauto.NewCounter( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: "keyward",
			Name:      "lockouts_total",
			Help:      "Failed logins that started a lock window.",
		},
	)
)
