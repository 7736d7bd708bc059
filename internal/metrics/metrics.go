// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResetEmailFailures counts password-reset emails the provider
	// refused or the network dropped. The HTTP response to the caller is
	// unaffected, so this counter is the only place delivery outages
	// become visible.
	ResetEmailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_password_reset_email_failures_total",
		Help: "Password reset emails that failed to send.",
	})

	LoginFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_failures_total",
		Help: "Failed login attempts by cause.",
	}, []string{"cause"})

	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_tokens_issued_total",
		Help: "Bearer tokens issued by successful logins.",
	})
)
