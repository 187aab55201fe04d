// AngelaMos | 2026
// metrics.go

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var loginAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Login attempts partitioned by outcome.",
	},
	[]string{"result"},
)

var passwordResets = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_password_resets_total",
		Help: "Password reset requests and completions partitioned by outcome.",
	},
	[]string{"stage", "result"},
)
