package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts reset flow outcomes.
type Metrics struct {
	issued   prometheus.Counter
	verified *prometheus.CounterVec
	resets   *prometheus.CounterVec
}

// NewMetrics registers the reset counters on reg. A nil reg creates unregistered counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		issued: f.NewCounter(prometheus.CounterOpts{
			Name: "otp_issued_total",
			Help: "Password reset codes issued and delivered.",
		}),
		verified: f.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_verify_total",
			Help: "Password reset code verifications by result.",
		}, []string{"result"}),
		resets: f.NewCounterVec(prometheus.CounterOpts{
			Name: "password_reset_total",
			Help: "Completed or failed password resets by result.",
		}, []string{"result"}),
	}
}
