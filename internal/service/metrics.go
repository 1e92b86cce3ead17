package service

import "github.com/prometheus/client_golang/prometheus"

var (
	loginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "portal_logins_total", Help: "Sign-in attempts by result"},
		[]string{"result"},
	)
	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "portal_registrations_total", Help: "Registered accounts by role"},
		[]string{"role"},
	)
	applicationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "portal_applications_total", Help: "Apply attempts by result"},
		[]string{"result"},
	)
	interviewsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "portal_interviews_scheduled_total", Help: "Interviews scheduled"},
	)
	messagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "portal_messages_sent_total", Help: "Direct messages sent"},
	)
)

func init() {
	prometheus.MustRegister(loginTotal, registrationsTotal, applicationsTotal, interviewsTotal, messagesTotal)
}
