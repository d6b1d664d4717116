package monitoring

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stakevault/stakevault_backend/salary"
)

var (
	schedulerChecked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salary_scheduler_checked_total",
		Help: "Users checked by the monthly salary scheduler",
	})
	schedulerEligible = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salary_scheduler_eligible_total",
		Help: "Users found eligible by the monthly salary scheduler",
	})
	schedulerCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salary_scheduler_created_total",
		Help: "Salary requests created by the monthly salary scheduler",
	})
	salaryRequestsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salary_requests_created_total",
		Help: "Salary requests created, both scheduled and user-initiated",
	})
	salaryTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salary_request_transitions_total",
		Help: "Salary request transitions by target status",
	}, []string{"status"})
)

// RecordSchedulerSummary records the outcome of one scheduler run.
func RecordSchedulerSummary(checked, eligible, created int) {
	schedulerChecked.Add(float64(checked))
	schedulerEligible.Add(float64(eligible))
	schedulerCreated.Add(float64(created))
}

// RecordSalaryTransition counts one processed salary request.
func RecordSalaryTransition(status string) {
	salaryTransitions.WithLabelValues(status).Inc()
}

// SalaryEvents records engine events as Prometheus counters. It is meant to
// sit alongside the WebSocket notifier in an event fan-out.
type SalaryEvents struct{}

func (SalaryEvents) RequestCreated(_ context.Context, _ salary.CreatedEvent) {
	salaryRequestsCreated.Inc()
}

func (SalaryEvents) RequestTransitioned(_ context.Context, ev salary.TransitionedEvent) {
	RecordSalaryTransition(string(ev.To))
}
