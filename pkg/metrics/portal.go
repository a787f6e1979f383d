package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Portal groups the counters the portal exports on /metrics.
type Portal struct {
	registry *prometheus.Registry

	StepAdvances      prometheus.Counter
	StepRejections    prometheus.Counter
	LookupsFired      prometheus.Counter
	LookupsSuperseded prometheus.Counter
	LookupFailures    prometheus.Counter
	Submissions       *prometheus.CounterVec
	AuthAttempts      *prometheus.CounterVec
}

// NewPortal registers the portal counters on a private registry.
func NewPortal() *Portal {
	reg := prometheus.NewRegistry()
	p := &Portal{
		registry: reg,
		StepAdvances: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal", Name: "wizard_step_advances_total",
			Help: "Validated next actions that moved the wizard forward.",
		}),
		StepRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal", Name: "wizard_step_rejections_total",
			Help: "Next actions blocked by field validation.",
		}),
		LookupsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal", Name: "autocomplete_lookups_total",
			Help: "Location lookups sent to the backend after the quiet period.",
		}),
		LookupsSuperseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal", Name: "autocomplete_superseded_total",
			Help: "Scheduled lookups replaced by a later keystroke.",
		}),
		LookupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portal", Name: "autocomplete_failures_total",
			Help: "Location lookups that failed in transport or decoding.",
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal", Name: "assessment_submissions_total",
			Help: "Assessment submissions by outcome.",
		}, []string{"outcome"}),
		AuthAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal", Name: "auth_attempts_total",
			Help: "Account flow calls by flow and outcome.",
		}, []string{"flow", "outcome"}),
	}
	reg.MustRegister(
		p.StepAdvances,
		p.StepRejections,
		p.LookupsFired,
		p.LookupsSuperseded,
		p.LookupFailures,
		p.Submissions,
		p.AuthAttempts,
		prometheus.NewGoCollector(),
	)
	return p
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Portal) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// StepAdvanced counts a validated move to the next step.
func (p *Portal) StepAdvanced() { p.StepAdvances.Inc() }

// StepRejected counts a next action blocked by validation.
func (p *Portal) StepRejected() { p.StepRejections.Inc() }

// LookupFired counts a location lookup sent to the backend.
func (p *Portal) LookupFired(string) { p.LookupsFired.Inc() }

// LookupSuperseded counts a scheduled lookup replaced before it fired.
func (p *Portal) LookupSuperseded(string) { p.LookupsSuperseded.Inc() }

// LookupFailed counts a failed location lookup.
func (p *Portal) LookupFailed(string, error) { p.LookupFailures.Inc() }

// SubmissionFinished counts one submission by outcome.
func (p *Portal) SubmissionFinished(outcome string) {
	p.Submissions.WithLabelValues(outcome).Inc()
}

// AuthAttempt counts one account flow call.
func (p *Portal) AuthAttempt(flow, outcome string) {
	p.AuthAttempts.WithLabelValues(flow, outcome).Inc()
}
