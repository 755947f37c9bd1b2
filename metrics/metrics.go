package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rpupo63/hackathon-review-backend/errs"
)

var (
	WorkflowOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hackathon_workflow_operations_total", Help: "Workflow operations by name and outcome"},
		[]string{"operation", "outcome"},
	)
	ReuploadLimitRejections = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackathon_reupload_limit_rejections_total", Help: "Re-upload requests refused at the ceiling"},
	)
	VersionConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hackathon_version_conflicts_total", Help: "Optimistic concurrency retries by operation"},
		[]string{"operation"},
	)
	ProcessedEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackathon_outbox_processed_total", Help: "Total processed outbox events"},
	)
	FailedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hackathon_outbox_failed_total", Help: "Total failed outbox deliveries by sink"},
		[]string{"sink"},
	)
	DLQEvents = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackathon_outbox_dlq_total", Help: "Total deliveries inserted into the dead letter table"},
	)
	DLQResolved = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hackathon_outbox_dlq_resolved_total", Help: "Dead letters delivered on retry"},
	)
)

// Register adds every collector to reg. Call once at startup.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		WorkflowOperations,
		ReuploadLimitRejections,
		VersionConflicts,
		ProcessedEvents,
		FailedEvents,
		DLQEvents,
		DLQResolved,
	)
}

// Outcome maps an operation error to a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errs.IsValidationError(err):
		return "validation"
	case errs.IsReuploadLimitExceededError(err):
		return "reupload_limit"
	case errs.IsResultsClosedError(err):
		return "results_closed"
	case errs.IsApplicationRejectedError(err):
		return "application_rejected"
	case errs.IsAlreadyAppliedError(err), errs.IsRegistrationClosedError(err):
		return "ineligible"
	case errs.IsInvalidStateError(err):
		return "invalid_state"
	case errs.IsNotFound(err):
		return "not_found"
	case errs.IsForbidden(err):
		return "forbidden"
	}
	return "error"
}
