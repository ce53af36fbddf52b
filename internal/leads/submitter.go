package leads

import (
	"context"
	"time"

	"github.com/academykit/intake-bot/internal/observability/metrics"
	"github.com/academykit/intake-bot/pkg/logging"
)

const submitTimeout = 10 * time.Second

// Submitter hands completed leads to the repository. Persistence is
// best-effort: every failure is logged and counted but never returned to
// the conversational path, so a lead-store outage cannot break a reply
// that has already been computed.
type Submitter struct {
	repo    Repository
	logger  *logging.Logger
	metrics *metrics.IntakeMetrics
}

// NewSubmitter creates a submitter over the given repository.
func NewSubmitter(repo Repository, logger *logging.Logger, m *metrics.IntakeMetrics) *Submitter {
	if repo == nil {
		panic("leads: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Submitter{repo: repo, logger: logger, metrics: m}
}

// Submit appends the record, containing any repository failure.
func (s *Submitter) Submit(ctx context.Context, rec *LeadRecord) {
	if err := s.repo.Append(ctx, rec); err != nil {
		s.metrics.ObserveLeadSubmission("failed")
		s.logger.Error("lead submission failed",
			"error", err,
			"sender", rec.Sender,
			"course", rec.CourseName,
		)
		return
	}
	s.metrics.ObserveLeadSubmission("ok")
	s.logger.Info("lead saved",
		"sender", rec.Sender,
		"name", rec.Name,
		"course", rec.CourseName,
	)
}

// SubmitAsync submits off the reply critical path. The write runs after the
// reply is already on its way back to the sender.
func (s *Submitter) SubmitAsync(rec *LeadRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		s.Submit(ctx, rec)
	}()
}
