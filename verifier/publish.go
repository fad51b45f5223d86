package verifier

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/specverify/diagnose"
)

// ReportSubject is the subject finished reports are published on.
const ReportSubject = "specverify.report"

// Publisher pushes finished reports onto NATS for downstream consumers
// (CI gates, dashboards). A nil publisher or nil connection degrades to a
// no-op so the verifier works without messaging infrastructure.
type Publisher struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewPublisher creates a publisher on the given connection. An empty subject
// falls back to ReportSubject.
func NewPublisher(nc *nats.Conn, subject string, logger *slog.Logger) *Publisher {
	if subject == "" {
		subject = ReportSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{nc: nc, subject: subject, logger: logger}
}

// Publish serializes the report as JSON and publishes it. Publishing is
// best-effort: failures are returned for logging but never affect verdicts.
func (p *Publisher) Publish(report *diagnose.Report) error {
	if p == nil || p.nc == nil {
		return nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", report.RunID, err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish report %s: %w", report.RunID, err)
	}
	p.logger.Debug("published verification report",
		slog.String("run_id", report.RunID),
		slog.String("subject", p.subject),
		slog.Int("goals", report.Summary.Total))
	return nil
}
