package river

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/frontdesk/internal/domain"
)

// TopicIdentityReport is the notification topic identity reports are emitted on.
const TopicIdentityReport = "identity.report"

// EventWorker forwards stay event jobs to the notification bus. A failed
// emit returns the error so River retries the job.
type EventWorker struct {
	river.WorkerDefaults[StayEventArgs]
	notifier domain.Notifier
}

func NewEventWorker(notifier domain.Notifier) *EventWorker {
	return &EventWorker{notifier: notifier}
}

// Work processes a single stay event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[StayEventArgs]) error {
	slog.InfoContext(ctx, "processing stay event",
		"event", job.Args.Event,
		"stay_id", job.Args.StayID,
		"stay_number", job.Args.StayNumber,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return emit(ctx, w.notifier, job.Args.Event, job.Args)
}

// IdentityReportWorker hands identity reports to the bus, where the
// reporting integration picks them up.
type IdentityReportWorker struct {
	river.WorkerDefaults[IdentityReportArgs]
	notifier domain.Notifier
}

func NewIdentityReportWorker(notifier domain.Notifier) *IdentityReportWorker {
	return &IdentityReportWorker{notifier: notifier}
}

func (w *IdentityReportWorker) Work(ctx context.Context, job *river.Job[IdentityReportArgs]) error {
	slog.InfoContext(ctx, "processing identity report",
		"stay_id", job.Args.StayID,
		"guests", len(job.Args.Guests),
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return emit(ctx, w.notifier, TopicIdentityReport, job.Args)
}

func emit(ctx context.Context, notifier domain.Notifier, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", topic, err)
	}
	if err := notifier.Emit(ctx, topic, payload); err != nil {
		return fmt.Errorf("emitting %s: %w", topic, err)
	}
	return nil
}

// LogNotifier writes notifications to the structured log. It stands in
// for the bus when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

var _ domain.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Emit(ctx context.Context, topic string, payload []byte) error {
	n.logger.InfoContext(ctx, "notification", "topic", topic, "payload", string(payload))
	return nil
}
