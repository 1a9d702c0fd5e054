package notify

import (
	"context"

	"go.uber.org/zap"

	"chvcore/pkg/domain"
)

var _ domain.Notifier = (*LogNotifier)(nil)

// LogNotifier writes notifications to the structured log. It never fails and
// is the default when no transport is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a log-only notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

// Notify logs the notification at warn level for national escalations and
// info otherwise.
func (l *LogNotifier) Notify(_ context.Context, tier domain.Tier, n domain.Notification) error {
	fields := []zap.Field{
		zap.String("tier", string(tier)),
		zap.String("kind", string(n.Kind)),
		zap.String("report_id", n.ReportID),
		zap.String("display_id", n.DisplayID),
		zap.String("level", string(n.Level)),
		zap.String("severity", n.Severity),
		zap.String("status", n.Status),
		zap.String("summary", n.Summary),
		zap.String("reported_by", n.ReportedBy),
	}
	if tier == domain.TierNational {
		l.logger.Warn("escalation notification", fields...)
		return nil
	}
	l.logger.Info("escalation notification", fields...)
	return nil
}
