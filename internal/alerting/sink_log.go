package alerting

import (
	"context"
	"log/slog"
)

// LogSink is the server-side stand-in for the external display layer: it
// records every notification in the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Show(ctx context.Context, n Notification) error {
	s.logger.InfoContext(ctx, "notification",
		"title", n.Title,
		"body", n.Body,
		"severity", n.Severity,
		"zone_id", n.ZoneID,
	)
	return nil
}
