package events

import (
	"context"
	"encoding/json"

	"github.com/medfront/clinicdesk/pkg/logging"
)

// LogSink delivers domain events to the structured log stream. It stands in
// for whatever notification transport the clinic wires up downstream.
type LogSink struct {
	logger *logging.Logger
}

func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSink{logger: logger.WithComponent("events")}
}

func (s *LogSink) Handle(ctx context.Context, entry OutboxEntry) error {
	fields := map[string]any{}
	if err := json.Unmarshal(entry.Payload, &fields); err != nil {
		s.logger.Warn("event payload not an object", "event_id", entry.ID, "type", entry.Type)
		fields = nil
	}
	s.logger.Info("domain event",
		"event_id", entry.ID,
		"type", entry.Type,
		"created_at", entry.CreatedAt,
		"payload", fields,
	)
	return nil
}
