package service

import (
	"context"
	"sync"

	"acquisition-arena-be/internal/pkg/logger"
	"acquisition-arena-be/pkg/events"
	pktNats "acquisition-arena-be/pkg/nats"
)

const auditModule = "EVENT_AUDIT"

// EventAuditService writes every domain event to the audit log and counts
// them per type.
type EventAuditService struct {
	subscriber *pktNats.Subscriber
	logger     logger.ILogger

	mu     sync.Mutex
	counts map[string]int
}

func NewEventAuditService(sub *pktNats.Subscriber, log logger.ILogger) *EventAuditService {
	return &EventAuditService{
		subscriber: sub,
		logger:     log,
		counts:     make(map[string]int),
	}
}

// Start begins listening to the event bus with a durable consumer.
func (s *EventAuditService) Start(ctx context.Context) {
	if s.subscriber == nil {
		return
	}
	if err := s.subscriber.Subscribe(ctx, pktNats.SubjectPrefix+">", "session-audit-worker", s.Handle); err != nil {
		s.logger.Error(auditModule, "Failed to start event audit subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info(auditModule, "Event audit started, listening to events.>", nil)
}

func (s *EventAuditService) Handle(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	s.counts[event.EventType()]++
	s.mu.Unlock()

	details := make(map[string]interface{}, len(event.Payload())+2)
	for k, v := range event.Payload() {
		details[k] = v
	}
	details["event_type"] = event.EventType()
	details["occurred_at"] = event.Timestamp()

	s.logger.Info(auditModule, "Domain event", details)
	return nil
}

// Counts returns a snapshot of events seen per type.
func (s *EventAuditService) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}
