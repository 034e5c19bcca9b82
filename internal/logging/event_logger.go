package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rndmzd/hallmonitor/internal/database"
)

type EventType string

const (
	EventStartup             EventType = "STARTUP"
	EventAuthorizedCommand   EventType = "AUTHORIZED_COMMAND"
	EventBlockedAttempt      EventType = "BLOCKED_ATTEMPT"
	EventUnauthorizedAttempt EventType = "UNAUTHORIZED_ATTEMPT"
	EventChannelEnforcement  EventType = "CHANNEL_ENFORCEMENT"
	EventUserAllowed         EventType = "USER_ALLOWED"
	EventUserRemoved         EventType = "USER_REMOVED"
	EventWarning             EventType = "WARNING"
	EventTimeout             EventType = "TIMEOUT"
	EventBan                 EventType = "BAN"
	EventError               EventType = "ERROR"
)

// Auditor receives security events. Implementations must not fail.
type Auditor interface {
	Log(ctx context.Context, eventType EventType, userID, details string)
}

// EventStore persists security events
type EventStore interface {
	LogEvent(ctx context.Context, event *database.SecurityEvent) error
}

// Mirror forwards formatted log lines to an operator-visible place
type Mirror interface {
	Send(ctx context.Context, line string) error
}

// EventLogger fans security events out to the log file, the event store and the mirror.
type EventLogger struct {
	log    *Logger
	store  EventStore
	mirror Mirror
	now    func() time.Time
}

// NewEventLogger builds an EventLogger. store and mirror may be nil.
func NewEventLogger(log *Logger, store EventStore, mirror Mirror) *EventLogger {
	return &EventLogger{
		log:    log,
		store:  store,
		mirror: mirror,
		now:    time.Now,
	}
}

// FormatEventLine renders the canonical single-line form of an event
func FormatEventLine(ts time.Time, eventType EventType, userID, details string) string {
	return fmt.Sprintf("%s - %s - User: %s - %s", ts.Format("2006-01-02 15:04:05"), eventType, userID, details)
}

func (el *EventLogger) Log(ctx context.Context, eventType EventType, userID, details string) {
	ts := el.now()
	id := uuid.NewString()

	el.log.WithFields(logrus.Fields{
		"event_id":   id,
		"event_type": string(eventType),
		"user_id":    userID,
	}).Info(details)

	if el.store != nil {
		err := el.store.LogEvent(ctx, &database.SecurityEvent{
			ID:        id,
			EventType: string(eventType),
			UserID:    userID,
			Details:   details,
			Timestamp: ts.Unix(),
		})
		if err != nil {
			el.log.Warn("Failed to store security event %s: %v", id, err)
		}
	}

	if el.mirror != nil {
		if err := el.mirror.Send(ctx, FormatEventLine(ts, eventType, userID, details)); err != nil {
			el.log.Warn("Failed to mirror security event %s: %v", id, err)
		}
	}
}
