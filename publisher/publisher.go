package publisher

import (
	"encoding/json"

	"afusocial/events"
	"afusocial/metrics"
	"github.com/sirupsen/logrus"
)

// Conn is the transport the publisher writes to; *nats.Client satisfies it.
type Conn interface {
	Publish(subject string, data []byte) error
}

// EventPublisher publishes domain events after successful writes. Failures
// are logged and never returned to the caller. A nil conn disables publishing.
type EventPublisher struct {
	conn    Conn
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
}

func NewEventPublisher(conn Conn, m *metrics.Metrics, logger logrus.FieldLogger) *EventPublisher {
	return &EventPublisher{conn: conn, metrics: m, logger: logger}
}

// Enabled reports whether events leave the process.
func (p *EventPublisher) Enabled() bool {
	return p != nil && p.conn != nil
}

func (p *EventPublisher) PublishPostCreated(event events.PostCreatedEvent) {
	p.publish(events.SubjectPostCreated, event, logrus.Fields{"post_id": event.PostID})
}

func (p *EventPublisher) PublishPostLiked(event events.PostLikedEvent) {
	p.publish(events.SubjectPostLiked, event, logrus.Fields{"post_id": event.PostID})
}

func (p *EventPublisher) PublishPostCommented(event events.PostCommentedEvent) {
	p.publish(events.SubjectPostCommented, event, logrus.Fields{"post_id": event.PostID})
}

func (p *EventPublisher) PublishUserFollowed(event events.UserFollowedEvent) {
	p.publish(events.SubjectUserFollowed, event, logrus.Fields{"following_id": event.FollowingID})
}

func (p *EventPublisher) PublishMessageSent(event events.MessageSentEvent) {
	p.publish(events.SubjectMessageSent, event, logrus.Fields{"conversation_id": event.ConversationID})
}

func (p *EventPublisher) publish(subject string, event interface{}, fields logrus.Fields) {
	if !p.Enabled() {
		return
	}

	entry := p.logger.WithFields(fields).WithField("subject", subject)

	data, err := json.Marshal(event)
	if err != nil {
		entry.WithError(err).Error("failed to marshal event")
		p.metrics.RecordEvent(subject, err)
		return
	}

	err = p.conn.Publish(subject, data)
	p.metrics.RecordEvent(subject, err)
	if err != nil {
		entry.WithError(err).Error("failed to publish event")
		return
	}

	entry.Debug("published event")
}
