// Package subscriber turns social events into stored notifications and
// pushes them, together with new messages, to connected clients.
package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"afusocial/events"
	"afusocial/model"
	natsClient "afusocial/nats"
	"afusocial/realtime"
	"afusocial/repository"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	streamName = "EVENTS"
	queueGroup = "notification-workers"

	handleTimeout = 10 * time.Second
)

// notificationNamespace scopes the name-based ids derived from events.
var notificationNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("afusocial.notifications"))

// Notifier delivers frames to a user's live connections.
type Notifier interface {
	SendToUser(userID string, frame realtime.Frame) int
}

type NotificationSubscriber struct {
	natsClient *natsClient.Client
	repo       repository.NotificationRepository
	notifier   Notifier
	logger     logrus.FieldLogger
	subs       []*nats.Subscription
}

func NewNotificationSubscriber(
	client *natsClient.Client,
	repo repository.NotificationRepository,
	notifier Notifier,
	logger logrus.FieldLogger,
) *NotificationSubscriber {
	return &NotificationSubscriber{
		natsClient: client,
		repo:       repo,
		notifier:   notifier,
		logger:     logger,
	}
}

func (s *NotificationSubscriber) Start() error {
	if err := s.natsClient.EnsureStream(streamName, events.Subjects); err != nil {
		return err
	}

	handlers := []struct {
		subject string
		durable string
		handle  func(context.Context, []byte) error
	}{
		{events.SubjectPostLiked, "notifications-likes", s.handleLike},
		{events.SubjectPostCommented, "notifications-comments", s.handleComment},
		{events.SubjectUserFollowed, "notifications-follows", s.handleFollow},
		{events.SubjectMessageSent, "notifications-messages", s.handleMessage},
	}

	for _, h := range handlers {
		sub, err := s.natsClient.SubscribeDurable(h.subject, h.durable, queueGroup, s.wrap(h.subject, h.handle))
		if err != nil {
			return err
		}
		s.subs = append(s.subs, sub)
	}

	s.logger.Info("notification subscriber started")
	return nil
}

func (s *NotificationSubscriber) Stop() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.WithError(err).Warn("failed to unsubscribe")
		}
	}
	s.subs = nil
}

func (s *NotificationSubscriber) wrap(subject string, handle func(context.Context, []byte) error) nats.MsgHandler {
	return func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		defer cancel()

		if err := handle(ctx, msg.Data); err != nil {
			s.logger.WithError(err).WithField("subject", subject).Error("failed to handle event")
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}
}

func (s *NotificationSubscriber) handleLike(ctx context.Context, data []byte) error {
	var event events.PostLikedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to decode like event: %w", err)
	}
	if event.PostOwner == "" || event.PostOwner == event.LikedBy {
		return nil
	}

	return s.notify(ctx, &models.Notification{
		ID:        notificationID(events.SubjectPostLiked, strconv.FormatInt(event.PostID, 10), event.LikedBy, stamp(event.Timestamp)),
		UserID:    event.PostOwner,
		Type:      models.NotificationTypeLike,
		Message:   "liked your post",
		ActorID:   &event.LikedBy,
		RelatedID: &event.PostID,
		CreatedAt: event.Timestamp,
	})
}

func (s *NotificationSubscriber) handleComment(ctx context.Context, data []byte) error {
	var event events.PostCommentedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to decode comment event: %w", err)
	}
	if event.PostOwner == "" || event.PostOwner == event.CommentedBy {
		return nil
	}

	return s.notify(ctx, &models.Notification{
		ID:        notificationID(events.SubjectPostCommented, strconv.FormatInt(event.CommentID, 10)),
		UserID:    event.PostOwner,
		Type:      models.NotificationTypeComment,
		Message:   "commented on your post",
		ActorID:   &event.CommentedBy,
		RelatedID: &event.PostID,
		CreatedAt: event.Timestamp,
	})
}

func (s *NotificationSubscriber) handleFollow(ctx context.Context, data []byte) error {
	var event events.UserFollowedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to decode follow event: %w", err)
	}
	if event.FollowerID == event.FollowingID {
		return nil
	}

	return s.notify(ctx, &models.Notification{
		ID:        notificationID(events.SubjectUserFollowed, event.FollowerID, event.FollowingID, stamp(event.Timestamp)),
		UserID:    event.FollowingID,
		Type:      models.NotificationTypeFollow,
		Message:   "started following you",
		ActorID:   &event.FollowerID,
		CreatedAt: event.Timestamp,
	})
}

// handleMessage records one notification per recipient and pushes the
// message alongside it. The sender is never a recipient. Recipients already
// notified by an earlier delivery of the same event are skipped.
func (s *NotificationSubscriber) handleMessage(ctx context.Context, data []byte) error {
	var event events.MessageSentEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to decode message event: %w", err)
	}

	message := models.Message{
		ID:             event.MessageID,
		ConversationID: event.ConversationID,
		SenderID:       event.SenderID,
		Content:        event.Content,
		MessageType:    event.MessageType,
		CreatedAt:      event.Timestamp,
	}
	messageID := strconv.FormatInt(event.MessageID, 10)

	for _, recipient := range event.Recipients {
		if recipient == event.SenderID {
			continue
		}

		notification := &models.Notification{
			ID:        notificationID(events.SubjectMessageSent, messageID, recipient),
			UserID:    recipient,
			Type:      models.NotificationTypeMessage,
			Message:   "sent you a message",
			ActorID:   &event.SenderID,
			RelatedID: &event.ConversationID,
			CreatedAt: event.Timestamp,
		}
		created, err := s.store(ctx, notification)
		if err != nil {
			return err
		}
		if !created {
			continue
		}

		s.push(recipient, realtime.Frame{Type: realtime.FrameMessage, Payload: message})
		s.push(recipient, realtime.Frame{Type: realtime.FrameNotification, Payload: notification})
	}

	return nil
}

// notify stores the notification and pushes it when it is new.
func (s *NotificationSubscriber) notify(ctx context.Context, notification *models.Notification) error {
	created, err := s.store(ctx, notification)
	if err != nil || !created {
		return err
	}

	s.push(notification.UserID, realtime.Frame{Type: realtime.FrameNotification, Payload: notification})
	return nil
}

func (s *NotificationSubscriber) store(ctx context.Context, notification *models.Notification) (bool, error) {
	created, err := s.repo.Create(ctx, notification)
	if err != nil {
		return false, err
	}

	entry := s.logger.WithFields(logrus.Fields{
		"user_id": notification.UserID,
		"type":    notification.Type,
	})
	if !created {
		entry.Debug("notification already recorded")
		return false, nil
	}
	entry.Debug("notification created")
	return true, nil
}

func (s *NotificationSubscriber) push(userID string, frame realtime.Frame) {
	if s.notifier == nil {
		return
	}
	s.notifier.SendToUser(userID, frame)
}

// notificationID derives a stable id from the event that caused the
// notification, so a redelivered event maps onto the row it already wrote.
func notificationID(subject string, parts ...string) uuid.UUID {
	return uuid.NewSHA1(notificationNamespace, []byte(subject+"|"+strings.Join(parts, "|")))
}

func stamp(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}
