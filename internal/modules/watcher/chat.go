// README: Chat message watcher; push only, the record already exists.
package watcher

import (
	"context"
	"fmt"

	"ridenotify/internal/modules/notification"
)

const notificationPattern = "notifications/{notificationId}"

type ChatMessage struct{ deps Deps }

func NewChatMessage(deps Deps) *ChatMessage { return &ChatMessage{deps: deps} }

func (w *ChatMessage) Name() string { return "chat_message" }

func (w *ChatMessage) Matches(c Change) bool {
	if _, ok := matchPath(notificationPattern, c.Path); !ok || c.Kind != KindCreate {
		return false
	}
	return notification.Type(c.After.Field("type")) == notification.TypeChatMessage
}

func (w *ChatMessage) Handle(ctx context.Context, c Change) error {
	recipientID := c.After.ID("recipientId")
	recipient, err := w.deps.Parties.User(ctx, recipientID)
	if err != nil {
		return fmt.Errorf("resolve recipient %s: %w", recipientID, err)
	}
	w.deps.notify(ctx, recipient, notification.Input{
		Type:       notification.TypeChatMessage,
		SenderName: c.After.Field("senderName"),
		SenderID:   c.After.ID("senderId"),
		ChatRoomID: c.After.Field("chatRoomId"),
		Title:      c.After.Field("title"),
		Body:       c.After.Field("body"),
	}, false)
	return nil
}
