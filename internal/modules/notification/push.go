// README: FCM push transport.
package notification

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

var ErrNoToken = errors.New("empty device token")

// FCMPusher sends composed messages through Firebase Cloud Messaging.
type FCMPusher struct {
	client *messaging.Client
}

func NewFCMPusher(client *messaging.Client) *FCMPusher {
	return &FCMPusher{client: client}
}

func (p *FCMPusher) Push(ctx context.Context, token string, m Message) (string, error) {
	if token == "" {
		return "", ErrNoToken
	}
	id, err := p.client.Send(ctx, BuildFCMMessage(token, m))
	if err != nil {
		return "", fmt.Errorf("sending FCM %s: %w", m.Type, err)
	}
	return id, nil
}

// BuildFCMMessage adds the urgent delivery hints every send carries: high
// Android priority and the default APNs alert sound.
func BuildFCMMessage(token string, m Message) *messaging.Message {
	data := make(map[string]string, len(m.Data))
	for k, v := range m.Data {
		data[k] = v
	}
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: m.Title,
			Body:  m.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}
