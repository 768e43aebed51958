package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/kubi-stream/kubi-auth/ports"
)

const (
	loginTopic  = "kubi.auth.login"
	logoutTopic = "kubi.auth.logout"
)

// LoginEvent is published when a wallet login succeeds
type LoginEvent struct {
	UserID  string `json:"user_id"`
	Address string `json:"address"`
}

// LogoutEvent is published when a session is explicitly destroyed
type LogoutEvent struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, userID string, address string) error {
	return p.publish(loginTopic, LoginEvent{UserID: userID, Address: address})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, userID string, sessionID string) error {
	return p.publish(logoutTopic, LogoutEvent{UserID: userID, SessionID: sessionID})
}

func (p *WatermillPublisher) publish(topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
