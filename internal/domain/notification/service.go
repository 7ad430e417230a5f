package notification

import (
	"context"
	"log"
	"strconv"

	"poupa/internal/shared/messages"
)

// Service contains the business logic for notification operations
type Service struct {
	repo      Repository
	messenger Messenger
	texts     *messages.Messages
}

// NewService creates a new notification service. messenger may be nil, in
// which case pushes are logged and dropped.
func NewService(repo Repository, messenger Messenger, texts *messages.Messages) *Service {
	if texts == nil {
		texts = messages.Default()
	}
	return &Service{repo: repo, messenger: messenger, texts: texts}
}

// RegisterDevice registers a device token for the authenticated user.
// If the token already belongs to another user, it is reassigned.
func (s *Service) RegisterDevice(ctx context.Context, params CreateDeviceTokenParams) (*DeviceToken, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return s.repo.UpsertDeviceToken(ctx, params)
}

// DeactivateToken marks a token the push provider rejected as inactive.
func (s *Service) DeactivateToken(ctx context.Context, token string) error {
	return s.repo.DeactivateToken(ctx, token)
}

// NotifyNewTransactions tells the user that count transactions were imported
// from institution. A non-positive count sends nothing.
func (s *Service) NotifyNewTransactions(ctx context.Context, userID int64, institution string, count int) error {
	if count <= 0 {
		return nil
	}

	text := s.texts.NewTransactions.Render(map[string]string{
		"count":       strconv.Itoa(count),
		"institution": institution,
	})

	return s.sendToUser(ctx, userID, Message{
		Title: text.Title,
		Body:  text.Body,
		Data: map[string]string{
			"route": RouteTransactions,
			"count": strconv.Itoa(count),
		},
	})
}

func (s *Service) sendToUser(ctx context.Context, userID int64, msg Message) error {
	tokens, err := s.repo.GetActiveTokensByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if len(tokens) == 0 {
		log.Printf("No active device tokens for user %d", userID)
		return nil
	}

	if s.messenger == nil {
		log.Printf("User %d: push skipped, messenger not configured: %s", userID, msg.Title)
		return nil
	}

	tokenStrings := make([]string, len(tokens))
	for i, t := range tokens {
		tokenStrings[i] = t.Token
	}

	return s.messenger.SendMulticast(ctx, tokenStrings, msg)
}
