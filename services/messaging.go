package services

import (
	"context"
	"strings"
	"time"

	"sevaconnect-backend/models"
)

// MessageStore persists booking chat messages.
type MessageStore interface {
	AppendMessage(ctx context.Context, m *models.ChatMessage) error
	ListMessages(ctx context.Context, bookingID string) ([]models.ChatMessage, error)
	CountMessages(ctx context.Context, bookingIDs []string) (map[string]int64, error)
}

// MessagingService is the per-booking chat ledger. Senders are not checked
// against the booking's participants.
type MessagingService struct {
	store MessageStore
	now   func() time.Time
}

func NewMessagingService(store MessageStore) *MessagingService {
	return &MessagingService{store: store, now: time.Now}
}

type MessageInput struct {
	BookingID  string `json:"bookingId"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
}

func (s *MessagingService) Send(ctx context.Context, in MessageInput) (*models.ChatMessage, error) {
	var missing []string
	if in.BookingID == "" {
		missing = append(missing, "bookingId")
	}
	if in.SenderID == "" {
		missing = append(missing, "senderId")
	}
	if strings.TrimSpace(in.SenderName) == "" {
		missing = append(missing, "senderName")
	}
	if strings.TrimSpace(in.Text) == "" {
		missing = append(missing, "text")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}

	m := &models.ChatMessage{
		BookingID:  in.BookingID,
		SenderID:   in.SenderID,
		SenderName: in.SenderName,
		Text:       in.Text,
		Timestamp:  s.now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, m); err != nil {
		return nil, storeError(err, "Message")
	}
	return m, nil
}

func (s *MessagingService) List(ctx context.Context, bookingID string) ([]models.ChatMessage, error) {
	msgs, err := s.store.ListMessages(ctx, bookingID)
	if err != nil {
		return nil, storeError(err, "Message")
	}
	return msgs, nil
}

// Counts returns a count for every requested booking, zero when it has no
// messages.
func (s *MessagingService) Counts(ctx context.Context, bookingIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(bookingIDs))
	ids := make([]string, 0, len(bookingIDs))
	for _, id := range bookingIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, seen := counts[id]; seen {
			continue
		}
		counts[id] = 0
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return counts, nil
	}

	found, err := s.store.CountMessages(ctx, ids)
	if err != nil {
		return nil, storeError(err, "Message")
	}
	for id, n := range found {
		if _, ok := counts[id]; ok {
			counts[id] = n
		}
	}
	return counts, nil
}
