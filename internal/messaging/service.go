package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/flightline-labs/discstash/internal/marketplace"
)

var (
	// ErrConversationNotFound indicates no conversation matches the id.
	ErrConversationNotFound = errors.New("messaging: conversation not found")
	// ErrNotParticipant indicates the user is neither buyer nor seller.
	ErrNotParticipant = errors.New("messaging: user is not a participant")
	// ErrOwnListing indicates a seller tried to open a conversation with themselves.
	ErrOwnListing = errors.New("messaging: cannot message own listing")
	// ErrEmptyMessage indicates a blank message body.
	ErrEmptyMessage = errors.New("messaging: message content is required")
)

// ServiceConfig describes the messaging service dependencies.
type ServiceConfig struct {
	Database   *gorm.DB
	Dispatcher *Dispatcher
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Service manages conversations and messages between buyers and sellers.
type Service struct {
	db         *gorm.DB
	dispatcher *Dispatcher
	now        func() time.Time
	logger     *zap.Logger
}

// NewService constructs the messaging service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("messaging: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := cfg.Dispatcher
	if dispatcher == nil {
		dispatcher = NewDispatcher()
	}
	return &Service{
		db:         cfg.Database,
		dispatcher: dispatcher,
		now:        clock,
		logger:     logger,
	}, nil
}

// Dispatcher exposes the realtime dispatcher for stream subscriptions.
func (s *Service) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// StartConversation opens (or returns the existing) conversation between the
// buyer and the listing's seller. Idempotent per (listing, buyer).
func (s *Service) StartConversation(ctx context.Context, buyerID, listingID string) (*Conversation, error) {
	var listing marketplace.Listing
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", listingID, true).
		First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, marketplace.ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	if listing.UserID == buyerID {
		return nil, ErrOwnListing
	}

	var existing Conversation
	err = s.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_id = ?", listingID, buyerID).
		First(&existing).Error
	if err == nil {
		return s.getConversation(ctx, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conversation := Conversation{
		ID:        uuid.NewString(),
		ListingID: listingID,
		BuyerID:   buyerID,
		SellerID:  listing.UserID,
		CreatedAt: s.now().UTC(),
		UpdatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&conversation).Error; err != nil {
		return nil, err
	}
	return s.getConversation(ctx, conversation.ID)
}

// ListConversations returns the user's conversations, most recent activity first.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	var conversations []Conversation
	err := s.db.WithContext(ctx).
		Preload("Listing.Disc.DiscModel.Manufacturer").
		Preload("Buyer").
		Preload("Seller").
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

// ListMessages returns the conversation's messages oldest first. Only
// participants may read them.
func (s *Service) ListMessages(ctx context.Context, conversationID, requesterID string) ([]Message, error) {
	if _, err := s.requireParticipant(ctx, conversationID, requesterID); err != nil {
		return nil, err
	}
	var messages []Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage appends a message to the conversation and notifies the
// receiver's realtime subscribers.
func (s *Service) SendMessage(ctx context.Context, conversationID, senderID, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	conversation, err := s.requireParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	receiverID := conversation.SellerID
	if senderID == conversation.SellerID {
		receiverID = conversation.BuyerID
	}

	now := s.now().UTC()
	message := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
		CreatedAt:      now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}
		return tx.Model(&Conversation{}).
			Where("id = ?", conversationID).
			Update("updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Publish(Event{
		UserID:         receiverID,
		EventType:      EventNewMessage,
		ConversationID: conversationID,
		MessageID:      message.ID,
		SenderID:       senderID,
		Timestamp:      now,
	})
	return &message, nil
}

// MarkRead marks every message addressed to the reader in the conversation as read.
func (s *Service) MarkRead(ctx context.Context, conversationID, readerID string) error {
	if _, err := s.requireParticipant(ctx, conversationID, readerID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND read = ?", conversationID, readerID, false).
		Update("read", true).Error
}

// UnreadCount returns the number of unread messages addressed to the user.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Message{}).
		Where("receiver_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Service) getConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	var conversation Conversation
	err := s.db.WithContext(ctx).
		Preload("Listing.Disc.DiscModel.Manufacturer").
		Preload("Buyer").
		Preload("Seller").
		Where("id = ?", conversationID).
		First(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (s *Service) requireParticipant(ctx context.Context, conversationID, userID string) (*Conversation, error) {
	var conversation Conversation
	err := s.db.WithContext(ctx).Where("id = ?", conversationID).First(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	if conversation.BuyerID != userID && conversation.SellerID != userID {
		return nil, ErrNotParticipant
	}
	return &conversation, nil
}
