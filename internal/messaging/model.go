package messaging

import (
	"time"

	"github.com/flightline-labs/discstash/internal/marketplace"
	"github.com/flightline-labs/discstash/internal/profiles"
)

// Conversation is the message thread between a buyer and the seller of one
// listing. At most one conversation exists per (listing, buyer).
type Conversation struct {
	ID        string              `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	ListingID string              `gorm:"column:listing_id;size:190;index:idx_conversation_listing_buyer,unique;not null" json:"listing_id"`
	BuyerID   string              `gorm:"column:buyer_id;size:190;index:idx_conversation_listing_buyer,unique;not null" json:"buyer_id"`
	SellerID  string              `gorm:"column:seller_id;size:190;index;not null" json:"seller_id"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	Listing   marketplace.Listing `gorm:"foreignKey:ListingID" json:"listing"`
	Buyer     profiles.Profile    `gorm:"foreignKey:BuyerID" json:"buyer"`
	Seller    profiles.Profile    `gorm:"foreignKey:SellerID" json:"seller"`
}

// TableName exposes the table backing conversations.
func (Conversation) TableName() string {
	return "conversations"
}

// Message is a single message within a conversation.
type Message struct {
	ID             string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	ConversationID string    `gorm:"column:conversation_id;size:190;index;not null" json:"conversation_id"`
	SenderID       string    `gorm:"column:sender_id;size:190;not null" json:"sender_id"`
	ReceiverID     string    `gorm:"column:receiver_id;size:190;index;not null" json:"receiver_id"`
	Content        string    `gorm:"column:content;size:4000;not null" json:"content"`
	Read           bool      `gorm:"column:read;not null;default:false" json:"read"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName exposes the table backing messages.
func (Message) TableName() string {
	return "messages"
}
