package models

import (
	"time"

	"github.com/google/uuid"
)

// PublicChannel is an open room keyed by a unique name. Creation is
// idempotent through the name uniqueness; channels are never deleted.
type PublicChannel struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Version   int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (PublicChannel) TableName() string {
	return "public_channels"
}

func NewPublicChannel(name string) *PublicChannel {
	return &PublicChannel{
		ID:   uuid.New().String(),
		Name: name,
	}
}

// AddMessage builds a plain message on the channel. Public channels have no
// membership; any verified identity may post.
func (c *PublicChannel) AddMessage(sender Member, text string) (*Message, error) {
	return newChannelMessage(ChannelPublic, c.ID, MessageTypeMessage, sender, text)
}
