package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
)

// PrivateChannel is a 1:1 conversation. PairingKey is the canonical,
// order-independent identifier of the member pair and is unique across all
// private channels, so at most one channel exists per unordered pair.
type PrivateChannel struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	PairingKey    string    `gorm:"uniqueIndex;size:80;not null" json:"-"`
	Members       MemberSet `gorm:"serializer:json;type:jsonb;not null" json:"members"`
	Blocked       []string  `gorm:"serializer:json;type:jsonb" json:"-"`
	LastMessageID int64     `json:"last_message_id"`
	LastMessageAt time.Time `json:"last_message_at"`
	Version       int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`
}

func (PrivateChannel) TableName() string {
	return "private_channels"
}

// PairingKeyOf derives the canonical pairing key for two user IDs. The key
// is identical whichever order the IDs arrive in.
func PairingKeyOf(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

func NewPrivateChannel(requester, target Member) (*PrivateChannel, error) {
	if requester.ID == target.ID {
		return nil, chaterr.ErrActOnSelf
	}
	return &PrivateChannel{
		ID:         uuid.New().String(),
		PairingKey: PairingKeyOf(requester.ID, target.ID),
		Members:    MemberSet{requester, target},
	}, nil
}

// Other returns the pairing member opposite to userID.
func (c *PrivateChannel) Other(userID string) (Member, error) {
	if !c.Members.Contains(userID) {
		return Member{}, chaterr.ErrNotMember
	}
	for _, m := range c.Members {
		if m.ID != userID {
			return m, nil
		}
	}
	return Member{}, chaterr.ErrNotMember
}

func (c *PrivateChannel) isBlockedBy(userID string) bool {
	for _, id := range c.Blocked {
		if id == userID {
			return true
		}
	}
	return false
}

// IsBlocked reports whether either member has blocked the channel.
func (c *PrivateChannel) IsBlocked() bool {
	return len(c.Blocked) > 0
}

// Block sets the block flag of userID on the channel.
func (c *PrivateChannel) Block(userID string) error {
	if !c.Members.Contains(userID) {
		return chaterr.ErrNotMember
	}
	if !c.isBlockedBy(userID) {
		c.Blocked = append(c.Blocked, userID)
	}
	return nil
}

// Unblock clears the block flag of userID.
func (c *PrivateChannel) Unblock(userID string) error {
	if !c.Members.Contains(userID) {
		return chaterr.ErrNotMember
	}
	for i, id := range c.Blocked {
		if id == userID {
			c.Blocked = append(c.Blocked[:i], c.Blocked[i+1:]...)
			break
		}
	}
	return nil
}

// AddMessage builds a plain message from sender to the other pairing member
// and moves the last-message pointer. Blocked channels reject new messages.
func (c *PrivateChannel) AddMessage(sender Member, text string) (*Message, error) {
	other, err := c.Other(sender.ID)
	if err != nil {
		return nil, err
	}
	if c.IsBlocked() {
		return nil, chaterr.ErrBlocked
	}
	msg, err := newChannelMessage(ChannelPrivate, c.ID, MessageTypeMessage, sender, text)
	if err != nil {
		return nil, err
	}
	msg.RecipientID = other.ID
	c.touchLastMessage(msg)
	return msg, nil
}

func (c *PrivateChannel) touchLastMessage(msg *Message) {
	c.LastMessageID = msg.ID
	c.LastMessageAt = msg.UpdatedAt
}
