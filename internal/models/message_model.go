package models

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/joejoe2/spring-chat-sub000/utils/snowflake"
)

type ChannelKind string

const (
	ChannelPublic  ChannelKind = "public"
	ChannelPrivate ChannelKind = "private"
	ChannelGroup   ChannelKind = "group"
)

type MessageType string

const (
	MessageTypeMessage    MessageType = "MESSAGE"
	MessageTypeInvitation MessageType = "INVITATION"
	MessageTypeJoin       MessageType = "JOIN"
	MessageTypeLeave      MessageType = "LEAVE"
	MessageTypeBan        MessageType = "BAN"
	MessageTypeUnban      MessageType = "UNBAN"
)

// Message is one row of durable channel history. All three channel kinds
// share the shape; RecipientID is set for private messages only. Rows are
// immutable after creation; UpdatedAt is the catch-up cursor and only moves
// through the owning channel's coordinated write.
type Message struct {
	ID          int64       `gorm:"primaryKey" json:"id"`
	ChannelKind ChannelKind `gorm:"size:16;not null;index:idx_messages_channel" json:"channel_kind"`
	ChannelID   string      `gorm:"size:36;not null;index:idx_messages_channel" json:"channel_id"`
	Type        MessageType `gorm:"size:16;not null" json:"type"`
	SenderID    string      `gorm:"size:36;not null;index" json:"sender_id"`
	SenderName  string      `gorm:"size:64;not null" json:"sender_name"`
	RecipientID string      `gorm:"size:36" json:"recipient_id,omitempty"`
	Content     string      `gorm:"not null" json:"content"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `gorm:"index" json:"updated_at"`
}

func (Message) TableName() string {
	return "messages"
}

var (
	idGen     *snowflake.Generator
	idGenOnce sync.Once
	idGenErr  error
)

// InitMessageIDGenerator fixes the snowflake worker ID for this process.
// Without an explicit call the first allocated message falls back to worker 0.
func InitMessageIDGenerator(workerID int64) error {
	idGenOnce.Do(func() {
		idGen, idGenErr = snowflake.NewGenerator(workerID)
	})
	return idGenErr
}

func nextMessageID() (int64, error) {
	idGenOnce.Do(func() {
		idGen, idGenErr = snowflake.NewGenerator(0)
	})
	if idGenErr != nil {
		return 0, idGenErr
	}
	return idGen.NextID()
}

func newChannelMessage(kind ChannelKind, channelID string, typ MessageType, sender Member, content string) (*Message, error) {
	id, err := nextMessageID()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate message id: %w", err)
	}
	now := time.Now()
	return &Message{
		ID:          id,
		ChannelKind: kind,
		ChannelID:   channelID,
		Type:        typ,
		SenderID:    sender.ID,
		SenderName:  sender.Username,
		Content:     content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// memberContent renders the affected member as the content of a non-plain
// message, e.g. {"id":"...","username":"..."}.
func memberContent(m Member) string {
	b, _ := json.Marshal(m)
	return string(b)
}

// AffectedMember decodes the member a system message is about. Plain MESSAGE
// rows have free text content and return false.
func (m *Message) AffectedMember() (Member, bool) {
	if m.Type == MessageTypeMessage {
		return Member{}, false
	}
	var member Member
	if err := json.Unmarshal([]byte(m.Content), &member); err != nil {
		return Member{}, false
	}
	return member, true
}
