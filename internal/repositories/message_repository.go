package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/joejoe2/spring-chat-sub000/internal/models"
)

// IMessageRepository defines the interface for message data operations
type IMessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	FindByID(ctx context.Context, id int64) (*models.Message, error)
	FindByChannel(ctx context.Context, kind models.ChannelKind, channelID string, since time.Time, page Page) (Slice[*models.Message], error)
	FindBySender(ctx context.Context, senderID string, since time.Time, page Page) (Slice[*models.Message], error)
}

// MessageRepository implements IMessageRepository interface
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new IMessageRepository instance
func NewMessageRepository(db *gorm.DB) IMessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	return translate(r.db.WithContext(ctx).Create(msg).Error)
}

func (r *MessageRepository) FindByID(ctx context.Context, id int64) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

// FindByChannel pages a channel's history, newest first. The since filter
// keys on updated_at (inclusive) so clients polling for changes also pick
// up rows touched after creation.
func (r *MessageRepository) FindByChannel(ctx context.Context, kind models.ChannelKind, channelID string, since time.Time, page Page) (Slice[*models.Message], error) {
	var msgs []*models.Message
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("channel_kind = ? AND channel_id = ?", kind, channelID).
		Scopes(sinceScope(since)).
		Order("updated_at DESC").
		Offset(page.offset()).
		Limit(page.limit() + 1).
		Find(&msgs).Error
	if err != nil {
		return Slice[*models.Message]{}, translate(err)
	}
	return sliceOf(msgs, page.limit()), nil
}

// FindBySender pages the messages a user sent across all channels, newest
// first.
func (r *MessageRepository) FindBySender(ctx context.Context, senderID string, since time.Time, page Page) (Slice[*models.Message], error) {
	var msgs []*models.Message
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ?", senderID).
		Scopes(sinceScope(since)).
		Order("updated_at DESC").
		Offset(page.offset()).
		Limit(page.limit() + 1).
		Find(&msgs).Error
	if err != nil {
		return Slice[*models.Message]{}, translate(err)
	}
	return sliceOf(msgs, page.limit()), nil
}
