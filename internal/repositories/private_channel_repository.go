package repositories

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
	"github.com/joejoe2/spring-chat-sub000/internal/models"
)

// IPrivateChannelRepository defines the interface for private channel data operations
type IPrivateChannelRepository interface {
	Create(ctx context.Context, channel *models.PrivateChannel) error
	FindByID(ctx context.Context, id string) (*models.PrivateChannel, error)
	FindByPairingKey(ctx context.Context, key string) (*models.PrivateChannel, error)
	FindByMember(ctx context.Context, userID string, since time.Time, page Page) (Slice[*models.PrivateChannel], error)
	Save(ctx context.Context, channel *models.PrivateChannel, msg *models.Message) error
}

// PrivateChannelRepository implements IPrivateChannelRepository interface
type PrivateChannelRepository struct {
	db *gorm.DB
}

// NewPrivateChannelRepository creates a new IPrivateChannelRepository instance
func NewPrivateChannelRepository(db *gorm.DB) IPrivateChannelRepository {
	return &PrivateChannelRepository{db: db}
}

func (r *PrivateChannelRepository) Create(ctx context.Context, channel *models.PrivateChannel) error {
	return translate(r.db.WithContext(ctx).Create(channel).Error)
}

func (r *PrivateChannelRepository) FindByID(ctx context.Context, id string) (*models.PrivateChannel, error) {
	var channel models.PrivateChannel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&channel).Error
	if err != nil {
		return nil, translate(err)
	}
	return &channel, nil
}

func (r *PrivateChannelRepository) FindByPairingKey(ctx context.Context, key string) (*models.PrivateChannel, error) {
	var channel models.PrivateChannel
	err := r.db.WithContext(ctx).Where("pairing_key = ?", key).First(&channel).Error
	if err != nil {
		return nil, translate(err)
	}
	return &channel, nil
}

// FindByMember pages the private channels userID belongs to, most recently
// updated first. Membership is matched by jsonb containment on the members
// column.
func (r *PrivateChannelRepository) FindByMember(ctx context.Context, userID string, since time.Time, page Page) (Slice[*models.PrivateChannel], error) {
	var channels []*models.PrivateChannel
	err := r.db.WithContext(ctx).Model(&models.PrivateChannel{}).
		Where("members @> ?", memberFilter(userID)).
		Scopes(sinceScope(since)).
		Order("updated_at DESC").
		Offset(page.offset()).
		Limit(page.limit() + 1).
		Find(&channels).Error
	if err != nil {
		return Slice[*models.PrivateChannel]{}, translate(err)
	}
	return sliceOf(channels, page.limit()), nil
}

// Save writes the channel back guarded by its version token and, when msg is
// non-nil, inserts the message the transition produced in the same
// transaction. A stale version yields chaterr.ErrVersionConflict and nothing
// is written.
func (r *PrivateChannelRepository) Save(ctx context.Context, channel *models.PrivateChannel, msg *models.Message) error {
	prev := channel.Version
	channel.Version = prev + 1
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(channel).
			Where("version = ?", prev).
			Select("members", "blocked", "last_message_id", "last_message_at", "version", "updated_at").
			Updates(channel)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return chaterr.ErrVersionConflict
		}
		if msg != nil {
			if err := tx.Create(msg).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		channel.Version = prev
		return translate(err)
	}
	return nil
}

// memberFilter renders the jsonb containment argument matching a member by
// user ID inside a members column.
func memberFilter(userID string) string {
	b, _ := json.Marshal([]map[string]string{{"id": userID}})
	return string(b)
}
