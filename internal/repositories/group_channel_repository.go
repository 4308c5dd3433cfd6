package repositories

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
	"github.com/joejoe2/spring-chat-sub000/internal/models"
)

// IGroupChannelRepository defines the interface for group channel data operations
type IGroupChannelRepository interface {
	Create(ctx context.Context, channel *models.GroupChannel) error
	FindByID(ctx context.Context, id string) (*models.GroupChannel, error)
	FindByMember(ctx context.Context, userID string, since time.Time, page Page) (Slice[*models.GroupChannel], error)
	FindByInvited(ctx context.Context, userID string, page Page) (Slice[*models.GroupChannel], error)
	Save(ctx context.Context, channel *models.GroupChannel, msg *models.Message) error
}

// GroupChannelRepository implements IGroupChannelRepository interface
type GroupChannelRepository struct {
	db *gorm.DB
}

// NewGroupChannelRepository creates a new IGroupChannelRepository instance
func NewGroupChannelRepository(db *gorm.DB) IGroupChannelRepository {
	return &GroupChannelRepository{db: db}
}

func (r *GroupChannelRepository) Create(ctx context.Context, channel *models.GroupChannel) error {
	return translate(r.db.WithContext(ctx).Create(channel).Error)
}

func (r *GroupChannelRepository) FindByID(ctx context.Context, id string) (*models.GroupChannel, error) {
	var channel models.GroupChannel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&channel).Error
	if err != nil {
		return nil, translate(err)
	}
	return &channel, nil
}

// FindByMember pages the group channels userID belongs to, most recently
// updated first.
func (r *GroupChannelRepository) FindByMember(ctx context.Context, userID string, since time.Time, page Page) (Slice[*models.GroupChannel], error) {
	var channels []*models.GroupChannel
	err := r.db.WithContext(ctx).Model(&models.GroupChannel{}).
		Where("members @> ?", memberFilter(userID)).
		Scopes(sinceScope(since)).
		Order("updated_at DESC").
		Offset(page.offset()).
		Limit(page.limit() + 1).
		Find(&channels).Error
	if err != nil {
		return Slice[*models.GroupChannel]{}, translate(err)
	}
	return sliceOf(channels, page.limit()), nil
}

// FindByInvited pages the group channels holding a pending invitation for
// userID.
func (r *GroupChannelRepository) FindByInvited(ctx context.Context, userID string, page Page) (Slice[*models.GroupChannel], error) {
	var channels []*models.GroupChannel
	err := r.db.WithContext(ctx).Model(&models.GroupChannel{}).
		Where("invitations @> ?", invitationFilter(userID)).
		Order("updated_at DESC").
		Offset(page.offset()).
		Limit(page.limit() + 1).
		Find(&channels).Error
	if err != nil {
		return Slice[*models.GroupChannel]{}, translate(err)
	}
	return sliceOf(channels, page.limit()), nil
}

// Save writes the channel back guarded by its version token and, when msg is
// non-nil, inserts the message the transition produced in the same
// transaction. A stale version yields chaterr.ErrVersionConflict and nothing
// is written.
func (r *GroupChannelRepository) Save(ctx context.Context, channel *models.GroupChannel, msg *models.Message) error {
	prev := channel.Version
	channel.Version = prev + 1
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(channel).
			Where("version = ?", prev).
			Select("name", "members", "administrators", "banned", "invitations",
				"last_message_id", "last_message_at", "version", "updated_at").
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

// invitationFilter renders the jsonb containment argument matching a pending
// invitation by user ID.
func invitationFilter(userID string) string {
	b, _ := json.Marshal([]map[string]string{{"user_id": userID}})
	return string(b)
}
