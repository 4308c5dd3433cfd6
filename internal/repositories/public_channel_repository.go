package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/joejoe2/spring-chat-sub000/internal/models"
)

// IPublicChannelRepository defines the interface for public channel data operations
type IPublicChannelRepository interface {
	Create(ctx context.Context, channel *models.PublicChannel) error
	FindByID(ctx context.Context, id string) (*models.PublicChannel, error)
	FindByName(ctx context.Context, name string) (*models.PublicChannel, error)
	List(ctx context.Context, since time.Time, page Page) (Slice[*models.PublicChannel], error)
}

// PublicChannelRepository implements IPublicChannelRepository interface
type PublicChannelRepository struct {
	db *gorm.DB
}

// NewPublicChannelRepository creates a new IPublicChannelRepository instance
func NewPublicChannelRepository(db *gorm.DB) IPublicChannelRepository {
	return &PublicChannelRepository{db: db}
}

func (r *PublicChannelRepository) Create(ctx context.Context, channel *models.PublicChannel) error {
	return translate(r.db.WithContext(ctx).Create(channel).Error)
}

func (r *PublicChannelRepository) FindByID(ctx context.Context, id string) (*models.PublicChannel, error) {
	var channel models.PublicChannel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&channel).Error
	if err != nil {
		return nil, translate(err)
	}
	return &channel, nil
}

func (r *PublicChannelRepository) FindByName(ctx context.Context, name string) (*models.PublicChannel, error) {
	var channel models.PublicChannel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&channel).Error
	if err != nil {
		return nil, translate(err)
	}
	return &channel, nil
}

// List pages public channels updated since the given instant, newest first.
func (r *PublicChannelRepository) List(ctx context.Context, since time.Time, page Page) (Slice[*models.PublicChannel], error) {
	var channels []*models.PublicChannel
	err := r.db.WithContext(ctx).Model(&models.PublicChannel{}).
		Scopes(sinceScope(since)).
		Order("updated_at DESC").
		Offset(page.offset()).
		Limit(page.limit() + 1).
		Find(&channels).Error
	if err != nil {
		return Slice[*models.PublicChannel]{}, translate(err)
	}
	return sliceOf(channels, page.limit()), nil
}
