package services

import (
	"context"
	"time"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
	"github.com/joejoe2/spring-chat-sub000/internal/models"
	"github.com/joejoe2/spring-chat-sub000/internal/repositories"
	"github.com/joejoe2/spring-chat-sub000/internal/subscriber"
)

// PublicChannelService manages open rooms. Anyone with a verified identity
// may read, post, and subscribe.
type PublicChannelService struct {
	channelRepo repositories.IPublicChannelRepository
	registry    *subscriber.Registry
}

// NewPublicChannelService creates a new PublicChannelService instance
func NewPublicChannelService(channelRepo repositories.IPublicChannelRepository, registry *subscriber.Registry) *PublicChannelService {
	return &PublicChannelService{
		channelRepo: channelRepo,
		registry:    registry,
	}
}

// Create makes a public channel with a unique name.
func (s *PublicChannelService) Create(ctx context.Context, name string) (*models.PublicChannel, error) {
	if name == "" || len(name) > 64 {
		return nil, chaterr.Validationf("channel name must be 1-64 characters")
	}
	channel := models.NewPublicChannel(name)
	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return nil, err
	}
	return channel, nil
}

func (s *PublicChannelService) Profile(ctx context.Context, channelID string) (*models.PublicChannel, error) {
	return s.channelRepo.FindByID(ctx, channelID)
}

// List pages channels updated since the given instant, newest first.
func (s *PublicChannelService) List(ctx context.Context, since time.Time, page repositories.Page) (repositories.Slice[*models.PublicChannel], error) {
	return s.channelRepo.List(ctx, since, page)
}

// Subscribe attaches a live sink to the channel and greets it with the empty
// frame. The sink's finish hook detaches it again.
func (s *PublicChannelService) Subscribe(ctx context.Context, channelID string, sink subscriber.Sink) error {
	if _, err := s.channelRepo.FindByID(ctx, channelID); err != nil {
		return err
	}
	if err := s.registry.Register(ctx, channelID, sink); err != nil {
		return err
	}
	if err := sink.Send(subscriber.ConnectFrame()); err != nil {
		return err
	}
	return nil
}
