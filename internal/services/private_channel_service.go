package services

import (
	"context"
	"errors"
	"time"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
	"github.com/joejoe2/spring-chat-sub000/internal/models"
	"github.com/joejoe2/spring-chat-sub000/internal/repositories"
	"github.com/joejoe2/spring-chat-sub000/internal/subscriber"
	"github.com/joejoe2/spring-chat-sub000/utils/retry"
)

// PrivateChannelService manages 1:1 conversations. Fanout is keyed by user,
// so one subscription covers every private channel a user is in.
type PrivateChannelService struct {
	channelRepo repositories.IPrivateChannelRepository
	userRepo    repositories.IUserRepository
	registry    *subscriber.Registry
}

// NewPrivateChannelService creates a new PrivateChannelService instance
func NewPrivateChannelService(channelRepo repositories.IPrivateChannelRepository, userRepo repositories.IUserRepository, registry *subscriber.Registry) *PrivateChannelService {
	return &PrivateChannelService{
		channelRepo: channelRepo,
		userRepo:    userRepo,
		registry:    registry,
	}
}

// CreateBetween opens the channel between requester and the named user. The
// pairing key's uniqueness guarantees at most one channel per pair even under
// concurrent creation: the loser of the race gets Conflict.
func (s *PrivateChannelService) CreateBetween(ctx context.Context, requester models.Member, targetUsername string) (*models.PrivateChannel, error) {
	target, err := s.userRepo.FindByUsername(ctx, targetUsername)
	if err != nil {
		return nil, err
	}
	channel, err := models.NewPrivateChannel(requester, target.Member())
	if err != nil {
		return nil, err
	}
	if err := s.channelRepo.Create(ctx, channel); err != nil {
		if errors.Is(err, chaterr.ErrConflict) {
			return nil, chaterr.Conflictf("channel with %s already exists", targetUsername)
		}
		return nil, err
	}
	return channel, nil
}

// Profile returns the channel to one of its members.
func (s *PrivateChannelService) Profile(ctx context.Context, userID, channelID string) (*models.PrivateChannel, error) {
	channel, err := s.channelRepo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !channel.Members.Contains(userID) {
		return nil, chaterr.ErrNotMember
	}
	return channel, nil
}

// List pages the user's private channels updated since the given instant.
func (s *PrivateChannelService) List(ctx context.Context, userID string, since time.Time, page repositories.Page) (repositories.Slice[*models.PrivateChannel], error) {
	return s.channelRepo.FindByMember(ctx, userID, since, page)
}

// Block stops message flow on the channel until userID unblocks it.
func (s *PrivateChannelService) Block(ctx context.Context, userID, channelID string) error {
	return s.mutate(ctx, channelID, func(c *models.PrivateChannel) error {
		return c.Block(userID)
	})
}

// Unblock lifts userID's block on the channel.
func (s *PrivateChannelService) Unblock(ctx context.Context, userID, channelID string) error {
	return s.mutate(ctx, channelID, func(c *models.PrivateChannel) error {
		return c.Unblock(userID)
	})
}

// mutate reloads, transforms and saves the channel under its version token,
// retrying lost races a bounded number of times.
func (s *PrivateChannelService) mutate(ctx context.Context, channelID string, op func(*models.PrivateChannel) error) error {
	return retry.Do(saveAttempts, saveBackoff, chaterr.IsRetryable, func() error {
		channel, err := s.channelRepo.FindByID(ctx, channelID)
		if err != nil {
			return err
		}
		if err := op(channel); err != nil {
			return err
		}
		return s.channelRepo.Save(ctx, channel, nil)
	})
}

// Subscribe attaches a live sink keyed by the user and greets it with the
// empty frame.
func (s *PrivateChannelService) Subscribe(ctx context.Context, userID string, sink subscriber.Sink) error {
	if err := s.registry.Register(ctx, userID, sink); err != nil {
		return err
	}
	if err := sink.Send(subscriber.ConnectFrame()); err != nil {
		return err
	}
	return nil
}
