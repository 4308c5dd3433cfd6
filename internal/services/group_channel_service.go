package services

import (
	"context"
	"time"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
	"github.com/joejoe2/spring-chat-sub000/internal/models"
	"github.com/joejoe2/spring-chat-sub000/internal/repositories"
	"github.com/joejoe2/spring-chat-sub000/internal/subscriber"
	"github.com/joejoe2/spring-chat-sub000/utils/retry"
)

// GroupChannelService drives the group membership state machine. Every
// transition reloads the channel, applies the domain operation, and persists
// channel plus side-effect message under one version token; lost races are
// retried a bounded number of times before surfacing as transient failures.
type GroupChannelService struct {
	channelRepo repositories.IGroupChannelRepository
	userRepo    repositories.IUserRepository
	registry    *subscriber.Registry
	deliverer   *Deliverer
}

// NewGroupChannelService creates a new GroupChannelService instance
func NewGroupChannelService(channelRepo repositories.IGroupChannelRepository, userRepo repositories.IUserRepository, registry *subscriber.Registry, deliverer *Deliverer) *GroupChannelService {
	return &GroupChannelService{
		channelRepo: channelRepo,
		userRepo:    userRepo,
		registry:    registry,
		deliverer:   deliverer,
	}
}

// Create makes a group channel whose founder is the sole member and sole
// administrator.
func (s *GroupChannelService) Create(ctx context.Context, founder models.Member, name string) (*models.GroupChannel, error) {
	if name == "" || len(name) > 64 {
		return nil, chaterr.Validationf("channel name must be 1-64 characters")
	}
	channel := models.NewGroupChannel(name, founder)
	if err := s.channelRepo.Create(ctx, channel); err != nil {
		return nil, err
	}
	return channel, nil
}

// Invite adds a pending invitation for the named user.
func (s *GroupChannelService) Invite(ctx context.Context, inviter models.Member, channelID, inviteeUsername string) error {
	invitee, err := s.userRepo.FindByUsername(ctx, inviteeUsername)
	if err != nil {
		return err
	}
	return s.transition(ctx, channelID, func(c *models.GroupChannel) (*models.Message, error) {
		return c.Invite(inviter, invitee.Member())
	})
}

// AcceptInvitation turns the caller's pending invitation into membership.
func (s *GroupChannelService) AcceptInvitation(ctx context.Context, invitee models.Member, channelID string) error {
	return s.transition(ctx, channelID, func(c *models.GroupChannel) (*models.Message, error) {
		return c.AcceptInvitation(invitee)
	})
}

// KickOff removes the target from the channel.
func (s *GroupChannelService) KickOff(ctx context.Context, actor models.Member, channelID, targetID string) error {
	target, err := s.member(ctx, targetID)
	if err != nil {
		return err
	}
	return s.transition(ctx, channelID, func(c *models.GroupChannel) (*models.Message, error) {
		return c.KickOff(actor, target)
	})
}

// Leave removes the caller from the channel.
func (s *GroupChannelService) Leave(ctx context.Context, user models.Member, channelID string) error {
	return s.transition(ctx, channelID, func(c *models.GroupChannel) (*models.Message, error) {
		return c.Leave(user)
	})
}

// Ban marks the target banned. Membership is untouched.
func (s *GroupChannelService) Ban(ctx context.Context, actor models.Member, channelID, targetID string) error {
	target, err := s.member(ctx, targetID)
	if err != nil {
		return err
	}
	return s.transition(ctx, channelID, func(c *models.GroupChannel) (*models.Message, error) {
		return c.Ban(actor, target)
	})
}

// Unban lifts the target's ban.
func (s *GroupChannelService) Unban(ctx context.Context, actor models.Member, channelID, targetID string) error {
	target, err := s.member(ctx, targetID)
	if err != nil {
		return err
	}
	return s.transition(ctx, channelID, func(c *models.GroupChannel) (*models.Message, error) {
		return c.Unban(actor, target)
	})
}

// AddAdministrator promotes the target.
func (s *GroupChannelService) AddAdministrator(ctx context.Context, actor models.Member, channelID, targetID string) error {
	target, err := s.member(ctx, targetID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, channelID, func(c *models.GroupChannel) error {
		return c.AddAdministrator(actor, target)
	})
}

// RemoveAdministrator demotes the target.
func (s *GroupChannelService) RemoveAdministrator(ctx context.Context, actor models.Member, channelID, targetID string) error {
	target, err := s.member(ctx, targetID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, channelID, func(c *models.GroupChannel) error {
		return c.RemoveAdministrator(actor, target)
	})
}

// Profile returns the channel to one of its members.
func (s *GroupChannelService) Profile(ctx context.Context, userID, channelID string) (*models.GroupChannel, error) {
	channel, err := s.channelRepo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !channel.Members.Contains(userID) {
		return nil, chaterr.ErrNotMember
	}
	return channel, nil
}

// List pages the user's group channels updated since the given instant.
func (s *GroupChannelService) List(ctx context.Context, userID string, since time.Time, page repositories.Page) (repositories.Slice[*models.GroupChannel], error) {
	return s.channelRepo.FindByMember(ctx, userID, since, page)
}

// ListInvited pages the channels holding a pending invitation for the user.
func (s *GroupChannelService) ListInvited(ctx context.Context, userID string, page repositories.Page) (repositories.Slice[*models.GroupChannel], error) {
	return s.channelRepo.FindByInvited(ctx, userID, page)
}

// Subscribe attaches a live sink keyed by the user and greets it with the
// empty frame.
func (s *GroupChannelService) Subscribe(ctx context.Context, userID string, sink subscriber.Sink) error {
	if err := s.registry.Register(ctx, userID, sink); err != nil {
		return err
	}
	if err := sink.Send(subscriber.ConnectFrame()); err != nil {
		return err
	}
	return nil
}

// member resolves a user ID into its channel-document projection.
func (s *GroupChannelService) member(ctx context.Context, userID string) (models.Member, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return models.Member{}, err
	}
	return user.Member(), nil
}

// transition runs a message-producing state change and delivers the message
// once it is durable.
func (s *GroupChannelService) transition(ctx context.Context, channelID string, op func(*models.GroupChannel) (*models.Message, error)) error {
	var msg *models.Message
	var channel *models.GroupChannel
	err := retry.Do(saveAttempts, saveBackoff, chaterr.IsRetryable, func() error {
		var err error
		channel, err = s.channelRepo.FindByID(ctx, channelID)
		if err != nil {
			return err
		}
		msg, err = op(channel)
		if err != nil {
			return err
		}
		return s.channelRepo.Save(ctx, channel, msg)
	})
	if err != nil {
		return err
	}
	s.deliverer.Deliver(msg, groupAudience(channel, msg))
	return nil
}

// mutate runs a state change that produces no message.
func (s *GroupChannelService) mutate(ctx context.Context, channelID string, op func(*models.GroupChannel) error) error {
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
