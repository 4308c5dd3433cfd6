package services

import (
	"context"
	"strings"
	"time"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
	"github.com/joejoe2/spring-chat-sub000/internal/models"
	"github.com/joejoe2/spring-chat-sub000/internal/repositories"
	"github.com/joejoe2/spring-chat-sub000/utils/retry"
)

const (
	// maxMessageLen bounds the text of one message.
	maxMessageLen = 4096

	// saveAttempts and saveBackoff bound the optimistic-save retry loop
	// every mutating service shares.
	saveAttempts = 3
	saveBackoff  = 50 * time.Millisecond
)

// MessageService runs the create→persist→deliver pipeline. A message is
// durable before the call returns; fanout to live subscribers follows
// asynchronously and is never the caller's problem.
type MessageService struct {
	messageRepo repositories.IMessageRepository
	publicRepo  repositories.IPublicChannelRepository
	privateRepo repositories.IPrivateChannelRepository
	groupRepo   repositories.IGroupChannelRepository
	deliverer   *Deliverer
}

// NewMessageService creates a new MessageService instance
func NewMessageService(
	messageRepo repositories.IMessageRepository,
	publicRepo repositories.IPublicChannelRepository,
	privateRepo repositories.IPrivateChannelRepository,
	groupRepo repositories.IGroupChannelRepository,
	deliverer *Deliverer,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		publicRepo:  publicRepo,
		privateRepo: privateRepo,
		groupRepo:   groupRepo,
		deliverer:   deliverer,
	}
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return chaterr.Validationf("message must not be blank")
	}
	if len(text) > maxMessageLen {
		return chaterr.Validationf("message exceeds %d characters", maxMessageLen)
	}
	return nil
}

// CreatePublicMessage posts to an open room. Public channels hold no
// version-guarded state, so the message row is the only write.
func (s *MessageService) CreatePublicMessage(ctx context.Context, sender models.Member, channelID, text string) (*models.Message, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	channel, err := s.publicRepo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	msg, err := channel.AddMessage(sender, text)
	if err != nil {
		return nil, err
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	s.deliverer.Deliver(msg, publicAudience(channel.ID))
	return msg, nil
}

// CreatePrivateMessage posts into a 1:1 conversation. The message and the
// channel's last-message pointer commit together under the version token.
func (s *MessageService) CreatePrivateMessage(ctx context.Context, sender models.Member, channelID, text string) (*models.Message, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	var msg *models.Message
	var channel *models.PrivateChannel
	err := retry.Do(saveAttempts, saveBackoff, chaterr.IsRetryable, func() error {
		var err error
		channel, err = s.privateRepo.FindByID(ctx, channelID)
		if err != nil {
			return err
		}
		msg, err = channel.AddMessage(sender, text)
		if err != nil {
			return err
		}
		return s.privateRepo.Save(ctx, channel, msg)
	})
	if err != nil {
		return nil, err
	}
	s.deliverer.Deliver(msg, privateAudience(channel))
	return msg, nil
}

// CreateGroupMessage posts into a group channel.
func (s *MessageService) CreateGroupMessage(ctx context.Context, sender models.Member, channelID, text string) (*models.Message, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	var msg *models.Message
	var channel *models.GroupChannel
	err := retry.Do(saveAttempts, saveBackoff, chaterr.IsRetryable, func() error {
		var err error
		channel, err = s.groupRepo.FindByID(ctx, channelID)
		if err != nil {
			return err
		}
		msg, err = channel.AddMessage(sender, text)
		if err != nil {
			return err
		}
		return s.groupRepo.Save(ctx, channel, msg)
	})
	if err != nil {
		return nil, err
	}
	s.deliverer.Deliver(msg, groupAudience(channel, msg))
	return msg, nil
}

// ListPublicMessages pages an open room's history; no membership gate.
func (s *MessageService) ListPublicMessages(ctx context.Context, channelID string, since time.Time, page repositories.Page) (repositories.Slice[*models.Message], error) {
	if _, err := s.publicRepo.FindByID(ctx, channelID); err != nil {
		return repositories.Slice[*models.Message]{}, err
	}
	return s.messageRepo.FindByChannel(ctx, models.ChannelPublic, channelID, since, page)
}

// ListPrivateMessages pages a private channel's history for one of its
// members.
func (s *MessageService) ListPrivateMessages(ctx context.Context, userID, channelID string, since time.Time, page repositories.Page) (repositories.Slice[*models.Message], error) {
	channel, err := s.privateRepo.FindByID(ctx, channelID)
	if err != nil {
		return repositories.Slice[*models.Message]{}, err
	}
	if !channel.Members.Contains(userID) {
		return repositories.Slice[*models.Message]{}, chaterr.ErrNotMember
	}
	return s.messageRepo.FindByChannel(ctx, models.ChannelPrivate, channelID, since, page)
}

// ListGroupMessages pages a group channel's history for one of its members.
func (s *MessageService) ListGroupMessages(ctx context.Context, userID, channelID string, since time.Time, page repositories.Page) (repositories.Slice[*models.Message], error) {
	channel, err := s.groupRepo.FindByID(ctx, channelID)
	if err != nil {
		return repositories.Slice[*models.Message]{}, err
	}
	if !channel.Members.Contains(userID) {
		return repositories.Slice[*models.Message]{}, chaterr.ErrNotMember
	}
	return s.messageRepo.FindByChannel(ctx, models.ChannelGroup, channelID, since, page)
}

// ListSentMessages pages the caller's own messages across channels.
func (s *MessageService) ListSentMessages(ctx context.Context, userID string, since time.Time, page repositories.Page) (repositories.Slice[*models.Message], error) {
	return s.messageRepo.FindBySender(ctx, userID, since, page)
}
