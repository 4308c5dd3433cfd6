package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
)

// GroupMaxMembers bounds the member set of a group channel. The bound is
// checked at invite and accept time only; shrinking below one member is
// blocked by the last-member and last-administrator guards instead.
const GroupMaxMembers = 1024

// GroupChannel is a multi-member room with administrators, bans and pending
// invitations. All four sets live in the channel row itself so every state
// transition is one optimistic-concurrency write.
//
// Banned is not kept disjoint from past membership on purpose: a user can
// carry a ban from an earlier stay in the channel.
type GroupChannel struct {
	ID             string        `gorm:"primaryKey;size:36" json:"id"`
	Name           string        `gorm:"size:64;not null" json:"name"`
	Members        MemberSet     `gorm:"serializer:json;type:jsonb;not null" json:"members"`
	Administrators MemberSet     `gorm:"serializer:json;type:jsonb" json:"administrators"`
	Banned         MemberSet     `gorm:"serializer:json;type:jsonb" json:"-"`
	Invitations    InvitationSet `gorm:"serializer:json;type:jsonb" json:"-"`
	LastMessageID  int64         `json:"last_message_id"`
	LastMessageAt  time.Time     `json:"last_message_at"`
	Version        int64         `gorm:"not null;default:0" json:"-"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `gorm:"index" json:"updated_at"`
}

func (GroupChannel) TableName() string {
	return "group_channels"
}

// NewGroupChannel creates a channel whose founder is the sole member and the
// sole administrator.
func NewGroupChannel(name string, founder Member) *GroupChannel {
	return &GroupChannel{
		ID:             uuid.New().String(),
		Name:           name,
		Members:        MemberSet{founder},
		Administrators: MemberSet{founder},
	}
}

// checkAdmin validates actor for an admin-gated operation.
//
// ignoreWhenNoAdmin is the legacy compatibility rule: channels created before
// administrators were tracked can hold zero administrators, and for those the
// gated operations used to be open to every member. kickOff/ban/unban keep
// that behavior; promote/demote never had it.
func (c *GroupChannel) checkAdmin(actor Member, ignoreWhenNoAdmin bool) error {
	if ignoreWhenNoAdmin && len(c.Administrators) == 0 {
		if !c.Members.Contains(actor.ID) {
			return chaterr.ErrNotMember
		}
		return nil
	}
	if !c.Administrators.Contains(actor.ID) {
		return chaterr.ErrNotAdministrator
	}
	return nil
}

// Invite adds invitee to the pending set and returns the INVITATION message
// the transition produced.
func (c *GroupChannel) Invite(inviter, invitee Member) (*Message, error) {
	if !c.Members.Contains(inviter.ID) {
		return nil, chaterr.ErrNotMember
	}
	if c.Members.Contains(invitee.ID) {
		return nil, chaterr.ErrAlreadyMember
	}
	if c.Invitations.Contains(invitee.ID) {
		return nil, chaterr.ErrAlreadyInvited
	}
	if c.Banned.Contains(invitee.ID) {
		return nil, chaterr.ErrBanned
	}
	if len(c.Members) >= GroupMaxMembers {
		return nil, chaterr.ErrCapacityExceeded
	}

	msg, err := newChannelMessage(ChannelGroup, c.ID, MessageTypeInvitation, inviter, memberContent(invitee))
	if err != nil {
		return nil, err
	}
	c.Invitations.Add(GroupInvitation{
		UserID:    invitee.ID,
		Username:  invitee.Username,
		MessageID: msg.ID,
	})
	c.touchLastMessage(msg)
	return msg, nil
}

// AcceptInvitation turns a pending invitee into a member.
func (c *GroupChannel) AcceptInvitation(invitee Member) (*Message, error) {
	if !c.Invitations.Contains(invitee.ID) {
		return nil, chaterr.ErrNoInvitation
	}
	// A ban issued after the invitation blocks the join; the invitation
	// itself stays pending so an unban makes it usable again.
	if c.Banned.Contains(invitee.ID) {
		return nil, chaterr.ErrBanned
	}
	if len(c.Members) >= GroupMaxMembers {
		return nil, chaterr.ErrCapacityExceeded
	}

	msg, err := newChannelMessage(ChannelGroup, c.ID, MessageTypeJoin, invitee, memberContent(invitee))
	if err != nil {
		return nil, err
	}
	c.Invitations.Remove(invitee.ID)
	c.Members.Add(invitee)
	c.touchLastMessage(msg)
	return msg, nil
}

// KickOff removes target from the member set. Administrators cannot be
// kicked, whoever asks.
func (c *GroupChannel) KickOff(admin, target Member) (*Message, error) {
	if admin.ID == target.ID {
		return nil, chaterr.ErrActOnSelf
	}
	if err := c.checkAdmin(admin, true); err != nil {
		return nil, err
	}
	if c.Administrators.Contains(target.ID) {
		return nil, chaterr.ErrAdministrator
	}
	if !c.Members.Contains(target.ID) {
		return nil, chaterr.ErrNotMember
	}

	msg, err := newChannelMessage(ChannelGroup, c.ID, MessageTypeLeave, admin, memberContent(target))
	if err != nil {
		return nil, err
	}
	c.Members.Remove(target.ID)
	c.touchLastMessage(msg)
	return msg, nil
}

// Leave removes user from members and administrators. The sole remaining
// member or sole remaining administrator cannot leave.
func (c *GroupChannel) Leave(user Member) (*Message, error) {
	if !c.Members.Contains(user.ID) {
		return nil, chaterr.ErrNotMember
	}
	if len(c.Administrators) == 1 && c.Administrators.Contains(user.ID) {
		return nil, chaterr.ErrLastAdministrator
	}
	if len(c.Members) == 1 {
		return nil, chaterr.ErrLastMember
	}

	msg, err := newChannelMessage(ChannelGroup, c.ID, MessageTypeLeave, user, memberContent(user))
	if err != nil {
		return nil, err
	}
	c.Members.Remove(user.ID)
	c.Administrators.Remove(user.ID)
	c.touchLastMessage(msg)
	return msg, nil
}

// Ban adds target to the banned set. Membership is left alone.
func (c *GroupChannel) Ban(admin, target Member) (*Message, error) {
	if admin.ID == target.ID {
		return nil, chaterr.ErrActOnSelf
	}
	if err := c.checkAdmin(admin, true); err != nil {
		return nil, err
	}
	if c.Administrators.Contains(target.ID) {
		return nil, chaterr.ErrAdministrator
	}

	msg, err := newChannelMessage(ChannelGroup, c.ID, MessageTypeBan, admin, memberContent(target))
	if err != nil {
		return nil, err
	}
	c.Banned.Add(target)
	c.touchLastMessage(msg)
	return msg, nil
}

// Unban removes target from the banned set.
func (c *GroupChannel) Unban(admin, target Member) (*Message, error) {
	if admin.ID == target.ID {
		return nil, chaterr.ErrActOnSelf
	}
	if err := c.checkAdmin(admin, true); err != nil {
		return nil, err
	}
	if !c.Banned.Contains(target.ID) {
		return nil, chaterr.ErrNotBanned
	}

	msg, err := newChannelMessage(ChannelGroup, c.ID, MessageTypeUnban, admin, memberContent(target))
	if err != nil {
		return nil, err
	}
	c.Banned.Remove(target.ID)
	c.touchLastMessage(msg)
	return msg, nil
}

// AddAdministrator promotes target. No legacy bypass here: only an existing
// administrator may promote.
func (c *GroupChannel) AddAdministrator(actor, target Member) error {
	if actor.ID == target.ID {
		return chaterr.ErrActOnSelf
	}
	if err := c.checkAdmin(actor, false); err != nil {
		return err
	}
	if !c.Members.Contains(target.ID) {
		return chaterr.ErrNotMember
	}
	if c.Banned.Contains(target.ID) {
		return chaterr.ErrBanned
	}
	c.Administrators.Add(target)
	return nil
}

// RemoveAdministrator demotes target. Strict admin check, same as promotion.
func (c *GroupChannel) RemoveAdministrator(actor, target Member) error {
	if actor.ID == target.ID {
		return chaterr.ErrActOnSelf
	}
	if err := c.checkAdmin(actor, false); err != nil {
		return err
	}
	c.Administrators.Remove(target.ID)
	return nil
}

// AddMessage builds a plain message from a non-banned member.
func (c *GroupChannel) AddMessage(sender Member, text string) (*Message, error) {
	if !c.Members.Contains(sender.ID) {
		return nil, chaterr.ErrNotMember
	}
	if c.Banned.Contains(sender.ID) {
		return nil, chaterr.ErrBanned
	}
	msg, err := newChannelMessage(ChannelGroup, c.ID, MessageTypeMessage, sender, text)
	if err != nil {
		return nil, err
	}
	c.touchLastMessage(msg)
	return msg, nil
}

func (c *GroupChannel) touchLastMessage(msg *Message) {
	c.LastMessageID = msg.ID
	c.LastMessageAt = msg.UpdatedAt
}
