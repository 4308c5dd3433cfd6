package pubsub

import (
	"strings"

	"github.com/joejoe2/spring-chat-sub000/internal/models"
)

// Broker subjects carry one channel kind each. Public fanout is keyed by
// channel; private and group fanout are keyed by the receiving user.
const (
	publicPrefix  = "chat.public."
	privatePrefix = "chat.private."
	groupPrefix   = "chat.group."
)

func PublicSubject(channelID string) string {
	return publicPrefix + channelID
}

func PrivateSubject(userID string) string {
	return privatePrefix + userID
}

func GroupSubject(userID string) string {
	return groupPrefix + userID
}

// SplitSubject decomposes a broker subject into its channel kind and routing
// key. Unknown prefixes report ok=false and are dropped by the caller.
func SplitSubject(subject string) (kind models.ChannelKind, key string, ok bool) {
	switch {
	case strings.HasPrefix(subject, publicPrefix):
		return models.ChannelPublic, subject[len(publicPrefix):], true
	case strings.HasPrefix(subject, privatePrefix):
		return models.ChannelPrivate, subject[len(privatePrefix):], true
	case strings.HasPrefix(subject, groupPrefix):
		return models.ChannelGroup, subject[len(groupPrefix):], true
	default:
		return "", "", false
	}
}
