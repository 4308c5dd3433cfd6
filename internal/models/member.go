package models

// Member is the projection of a user a channel keeps in its own document.
// Channels reference users, they never own them.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// MemberSet is an ordered set of members keyed by user ID. It is stored as a
// JSON column so the owning channel row mutates as one optimistic-concurrency
// unit.
type MemberSet []Member

func (s MemberSet) Contains(userID string) bool {
	for _, m := range s {
		if m.ID == userID {
			return true
		}
	}
	return false
}

func (s MemberSet) Get(userID string) (Member, bool) {
	for _, m := range s {
		if m.ID == userID {
			return m, true
		}
	}
	return Member{}, false
}

// Add appends the member unless a member with the same ID is already present.
func (s *MemberSet) Add(m Member) {
	if s.Contains(m.ID) {
		return
	}
	*s = append(*s, m)
}

// Remove deletes the member with the given ID, reporting whether it was present.
func (s *MemberSet) Remove(userID string) bool {
	for i, m := range *s {
		if m.ID == userID {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

func (s MemberSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for _, m := range s {
		ids = append(ids, m.ID)
	}
	return ids
}

// GroupInvitation is a pending (user, channel) pair. It lives inside its
// channel document, so the user ID alone keys it there; MessageID references
// the INVITATION message that created it.
type GroupInvitation struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	MessageID int64  `json:"message_id"`
}

// InvitationSet holds at most one pending invitation per user.
type InvitationSet []GroupInvitation

func (s InvitationSet) Contains(userID string) bool {
	_, ok := s.Get(userID)
	return ok
}

func (s InvitationSet) Get(userID string) (GroupInvitation, bool) {
	for _, inv := range s {
		if inv.UserID == userID {
			return inv, true
		}
	}
	return GroupInvitation{}, false
}

func (s *InvitationSet) Add(inv GroupInvitation) {
	if s.Contains(inv.UserID) {
		return
	}
	*s = append(*s, inv)
}

func (s *InvitationSet) Remove(userID string) bool {
	for i, inv := range *s {
		if inv.UserID == userID {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}
