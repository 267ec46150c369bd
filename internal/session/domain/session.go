package domain

import (
	userdomain "event-management/client/internal/user/domain"
)

// Session is the client's authenticated identity. User is non-nil iff AccessToken is non-empty.
type Session struct {
	User         *userdomain.User
	AccessToken  string
	RefreshToken string // may be empty when the server issued none
}

// IsAuthenticated reports whether a user is signed in.
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.AccessToken != ""
}

// Clone returns a copy that shares nothing with s.
func (s Session) Clone() Session {
	out := s
	if s.User != nil {
		u := *s.User
		if s.User.Profile != nil {
			p := *s.User.Profile
			u.Profile = &p
		}
		out.User = &u
	}
	return out
}
