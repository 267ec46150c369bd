package domain

import (
	"errors"
	"strings"
)

// User is the signed-in user record as the API returns it on login and register.
// It is persisted verbatim under the "user" storage key.
type User struct {
	ID        int      `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Profile   *Profile `json:"profile,omitempty"`
}

// DisplayName returns the profile full name, else first and last name, else the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Profile != nil && strings.TrimSpace(u.Profile.FullName) != "" {
		return u.Profile.FullName
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Username
}

// Profile is the editable profile projection served at /auth/profile/.
type Profile struct {
	ID             int    `json:"id,omitempty"`
	Username       string `json:"username,omitempty"`
	Email          string `json:"email,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	FullName       string `json:"full_name"`
	Bio            string `json:"bio"`
	Location       string `json:"location"`
	ProfilePicture string `json:"profile_picture"`
}

// ProfileUpdate is a partial profile change. Nil fields are left unchanged by the server.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	FullName  *string `json:"full_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Location  *string `json:"location,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.FullName == nil && p.Bio == nil && p.Location == nil
}

// Tokens is the token pair returned by login and register.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AuthResponse is the body of a successful login or register.
type AuthResponse struct {
	User   *User  `json:"user"`
	Tokens Tokens `json:"tokens"`
}

// Validate checks the fields the session depends on.
func (r *AuthResponse) Validate() error {
	if r.User == nil {
		return errors.New("auth response has no user")
	}
	if r.Tokens.Access == "" {
		return errors.New("auth response has no access token")
	}
	return nil
}

// RegisterInput is what a new account needs. FirstName and LastName are derived from
// FullName when empty.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
	FirstName       string
	LastName        string
}

// RegisterRequest is the wire body of POST /auth/register/.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FullName        string `json:"full_name"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// Request builds the wire body. The username is the email; missing first and last names
// come from the first and second words of FullName.
func (in RegisterInput) Request() RegisterRequest {
	words := strings.Fields(in.FullName)
	first, last := in.FirstName, in.LastName
	if first == "" && len(words) > 0 {
		first = words[0]
	}
	if last == "" && len(words) > 1 {
		last = words[1]
	}
	return RegisterRequest{
		Username:        in.Email,
		Email:           in.Email,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
		FullName:        in.FullName,
		FirstName:       first,
		LastName:        last,
	}
}
