package auth

// Package auth contains domain-level types for the authentication session.
// It is pure and free of transport/adapter concerns.

import "strings"

// Role represents an application's authorization role.
// Keep string form for easy persistence and serialization.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// NormalizeRole maps an arbitrary server-provided role string onto a known
// Role, defaulting to RoleUser for unrecognized values and RoleGuest for
// empty ones.
func NormalizeRole(raw string) Role {
	switch Role(raw) {
	case RoleAdmin, RoleUser, RoleGuest:
		return Role(raw)
	}
	if raw == "" {
		return RoleGuest
	}
	return RoleUser
}

// Profile holds the free-form profile sub-record attached to a user.
type Profile struct {
	Bio      string `json:"bio,omitempty"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
	Website  string `json:"website,omitempty"`
	GitHub   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// Settings holds per-user preferences mirrored from the server.
type Settings struct {
	Theme              string `json:"theme,omitempty"`
	Language           string `json:"language,omitempty"`
	EmailNotifications bool   `json:"email_notifications"`
}

// User is the authenticated identity carried by a session.
type User struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Username  string   `json:"username,omitempty"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Role      Role     `json:"role"`
	AvatarURL string   `json:"avatar_url,omitempty"`
	Profile   Profile  `json:"profile,omitempty"`
	Settings  Settings `json:"settings,omitempty"`
}

// DisplayName returns the best human-readable name for the user.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

// IsAdmin returns true if the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// SplitDisplayName splits a single display name into first and last
// components at the first whitespace boundary. The remainder, if any,
// becomes the last name; single-word names yield an empty last name.
func SplitDisplayName(name string) (first, last string) {
	trimmed := strings.TrimSpace(name)
	first, last, found := strings.Cut(trimmed, " ")
	if !found {
		return trimmed, ""
	}
	return first, strings.TrimSpace(last)
}

// Credentials is the token pair held in the credential store. The two tokens
// are issued together; RefreshToken may be empty for signup-issued sessions.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Snapshot is the observable session state published to subscribers.
// LoggedIn is derived from User presence and never set independently.
type Snapshot struct {
	User      *User
	LoggedIn  bool
	Loading   bool
	LastError string
}

// Anonymous reports whether the snapshot represents a logged-out session.
func (s Snapshot) Anonymous() bool { return !s.LoggedIn }
