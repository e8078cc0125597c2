package models

import "time"

// PermLevel is a user's workspace-wide permission grade.
//
// The values are part of the snapshot format and must never shift, so
// they are spelled out rather than generated with iota.
type PermLevel int64

const (
	// PermOwner has override authority in every channel.
	PermOwner PermLevel = 1
	// PermMember is the default grade for everyone after the first registrant.
	PermMember PermLevel = 2
	// PermTerminated marks a soft-removed account. It is never grantable
	// through the admin surface; only user removal assigns it.
	PermTerminated PermLevel = 66
)

// Grantable reports whether the level may be assigned via the admin
// permission-change operation.
func (p PermLevel) Grantable() bool {
	return p == PermOwner || p == PermMember
}

// SystemIDBase is the floor of the reserved id range for system accounts.
// The user id counter never allocates at or above this value, so system
// accounts (the command bot) keep fixed ids that no registration can
// collide with.
const SystemIDBase int64 = 1 << 40

// User is a registered person (or system account) in the workspace.
// Users are never physically deleted; removal is a permission change.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Handle    string `json:"handle"`
	AvatarURL string `json:"avatar_url"`
}

// Permission is the single workspace-wide grade record for one user.
type Permission struct {
	UserID int64     `json:"user_id"`
	Level  PermLevel `json:"level"`
}

// Session pairs a logged-in user with their bearer token.
// At most one session exists per user at any time.
type Session struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
}

// Channel is the identity half of a channel; membership and messages live
// in ChannelState under the same id.
type Channel struct {
	ID   int64  `json:"channel_id"`
	Name string `json:"name"`
}

// ChannelState holds the mutable half of a channel: the member and owner
// sets and the message list, newest first. It is created atomically with
// its Channel record and never outlives it.
type ChannelState struct {
	ChannelID int64      `json:"channel_id"`
	OwnerIDs  []int64    `json:"owner_ids"`
	MemberIDs []int64    `json:"member_ids"`
	Messages  []*Message `json:"messages"`
	IsPublic  bool       `json:"is_public"`
}

// ThumbsUpReactID is the only reaction kind the frontend knows about.
const ThumbsUpReactID int64 = 1

// React is one reaction kind on a message plus the set of users who
// applied it. IsThisUserReacted is derived per caller at read time and is
// never authoritative in the store.
type React struct {
	ReactID           int64   `json:"react_id"`
	UserIDs           []int64 `json:"u_ids"`
	IsThisUserReacted bool    `json:"is_this_user_reacted"`
}

// Message is a single channel message. IDs are globally unique across all
// channels and are never reused after removal.
type Message struct {
	ID        int64     `json:"message_id"`
	AuthorID  int64     `json:"u_id"`
	Text      string    `json:"message"`
	CreatedAt time.Time `json:"time_created"`
	Reacts    []React   `json:"reacts"`
	IsPinned  bool      `json:"is_pinned"`
}

// Credential maps a registered email to its bcrypt password hash.
type Credential struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// ResetCode is a pending password-reset grant for one email.
type ResetCode struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Profile is the public projection of a User used in channel details and
// user listings.
type Profile struct {
	UserID    int64  `json:"u_id"`
	Email     string `json:"email"`
	FirstName string `json:"name_first"`
	LastName  string `json:"name_last"`
	Handle    string `json:"handle_str"`
	AvatarURL string `json:"profile_img_url"`
}

// ProfileOf projects a user into its public shape.
func ProfileOf(u *User) Profile {
	return Profile{
		UserID:    u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Handle:    u.Handle,
		AvatarURL: u.AvatarURL,
	}
}
