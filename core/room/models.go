package room

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aissist/aissist/core"
)

// Membership roles
const (
	RoleAdmin  = "admin" // room owner/creator
	RoleMember = "member"
)

// InviteCodeLength is the length of generated invite codes.
const InviteCodeLength = 8

type Room struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// JoinSecret is the rotating invite code required to join a private room.
	// Empty until the admin generates one. Never serialized.
	JoinSecret string    `json:"-"`
	IsPrivate  bool      `json:"is_private"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

type Member struct {
	RoomID   string    `json:"room_id"`
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"` // denormalized user display name
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"` // UTC
}

func (m Member) IsAdmin() bool { return m.Role == RoleAdmin }

// Summary annotates a Room with the caller's role and entity counts for listings.
type Summary struct {
	Room
	Role        string `json:"role"`
	MemberCount int    `json:"member_count"`
	TaskCount   int    `json:"task_count"`
}

type Detail struct {
	Room
	Members []Member `json:"members"`
}

// InvitePreview is the privacy-filtered view returned by an invite-code check.
// It never carries the invite secret itself.
type InvitePreview struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `json:"is_private"`
	AdminName   string `json:"admin_name"`
}

// NewRoom contains information needed to create a new Room.
type NewRoom struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Password    string `json:"password"`
}

func (nr *NewRoom) Validate(validate *validator.Validate) error {
	nr.Name = core.CleanString(nr.Name)
	nr.Description = core.CleanString(nr.Description)
	return validate.Struct(nr)
}

// UpdateRoom defines what information may be provided to modify an existing
// Room. Nil pointers keep the stored value; an empty Name keeps the stored name.
type UpdateRoom struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Password    *string `json:"password"`
}

func (ur *UpdateRoom) Validate(validate *validator.Validate) error {
	ur.Name = core.CleanString(ur.Name)
	return validate.Struct(ur)
}
