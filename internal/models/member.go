package models

// Role is a member's privilege level. Roles form a strict total order:
// RoleMember < RoleAdmin < RoleHeadAdmin.
type Role string

const (
	RoleMember    Role = "member"
	RoleAdmin     Role = "admin"
	RoleHeadAdmin Role = "head_admin"
)

// Roles lists every valid role from least to most privileged.
var Roles = []Role{RoleMember, RoleAdmin, RoleHeadAdmin}

// Rank returns the role's position in the privilege order, starting at 1.
// Unknown roles rank 0, below every valid role.
func (r Role) Rank() int {
	switch r {
	case RoleMember:
		return 1
	case RoleAdmin:
		return 2
	case RoleHeadAdmin:
		return 3
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// AtLeast reports whether r is at least as privileged as min.
// An invalid role is never at least anything.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.Rank() >= min.Rank()
}

// Member is the leaderboard record for one signed-in identity.
type Member struct {
	// ID equals the Account ID the member was created for.
	ID string `db:"id"`

	// Email is copied from the account at creation time.
	Email string `db:"email"`

	// Name is the display name. Deletion requires typing it exactly.
	Name string `db:"name"`

	// AvatarURL is optional.
	AvatarURL string `db:"avatar_url"`

	// Section is one of the section IDs or SectionUnassigned.
	Section string `db:"section"`

	// Role is the member's privilege level.
	Role Role `db:"role"`

	// Points is the running total. It may go negative.
	Points int64 `db:"points"`

	// CreatedAt is the Unix timestamp when the record was first created.
	CreatedAt int64 `db:"created_at"`
}

// NewMember builds the record created on an identity's first sign-in:
// role member, no section, zero points.
func NewMember(account *Account) *Member {
	name := account.DisplayName
	if name == "" {
		name = account.Email
	}
	return &Member{
		ID:        account.ID,
		Email:     account.Email,
		Name:      name,
		AvatarURL: account.AvatarURL,
		Section:   SectionUnassigned,
		Role:      RoleMember,
		Points:    0,
	}
}

// IsAssigned reports whether the member has a section.
func (m *Member) IsAssigned() bool {
	return m.Section != "" && m.Section != SectionUnassigned
}
