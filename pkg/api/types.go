package api

// Outcome values for confirmation-gated admin actions.
const (
	OutcomeApplied              = "applied"
	OutcomeCancelled            = "cancelled"
	OutcomeConfirmationMismatch = "confirmation_mismatch"
	OutcomeConfirmationRequired = "confirmation_required"
)

// Member is a leaderboard member as seen on the wire.
type Member struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Section   string `json:"section"`
	Role      string `json:"role"`
	Points    int64  `json:"points"`
	CreatedAt int64  `json:"created_at"`
}

// Section is one entry of the fixed section enumeration.
type Section struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type SectionStanding struct {
	Section     Section `json:"section"`
	TotalPoints int64   `json:"total_points"`
	MemberCount int     `json:"member_count"`
	Progress    float64 `json:"progress"`
}

type MemberStanding struct {
	Member   Member  `json:"member"`
	Rank     int     `json:"rank"`
	Progress float64 `json:"progress"`
}

type PointTransaction struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	AdminID   string `json:"admin_id"`
	Points    int64  `json:"points"`
	Reason    string `json:"reason"`
	CreatedAt int64  `json:"created_at"`
}

// AuthService

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	Token  string  `json:"token"`
	Member *Member `json:"member"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	Token  string  `json:"token"`
	Member *Member `json:"member"`
	// Created is true when this sign-in created the member record.
	Created bool `json:"created"`
}

type SignOutRequest struct{}

type SignOutResponse struct{}

type GetCurrentMemberRequest struct{}

type GetCurrentMemberResponse struct {
	Member *Member `json:"member"`
}

// MemberService

type ChooseSectionRequest struct {
	Section string `json:"section"`
}

type ChooseSectionResponse struct {
	Member *Member `json:"member"`
}

type WatchMemberRequest struct{}

// MemberSnapshot is one push on the WatchMember stream. Deleted is set, and
// Member is nil, once the record no longer exists.
type MemberSnapshot struct {
	Member  *Member `json:"member,omitempty"`
	Deleted bool    `json:"deleted,omitempty"`
}

// LeaderboardService

type ListSectionsRequest struct{}

type ListSectionsResponse struct {
	Sections []Section `json:"sections"`
}

type GetSectionStandingsRequest struct{}

type GetSectionStandingsResponse struct {
	Standings    []SectionStanding `json:"standings"`
	TotalMembers int               `json:"total_members"`
	TotalPoints  int64             `json:"total_points"`
}

type GetSectionRankingRequest struct {
	// Section defaults to the caller's own section.
	Section string `json:"section,omitempty"`
}

type GetSectionRankingResponse struct {
	Section    Section          `json:"section"`
	Members    []MemberStanding `json:"members"`
	ViewerRank int              `json:"viewer_rank"`
}

// AdminService

type ListMembersRequest struct {
	Search string `json:"search,omitempty"`
}

type ListMembersResponse struct {
	Members []Member `json:"members"`
}

type AdjustPointsRequest struct {
	MemberID string `json:"member_id"`
	Points   int64  `json:"points"`
	Reason   string `json:"reason,omitempty"`
}

type AdjustPointsResponse struct {
	Member      *Member           `json:"member"`
	Transaction *PointTransaction `json:"transaction"`
}

type AssignSectionRequest struct {
	MemberID  string `json:"member_id"`
	Section   string `json:"section"`
	Confirmed bool   `json:"confirmed"`
}

type AssignSectionResponse struct {
	Applied bool    `json:"applied"`
	Outcome string  `json:"outcome"`
	Prompt  string  `json:"prompt,omitempty"`
	Member  *Member `json:"member,omitempty"`
}

type ChangeRoleRequest struct {
	MemberID string `json:"member_id"`
	Role     string `json:"role"`
}

type ChangeRoleResponse struct {
	Member *Member `json:"member"`
}

type DeleteMemberRequest struct {
	MemberID string `json:"member_id"`
	// ConfirmName must equal the member's name exactly. Nil cancels.
	ConfirmName *string `json:"confirm_name"`
}

type DeleteMemberResponse struct {
	Applied bool   `json:"applied"`
	Outcome string `json:"outcome"`
}

type ResetAllPointsRequest struct {
	// Confirmation must equal ResetConfirmationPhrase. Nil cancels.
	Confirmation *string `json:"confirmation"`
}

type ResetAllPointsResponse struct {
	Applied      bool   `json:"applied"`
	Outcome      string `json:"outcome"`
	MembersReset int    `json:"members_reset"`
}

// ResetConfirmationPhrase is the exact text that confirms a bulk reset.
const ResetConfirmationPhrase = "RESET ALL POINTS"

type ListTransactionsRequest struct {
	MemberID string `json:"member_id"`
}

type ListTransactionsResponse struct {
	Transactions []PointTransaction `json:"transactions"`
}
