package models

// SectionStanding is one row of the section leaderboard.
type SectionStanding struct {
	Section     Section
	TotalPoints int64
	MemberCount int

	// Progress is the bar width in percent relative to the leading section.
	Progress float64
}

// MemberStanding is one row of a section's member leaderboard.
type MemberStanding struct {
	Member   Member
	Rank     int
	Progress float64
}
