// Package leaderboard derives leaderboard rows from the raw member list.
// Nothing here is cached or stored: every view recomputes from the full set.
package leaderboard

import (
	"sort"
	"strings"

	"github.com/mmynk/bandpoints/internal/models"
)

// Minimum bar widths in percent, so a zero or tiny score still shows a sliver.
const (
	SectionProgressFloor = 10.0
	MemberProgressFloor  = 5.0
)

// SectionStandings groups members by section and ranks sections by total points.
//
// Algorithm:
// - Skip unassigned members and any section outside the enumeration
// - Sum points and count members per section
// - Sort descending by total; equal totals keep enumeration order
// - Progress = total / leading total, floored at SectionProgressFloor
//
// Sections with no members are omitted.
func SectionStandings(members []models.Member) []models.SectionStanding {
	totals := make([]int64, len(models.Sections))
	counts := make([]int, len(models.Sections))

	for _, m := range members {
		idx := models.SectionIndex(m.Section)
		if idx < 0 {
			continue
		}
		totals[idx] += m.Points
		counts[idx]++
	}

	var standings []models.SectionStanding
	for i, section := range models.Sections {
		if counts[i] == 0 {
			continue
		}
		standings = append(standings, models.SectionStanding{
			Section:     section,
			TotalPoints: totals[i],
			MemberCount: counts[i],
		})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].TotalPoints > standings[j].TotalPoints
	})

	var max int64
	if len(standings) > 0 {
		max = standings[0].TotalPoints
	}
	for i := range standings {
		standings[i].Progress = Progress(standings[i].TotalPoints, max, SectionProgressFloor)
	}

	return standings
}

// SectionRanking returns the members of one section ordered by points, highest first.
// Members with equal points are ordered by name so repeated calls agree.
func SectionRanking(members []models.Member, section string) []models.MemberStanding {
	var inSection []models.Member
	for _, m := range members {
		if m.Section == section {
			inSection = append(inSection, m)
		}
	}
	if section == models.SectionUnassigned || len(inSection) == 0 {
		return nil
	}

	sort.SliceStable(inSection, func(i, j int) bool {
		if inSection[i].Points != inSection[j].Points {
			return inSection[i].Points > inSection[j].Points
		}
		return strings.ToLower(inSection[i].Name) < strings.ToLower(inSection[j].Name)
	})

	// The top score may be zero or negative; never divide by less than one.
	max := inSection[0].Points
	if max < 1 {
		max = 1
	}

	ranking := make([]models.MemberStanding, len(inSection))
	for i, m := range inSection {
		ranking[i] = models.MemberStanding{
			Member:   m,
			Rank:     i + 1,
			Progress: Progress(m.Points, max, MemberProgressFloor),
		}
	}
	return ranking
}

// Progress returns value as a percentage of max, clamped to [floor, 100].
// A non-positive max yields floor.
func Progress(value, max int64, floor float64) float64 {
	if max <= 0 {
		return floor
	}
	pct := float64(value) / float64(max) * 100
	if pct < floor {
		return floor
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// RankOf returns the 1-based rank of memberID in ranking, or 0 if absent.
func RankOf(ranking []models.MemberStanding, memberID string) int {
	for _, row := range ranking {
		if row.Member.ID == memberID {
			return row.Rank
		}
	}
	return 0
}

// Summary is the dashboard overview across all assigned members.
type Summary struct {
	TotalMembers int
	TotalPoints  int64
	SectionCount int
}

// Summarize totals the standings.
func Summarize(standings []models.SectionStanding) Summary {
	var s Summary
	for _, row := range standings {
		s.TotalMembers += row.MemberCount
		s.TotalPoints += row.TotalPoints
	}
	s.SectionCount = len(standings)
	return s
}
