package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/bandpoints/internal/leaderboard"
	"github.com/mmynk/bandpoints/internal/models"
	"github.com/mmynk/bandpoints/internal/policy"
	"github.com/mmynk/bandpoints/pkg/api"
)

// Ensure LeaderboardService implements api.LeaderboardServiceHandler
var _ api.LeaderboardServiceHandler = (*LeaderboardService)(nil)

var errUnknownSection = errors.New("unknown section")

// LeaderboardService serves the read-only leaderboard views.
// Standings are recomputed from the full member list on every call.
type LeaderboardService struct {
	*base
}

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(d Deps) *LeaderboardService {
	return &LeaderboardService{base: newBase(d)}
}

// ListSections returns the section enumeration in tie-break order.
func (s *LeaderboardService) ListSections(ctx context.Context, req *connect.Request[api.ListSectionsRequest]) (*connect.Response[api.ListSectionsResponse], error) {
	if _, err := s.authorize(ctx, "", policy.ActionViewLeaderboard); err != nil {
		return nil, err
	}

	sections := make([]api.Section, len(models.Sections))
	for i, sec := range models.Sections {
		sections[i] = toAPISection(sec)
	}
	return connect.NewResponse(&api.ListSectionsResponse{Sections: sections}), nil
}

// GetSectionStandings ranks sections by total points.
func (s *LeaderboardService) GetSectionStandings(ctx context.Context, req *connect.Request[api.GetSectionStandingsRequest]) (*connect.Response[api.GetSectionStandingsResponse], error) {
	if _, err := s.authorize(ctx, "", policy.ActionViewLeaderboard); err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, s.internal("GetSectionStandings failed", err)
	}

	standings := leaderboard.SectionStandings(members)
	summary := leaderboard.Summarize(standings)

	rows := make([]api.SectionStanding, len(standings))
	for i, st := range standings {
		rows[i] = api.SectionStanding{
			Section:     toAPISection(st.Section),
			TotalPoints: st.TotalPoints,
			MemberCount: st.MemberCount,
			Progress:    st.Progress,
		}
	}

	s.logger.Debug("GetSectionStandings successful", "sections", len(rows), "members", summary.TotalMembers)
	return connect.NewResponse(&api.GetSectionStandingsResponse{
		Standings:    rows,
		TotalMembers: summary.TotalMembers,
		TotalPoints:  summary.TotalPoints,
	}), nil
}

// GetSectionRanking ranks the members of one section, defaulting to the caller's.
// An unassigned caller without an explicit section gets an empty ranking.
func (s *LeaderboardService) GetSectionRanking(ctx context.Context, req *connect.Request[api.GetSectionRankingRequest]) (*connect.Response[api.GetSectionRankingResponse], error) {
	actor, err := s.authorize(ctx, "", policy.ActionViewLeaderboard)
	if err != nil {
		return nil, err
	}

	sectionID := req.Msg.Section
	if sectionID == "" {
		sectionID = actor.Section
	}

	sectionID, ok := canonicalSection(sectionID)
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, errUnknownSection)
	}
	if sectionID == models.SectionUnassigned {
		return connect.NewResponse(&api.GetSectionRankingResponse{
			Section: api.Section{ID: models.SectionUnassigned, Name: sectionName(models.SectionUnassigned)},
			Members: []api.MemberStanding{},
		}), nil
	}
	section, _ := models.LookupSection(sectionID)

	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, s.internal("GetSectionRanking failed", err, "section", section.ID)
	}

	ranking := leaderboard.SectionRanking(members, section.ID)
	rows := make([]api.MemberStanding, len(ranking))
	for i, row := range ranking {
		rows[i] = api.MemberStanding{
			Member:   *toAPIMember(&row.Member),
			Rank:     row.Rank,
			Progress: row.Progress,
		}
	}

	return connect.NewResponse(&api.GetSectionRankingResponse{
		Section:    toAPISection(section),
		Members:    rows,
		ViewerRank: leaderboard.RankOf(ranking, actor.ID),
	}), nil
}
