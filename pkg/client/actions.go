package client

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/bandpoints/internal/models"
	"github.com/mmynk/bandpoints/internal/policy"
	"github.com/mmynk/bandpoints/pkg/api"
)

// can applies the role policy to the latest snapshot. The server checks
// again; this only spares a round trip for calls that cannot succeed.
func (s *Session) can(action policy.Action, targetID string) error {
	m := s.Member()
	if m == nil {
		return ErrMemberDeleted
	}
	actor := &models.Member{ID: m.ID, Role: models.Role(m.Role), Section: m.Section}
	if err := policy.Authorize(actor, targetID, action); err != nil {
		return fmt.Errorf("%w: %v", ErrNotPermitted, err)
	}
	return nil
}

// Standings returns the section leaderboard.
func (s *Session) Standings(ctx context.Context) (*api.GetSectionStandingsResponse, error) {
	resp, err := s.Leaderboard.GetSectionStandings(ctx, connect.NewRequest(&api.GetSectionStandingsRequest{}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Ranking returns the member ranking for section, or the caller's own section if empty.
func (s *Session) Ranking(ctx context.Context, section string) (*api.GetSectionRankingResponse, error) {
	resp, err := s.Leaderboard.GetSectionRanking(ctx, connect.NewRequest(&api.GetSectionRankingRequest{Section: section}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// ChooseSection picks the caller's section while they are still unassigned.
func (s *Session) ChooseSection(ctx context.Context, section string) (*api.Member, error) {
	m := s.Member()
	if m == nil {
		return nil, ErrMemberDeleted
	}
	if err := s.can(policy.ActionChooseOwnSection, m.ID); err != nil {
		return nil, err
	}
	resp, err := s.Members.ChooseSection(ctx, connect.NewRequest(&api.ChooseSectionRequest{Section: section}))
	if err != nil {
		return nil, err
	}
	s.set(resp.Msg.Member, false)
	return resp.Msg.Member, nil
}

// ListMembers returns members ordered by name, filtered by search when non-empty.
func (s *Session) ListMembers(ctx context.Context, search string) ([]api.Member, error) {
	if err := s.can(policy.ActionViewMembers, ""); err != nil {
		return nil, err
	}
	resp, err := s.Admin.ListMembers(ctx, connect.NewRequest(&api.ListMembersRequest{Search: search}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Members, nil
}

// AdjustPoints adds delta to a member's points.
func (s *Session) AdjustPoints(ctx context.Context, memberID string, delta int64, reason string) (*api.AdjustPointsResponse, error) {
	if err := s.can(policy.ActionAdjustPoints, memberID); err != nil {
		return nil, err
	}
	resp, err := s.Admin.AdjustPoints(ctx, connect.NewRequest(&api.AdjustPointsRequest{
		MemberID: memberID,
		Points:   delta,
		Reason:   reason,
	}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// AssignSection asks the server for the confirmation prompt, passes it to
// confirm, and applies the change only if confirm returns true.
func (s *Session) AssignSection(ctx context.Context, memberID, section string, confirm func(prompt string) bool) (*api.AssignSectionResponse, error) {
	if err := s.can(policy.ActionAssignSection, memberID); err != nil {
		return nil, err
	}

	req := &api.AssignSectionRequest{MemberID: memberID, Section: section}
	resp, err := s.Admin.AssignSection(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	if resp.Msg.Outcome != api.OutcomeConfirmationRequired {
		return resp.Msg, nil
	}
	if confirm == nil || !confirm(resp.Msg.Prompt) {
		return &api.AssignSectionResponse{Outcome: api.OutcomeCancelled, Prompt: resp.Msg.Prompt}, nil
	}

	req.Confirmed = true
	resp, err = s.Admin.AssignSection(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// ChangeRole sets another member's role.
func (s *Session) ChangeRole(ctx context.Context, memberID, role string) (*api.Member, error) {
	if err := s.can(policy.ActionChangeRole, memberID); err != nil {
		return nil, err
	}
	resp, err := s.Admin.ChangeRole(ctx, connect.NewRequest(&api.ChangeRoleRequest{MemberID: memberID, Role: role}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Member, nil
}

// DeleteMember deletes a member. confirmName must equal the member's name;
// nil cancels without contacting the server.
func (s *Session) DeleteMember(ctx context.Context, memberID string, confirmName *string) (*api.DeleteMemberResponse, error) {
	if err := s.can(policy.ActionDeleteMember, memberID); err != nil {
		return nil, err
	}
	if confirmName == nil {
		return &api.DeleteMemberResponse{Outcome: api.OutcomeCancelled}, nil
	}
	resp, err := s.Admin.DeleteMember(ctx, connect.NewRequest(&api.DeleteMemberRequest{
		MemberID:    memberID,
		ConfirmName: confirmName,
	}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// ResetAllPoints zeroes every member's points. confirmation must equal
// api.ResetConfirmationPhrase; nil cancels without contacting the server.
func (s *Session) ResetAllPoints(ctx context.Context, confirmation *string) (*api.ResetAllPointsResponse, error) {
	if err := s.can(policy.ActionResetPoints, models.SystemTargetID); err != nil {
		return nil, err
	}
	if confirmation == nil {
		return &api.ResetAllPointsResponse{Outcome: api.OutcomeCancelled}, nil
	}
	resp, err := s.Admin.ResetAllPoints(ctx, connect.NewRequest(&api.ResetAllPointsRequest{Confirmation: confirmation}))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Transactions returns a member's point history, newest first.
func (s *Session) Transactions(ctx context.Context, memberID string) ([]api.PointTransaction, error) {
	if err := s.can(policy.ActionViewMembers, memberID); err != nil {
		return nil, err
	}
	resp, err := s.Admin.ListTransactions(ctx, connect.NewRequest(&api.ListTransactionsRequest{MemberID: memberID}))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Transactions, nil
}
