package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/bandpoints/internal/leaderboard"
	"github.com/mmynk/bandpoints/internal/models"
	"github.com/mmynk/bandpoints/internal/policy"
	"github.com/mmynk/bandpoints/internal/realtime"
	"github.com/mmynk/bandpoints/internal/storage"
	"github.com/mmynk/bandpoints/pkg/api"
)

// Ensure AdminService implements api.AdminServiceHandler
var _ api.AdminServiceHandler = (*AdminService)(nil)

var errZeroPoints = errors.New("points must be a nonzero whole number")

// ResetReason is recorded on the system transaction written by a bulk reset.
const ResetReason = "Reset all points"

// AdminService implements the privileged member-management operations.
type AdminService struct {
	*base
}

// NewAdminService creates a new AdminService.
func NewAdminService(d Deps) *AdminService {
	return &AdminService{base: newBase(d)}
}

// ListMembers returns every member ordered by name, optionally filtered by a search term.
func (s *AdminService) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	if _, err := s.authorize(ctx, "", policy.ActionViewMembers); err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, s.internal("ListMembers failed", err)
	}
	members = leaderboard.Search(members, req.Msg.Search)

	out := make([]api.Member, len(members))
	for i := range members {
		out[i] = *toAPIMember(&members[i])
	}

	s.logger.Debug("ListMembers successful", "count", len(out), "search", req.Msg.Search)
	return connect.NewResponse(&api.ListMembersResponse{Members: out}), nil
}

// AdjustPoints adds a signed delta to a member's total and records the transaction.
func (s *AdminService) AdjustPoints(ctx context.Context, req *connect.Request[api.AdjustPointsRequest]) (*connect.Response[api.AdjustPointsResponse], error) {
	s.logger.Info("AdjustPoints request received",
		"member_id", req.Msg.MemberID,
		"points", req.Msg.Points,
	)

	actor, err := s.authorize(ctx, req.Msg.MemberID, policy.ActionAdjustPoints)
	if err != nil {
		return nil, err
	}
	if req.Msg.MemberID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingID)
	}
	if req.Msg.Points == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errZeroPoints)
	}

	reason := strings.TrimSpace(req.Msg.Reason)
	if reason == "" {
		reason = models.DefaultReason
	}

	txn := &models.PointTransaction{
		ID:        uuid.New().String(),
		UserID:    req.Msg.MemberID,
		AdminID:   actor.ID,
		Points:    req.Msg.Points,
		Reason:    reason,
		CreatedAt: time.Now().Unix(),
	}
	member, err := s.store.AdjustPoints(ctx, txn)
	if errors.Is(err, storage.ErrPointsOverflow) {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err != nil {
		return nil, s.storeError("AdjustPoints failed", err, "member_id", req.Msg.MemberID)
	}

	s.metrics.Mutation(string(policy.ActionAdjustPoints))
	s.metrics.PointsAdjusted(txn.Points)
	s.publish(ctx, member.ID, realtime.ChangeUpdated)
	s.logger.Info("Points adjusted",
		"member_id", member.ID,
		"admin_id", actor.ID,
		"delta", txn.Points,
		"total", member.Points,
	)

	return connect.NewResponse(&api.AdjustPointsResponse{
		Member:      toAPIMember(member),
		Transaction: toAPITransaction(txn),
	}), nil
}

// AssignSection moves a member to a section. Without Confirmed it only
// returns the prompt the admin must accept.
func (s *AdminService) AssignSection(ctx context.Context, req *connect.Request[api.AssignSectionRequest]) (*connect.Response[api.AssignSectionResponse], error) {
	actor, err := s.authorize(ctx, req.Msg.MemberID, policy.ActionAssignSection)
	if err != nil {
		return nil, err
	}
	if req.Msg.MemberID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingID)
	}

	newSection, ok := canonicalSection(req.Msg.Section)
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, errUnknownSection)
	}

	target, err := s.store.GetMember(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, s.storeError("AssignSection failed", err, "member_id", req.Msg.MemberID)
	}

	if !req.Msg.Confirmed {
		return connect.NewResponse(&api.AssignSectionResponse{
			Outcome: api.OutcomeConfirmationRequired,
			Prompt:  SectionPrompt(target, newSection),
			Member:  toAPIMember(target),
		}), nil
	}

	if target.Section == newSection {
		return connect.NewResponse(&api.AssignSectionResponse{
			Applied: true,
			Outcome: api.OutcomeApplied,
			Member:  toAPIMember(target),
		}), nil
	}

	event := &models.AuditEvent{
		ID:        uuid.New().String(),
		ActorID:   actor.ID,
		TargetID:  target.ID,
		Action:    models.AuditSectionChange,
		Detail:    fmt.Sprintf("%s->%s", target.Section, newSection),
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.UpdateMemberSection(ctx, target.ID, newSection, event); err != nil {
		return nil, s.storeError("AssignSection failed", err, "member_id", target.ID)
	}
	target.Section = newSection

	s.metrics.Mutation(string(policy.ActionAssignSection))
	s.publish(ctx, target.ID, realtime.ChangeUpdated)
	s.logger.Info("Section assigned", "member_id", target.ID, "admin_id", actor.ID, "change", event.Detail)

	return connect.NewResponse(&api.AssignSectionResponse{
		Applied: true,
		Outcome: api.OutcomeApplied,
		Member:  toAPIMember(target),
	}), nil
}

// canonicalSection returns the stored form of a section ID, accepting unassigned.
func canonicalSection(id string) (string, bool) {
	if strings.EqualFold(strings.TrimSpace(id), models.SectionUnassigned) {
		return models.SectionUnassigned, true
	}
	s, ok := models.LookupSection(id)
	return s.ID, ok
}

// SectionPrompt is the confirmation text shown before a section change.
func SectionPrompt(target *models.Member, newSection string) string {
	if !target.IsAssigned() {
		return fmt.Sprintf("Assign %s to %s?", target.Name, sectionName(newSection))
	}
	return fmt.Sprintf("Change %s's section from %s to %s? This will affect leaderboard standings.",
		target.Name, sectionName(target.Section), sectionName(newSection))
}

// ChangeRole sets another member's role.
func (s *AdminService) ChangeRole(ctx context.Context, req *connect.Request[api.ChangeRoleRequest]) (*connect.Response[api.ChangeRoleResponse], error) {
	actor, err := s.authorize(ctx, req.Msg.MemberID, policy.ActionChangeRole)
	if err != nil {
		return nil, err
	}
	if req.Msg.MemberID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingID)
	}

	role := models.Role(req.Msg.Role)
	if !role.Valid() {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q", errUnknownRole, req.Msg.Role))
	}

	target, err := s.store.GetMember(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, s.storeError("ChangeRole failed", err, "member_id", req.Msg.MemberID)
	}

	if target.Role != role {
		event := &models.AuditEvent{
			ID:        uuid.New().String(),
			ActorID:   actor.ID,
			TargetID:  target.ID,
			Action:    models.AuditRoleChange,
			Detail:    fmt.Sprintf("%s->%s", target.Role, role),
			CreatedAt: time.Now().Unix(),
		}
		if err := s.store.UpdateMemberRole(ctx, target.ID, role, event); err != nil {
			return nil, s.storeError("ChangeRole failed", err, "member_id", target.ID)
		}
		target.Role = role

		s.metrics.Mutation(string(policy.ActionChangeRole))
		s.publish(ctx, target.ID, realtime.ChangeUpdated)
		s.logger.Info("Role changed", "member_id", target.ID, "admin_id", actor.ID, "change", event.Detail)
	}

	return connect.NewResponse(&api.ChangeRoleResponse{Member: toAPIMember(target)}), nil
}

// DeleteMember removes a member after the admin retypes their name exactly.
// A nil confirmation cancels; a wrong one is reported without deleting anything.
func (s *AdminService) DeleteMember(ctx context.Context, req *connect.Request[api.DeleteMemberRequest]) (*connect.Response[api.DeleteMemberResponse], error) {
	actor, err := s.authorize(ctx, req.Msg.MemberID, policy.ActionDeleteMember)
	if err != nil {
		return nil, err
	}
	if req.Msg.MemberID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingID)
	}

	if req.Msg.ConfirmName == nil {
		return connect.NewResponse(&api.DeleteMemberResponse{Outcome: api.OutcomeCancelled}), nil
	}

	target, err := s.store.GetMember(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, s.storeError("DeleteMember failed", err, "member_id", req.Msg.MemberID)
	}

	if *req.Msg.ConfirmName != target.Name {
		s.logger.Info("DeleteMember confirmation mismatch", "member_id", target.ID, "admin_id", actor.ID)
		return connect.NewResponse(&api.DeleteMemberResponse{Outcome: api.OutcomeConfirmationMismatch}), nil
	}

	event := &models.AuditEvent{
		ID:        uuid.New().String(),
		ActorID:   actor.ID,
		TargetID:  target.ID,
		Action:    models.AuditMemberDelete,
		Detail:    fmt.Sprintf("%s <%s> %s, %d points", target.Name, target.Email, target.Section, target.Points),
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.DeleteMember(ctx, target.ID, event); err != nil {
		return nil, s.storeError("DeleteMember failed", err, "member_id", target.ID)
	}

	s.metrics.Mutation(string(policy.ActionDeleteMember))
	s.publish(ctx, target.ID, realtime.ChangeDeleted)
	s.logger.Info("Member deleted", "member_id", target.ID, "admin_id", actor.ID)

	return connect.NewResponse(&api.DeleteMemberResponse{Applied: true, Outcome: api.OutcomeApplied}), nil
}

// ResetAllPoints zeroes every member's points in one batch and records a
// single system transaction.
func (s *AdminService) ResetAllPoints(ctx context.Context, req *connect.Request[api.ResetAllPointsRequest]) (*connect.Response[api.ResetAllPointsResponse], error) {
	actor, err := s.authorize(ctx, models.SystemTargetID, policy.ActionResetPoints)
	if err != nil {
		return nil, err
	}

	switch {
	case req.Msg.Confirmation == nil:
		return connect.NewResponse(&api.ResetAllPointsResponse{Outcome: api.OutcomeCancelled}), nil
	case *req.Msg.Confirmation != api.ResetConfirmationPhrase:
		return connect.NewResponse(&api.ResetAllPointsResponse{Outcome: api.OutcomeConfirmationMismatch}), nil
	}

	txn := &models.PointTransaction{
		ID:        uuid.New().String(),
		UserID:    models.SystemTargetID,
		AdminID:   actor.ID,
		Points:    0,
		Reason:    ResetReason,
		CreatedAt: time.Now().Unix(),
	}
	ids, err := s.store.ResetAllPoints(ctx, txn)
	if err != nil {
		return nil, s.internal("ResetAllPoints failed", err, "admin_id", actor.ID)
	}

	s.metrics.Mutation(string(policy.ActionResetPoints))
	s.metrics.Reset()
	for _, id := range ids {
		s.publish(ctx, id, realtime.ChangeUpdated)
	}
	s.logger.Warn("All points reset", "admin_id", actor.ID, "members", len(ids))

	return connect.NewResponse(&api.ResetAllPointsResponse{
		Applied:      true,
		Outcome:      api.OutcomeApplied,
		MembersReset: len(ids),
	}), nil
}

// ListTransactions returns a member's point history, newest first.
// History stays available after the member is deleted.
func (s *AdminService) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	if _, err := s.authorize(ctx, req.Msg.MemberID, policy.ActionViewMembers); err != nil {
		return nil, err
	}
	if req.Msg.MemberID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingID)
	}

	txns, err := s.store.ListTransactionsByMember(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, s.internal("ListTransactions failed", err, "member_id", req.Msg.MemberID)
	}

	out := make([]api.PointTransaction, len(txns))
	for i := range txns {
		out[i] = *toAPITransaction(&txns[i])
	}
	return connect.NewResponse(&api.ListTransactionsResponse{Transactions: out}), nil
}
