package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/bandpoints/internal/auth"
	"github.com/mmynk/bandpoints/internal/middleware"
	"github.com/mmynk/bandpoints/internal/models"
	"github.com/mmynk/bandpoints/internal/policy"
	"github.com/mmynk/bandpoints/internal/realtime"
	"github.com/mmynk/bandpoints/internal/storage"
	"github.com/mmynk/bandpoints/pkg/api"
)

// Ensure MemberService implements api.MemberServiceHandler
var _ api.MemberServiceHandler = (*MemberService)(nil)

var errChooseUnassigned = errors.New("choose one of the instrument sections")

// MemberService serves the signed-in member's own record.
type MemberService struct {
	*base
}

// NewMemberService creates a new MemberService.
func NewMemberService(d Deps) *MemberService {
	return &MemberService{base: newBase(d)}
}

// ChooseSection lets an unassigned member pick their section once.
func (s *MemberService) ChooseSection(ctx context.Context, req *connect.Request[api.ChooseSectionRequest]) (*connect.Response[api.ChooseSectionResponse], error) {
	userID := middleware.GetUserID(ctx)
	actor, err := s.authorize(ctx, userID, policy.ActionChooseOwnSection)
	if err != nil {
		return nil, err
	}

	section, ok := models.LookupSection(req.Msg.Section)
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, errChooseUnassigned)
	}

	event := &models.AuditEvent{
		ID:        uuid.New().String(),
		ActorID:   actor.ID,
		TargetID:  actor.ID,
		Action:    models.AuditSectionChange,
		Detail:    fmt.Sprintf("%s->%s", actor.Section, section.ID),
		CreatedAt: time.Now().Unix(),
	}
	// A concurrent pick may have landed since authorize read the record.
	if err := s.store.ClaimSection(ctx, actor.ID, section.ID, event); err != nil {
		if errors.Is(err, storage.ErrSectionChosen) {
			s.metrics.Denied(string(policy.ActionChooseOwnSection))
			return nil, connect.NewError(connect.CodeFailedPrecondition, policy.ErrSectionLocked)
		}
		return nil, s.storeError("ChooseSection failed", err, "user_id", actor.ID)
	}

	updated, err := s.store.GetMember(ctx, actor.ID)
	if err != nil {
		return nil, s.storeError("Failed to reload member", err, "user_id", actor.ID)
	}

	s.metrics.Mutation(string(policy.ActionChooseOwnSection))
	s.publish(ctx, actor.ID, realtime.ChangeUpdated)
	s.logger.Info("Section chosen", "user_id", actor.ID, "section", section.ID)

	return connect.NewResponse(&api.ChooseSectionResponse{Member: toAPIMember(updated)}), nil
}

// WatchMember streams the caller's member record: the current snapshot first,
// then a fresh snapshot after every change. The stream ends after a deletion
// snapshot or when the client disconnects.
func (s *MemberService) WatchMember(ctx context.Context, req *connect.Request[api.WatchMemberRequest], stream *connect.ServerStream[api.MemberSnapshot]) error {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	// Subscribe before the first read so no change between the two is lost.
	events, err := s.broker.Subscribe(ctx, userID)
	if err != nil {
		return s.internal("Failed to subscribe to member changes", err, "user_id", userID)
	}

	s.metrics.StreamOpened()
	defer s.metrics.StreamClosed()

	done, err := s.sendSnapshot(ctx, stream, userID)
	if err != nil || done {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			done, err := s.sendSnapshot(ctx, stream, userID)
			if err != nil || done {
				return err
			}
		}
	}
}

// sendSnapshot re-reads the member and pushes it. done is true after a deletion.
func (s *MemberService) sendSnapshot(ctx context.Context, stream *connect.ServerStream[api.MemberSnapshot], userID string) (done bool, err error) {
	member, err := s.store.GetMember(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return true, stream.Send(&api.MemberSnapshot{Deleted: true})
	}
	if err != nil {
		return false, s.internal("Failed to read member for snapshot", err, "user_id", userID)
	}
	return false, stream.Send(&api.MemberSnapshot{Member: toAPIMember(member)})
}
