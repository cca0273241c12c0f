package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/bandpoints/internal/models"
	"github.com/mmynk/bandpoints/pkg/api"
)

func TestChooseSection(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	u := env.register(t, "nia", models.RoleMember, models.SectionUnassigned)
	client := env.memberClient(u.token)

	_, err := client.ChooseSection(ctx, connect.NewRequest(&api.ChooseSectionRequest{Section: "unassigned"}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	resp, err := client.ChooseSection(ctx, connect.NewRequest(&api.ChooseSectionRequest{Section: "Flutes"}))
	require.NoError(t, err)
	assert.Equal(t, "flutes", resp.Msg.Member.Section)

	_, err = client.ChooseSection(ctx, connect.NewRequest(&api.ChooseSectionRequest{Section: "tubas"}))
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err), "the choice is one-time")

	events, err := env.store.ListAuditEvents(ctx, u.member.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, u.member.ID, events[0].ActorID)
}

func TestChooseSectionConcurrentPicks(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	u := env.register(t, "nia", models.RoleMember, models.SectionUnassigned)
	client := env.memberClient(u.token)

	sections := []string{"flutes", "tubas", "trumpets", "clarinets", "percussion", "saxophones"}
	codes := make(chan connect.Code, len(sections))
	var wg sync.WaitGroup
	for _, section := range sections {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.ChooseSection(ctx, connect.NewRequest(&api.ChooseSectionRequest{Section: section}))
			codes <- connect.CodeOf(err)
		}()
	}
	wg.Wait()
	close(codes)

	var ok, locked int
	for code := range codes {
		switch code {
		case 0:
			ok++
		case connect.CodeFailedPrecondition:
			locked++
		default:
			t.Errorf("unexpected code %v", code)
		}
	}
	assert.Equal(t, 1, ok, "exactly one pick wins")
	assert.Equal(t, len(sections)-1, locked)

	events, err := env.store.ListAuditEvents(ctx, u.member.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

// receiveSnapshot reads the next stream message or fails the test.
func receiveSnapshot(t *testing.T, stream *connect.ServerStreamForClient[api.MemberSnapshot]) *api.MemberSnapshot {
	t.Helper()
	if !stream.Receive() {
		t.Fatalf("stream ended: %v", stream.Err())
	}
	return stream.Msg()
}

func TestWatchMember(t *testing.T) {
	env := setupTestServer(t)

	head := env.register(t, "hana", models.RoleHeadAdmin, "percussion")
	u := env.register(t, "Tess", models.RoleMember, "tubas")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := env.memberClient(u.token).WatchMember(ctx, connect.NewRequest(&api.WatchMemberRequest{}))
	require.NoError(t, err)
	defer stream.Close()

	snap := receiveSnapshot(t, stream)
	require.NotNil(t, snap.Member)
	assert.Equal(t, int64(0), snap.Member.Points)

	admin := env.adminClient(head.token)
	_, err = admin.AdjustPoints(ctx, connect.NewRequest(&api.AdjustPointsRequest{MemberID: u.member.ID, Points: 15}))
	require.NoError(t, err)

	snap = receiveSnapshot(t, stream)
	require.NotNil(t, snap.Member)
	assert.Equal(t, int64(15), snap.Member.Points)

	_, err = admin.ChangeRole(ctx, connect.NewRequest(&api.ChangeRoleRequest{MemberID: u.member.ID, Role: string(models.RoleAdmin)}))
	require.NoError(t, err)

	snap = receiveSnapshot(t, stream)
	require.NotNil(t, snap.Member)
	assert.Equal(t, string(models.RoleAdmin), snap.Member.Role)

	_, err = admin.DeleteMember(ctx, connect.NewRequest(&api.DeleteMemberRequest{MemberID: u.member.ID, ConfirmName: strPtr("Tess")}))
	require.NoError(t, err)

	snap = receiveSnapshot(t, stream)
	assert.True(t, snap.Deleted)
	assert.Nil(t, snap.Member)

	assert.False(t, stream.Receive(), "stream ends after deletion")
	assert.NoError(t, stream.Err())
}

func TestWatchMemberRequiresToken(t *testing.T) {
	env := setupTestServer(t)

	stream, err := env.memberClient("").WatchMember(context.Background(), connect.NewRequest(&api.WatchMemberRequest{}))
	if err == nil {
		defer stream.Close()
		assert.False(t, stream.Receive())
		err = stream.Err()
	}
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}
