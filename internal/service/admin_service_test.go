package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/bandpoints/internal/models"
	"github.com/mmynk/bandpoints/pkg/api"
)

func TestPermissionDenials(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	member := env.register(t, "mo", models.RoleMember, "tubas")
	admin := env.register(t, "al", models.RoleAdmin, "flutes")
	head := env.register(t, "hana", models.RoleHeadAdmin, "percussion")

	tests := []struct {
		name string
		call func() error
		want connect.Code
	}{
		{
			name: "member cannot adjust points",
			call: func() error {
				_, err := env.adminClient(member.token).AdjustPoints(ctx, connect.NewRequest(&api.AdjustPointsRequest{
					MemberID: member.member.ID, Points: 100,
				}))
				return err
			},
			want: connect.CodePermissionDenied,
		},
		{
			name: "member cannot list members",
			call: func() error {
				_, err := env.adminClient(member.token).ListMembers(ctx, connect.NewRequest(&api.ListMembersRequest{}))
				return err
			},
			want: connect.CodePermissionDenied,
		},
		{
			name: "admin cannot change roles",
			call: func() error {
				_, err := env.adminClient(admin.token).ChangeRole(ctx, connect.NewRequest(&api.ChangeRoleRequest{
					MemberID: admin.member.ID, Role: string(models.RoleHeadAdmin),
				}))
				return err
			},
			want: connect.CodePermissionDenied,
		},
		{
			name: "admin cannot delete",
			call: func() error {
				_, err := env.adminClient(admin.token).DeleteMember(ctx, connect.NewRequest(&api.DeleteMemberRequest{
					MemberID: member.member.ID, ConfirmName: strPtr("mo"),
				}))
				return err
			},
			want: connect.CodePermissionDenied,
		},
		{
			name: "admin cannot reset",
			call: func() error {
				_, err := env.adminClient(admin.token).ResetAllPoints(ctx, connect.NewRequest(&api.ResetAllPointsRequest{
					Confirmation: strPtr(api.ResetConfirmationPhrase),
				}))
				return err
			},
			want: connect.CodePermissionDenied,
		},
		{
			name: "head admin cannot change own role",
			call: func() error {
				_, err := env.adminClient(head.token).ChangeRole(ctx, connect.NewRequest(&api.ChangeRoleRequest{
					MemberID: head.member.ID, Role: string(models.RoleMember),
				}))
				return err
			},
			want: connect.CodePermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.want, connect.CodeOf(err))
		})
	}

	// Nothing changed.
	for _, u := range []user{member, admin, head} {
		stored, err := env.store.GetMember(ctx, u.member.ID)
		require.NoError(t, err)
		assert.Equal(t, u.member.Role, string(stored.Role))
		assert.Equal(t, u.member.Points, stored.Points)
	}
	txns, err := env.store.ListTransactionsByMember(ctx, models.SystemTargetID)
	require.NoError(t, err)
	assert.Empty(t, txns)

	body := env.scrapeMetrics(t)
	assert.Contains(t, body, `bandpoints_permission_denials_total{action="change_role"} 2`)
	assert.Contains(t, body, `bandpoints_permission_denials_total{action="adjust_points"} 1`)
}

func TestRoleIsReadFromStoreOnEveryCall(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	admin := env.register(t, "al", models.RoleAdmin, "flutes")
	target := env.register(t, "tess", models.RoleMember, "flutes")

	req := &api.AdjustPointsRequest{MemberID: target.member.ID, Points: 5}
	_, err := env.adminClient(admin.token).AdjustPoints(ctx, connect.NewRequest(req))
	require.NoError(t, err)

	// Demoted while holding a valid token.
	require.NoError(t, env.store.UpdateMemberRole(ctx, admin.member.ID, models.RoleMember, nil))

	_, err = env.adminClient(admin.token).AdjustPoints(ctx, connect.NewRequest(req))
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))
}

func TestAdjustPoints(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	admin := env.register(t, "al", models.RoleAdmin, "flutes")
	target := env.register(t, "tess", models.RoleMember, "tubas")
	client := env.adminClient(admin.token)

	resp, err := client.AdjustPoints(ctx, connect.NewRequest(&api.AdjustPointsRequest{
		MemberID: target.member.ID, Points: 25, Reason: "Great rehearsal",
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(25), resp.Msg.Member.Points)
	assert.Equal(t, admin.member.ID, resp.Msg.Transaction.AdminID)
	assert.Equal(t, "Great rehearsal", resp.Msg.Transaction.Reason)

	resp, err = client.AdjustPoints(ctx, connect.NewRequest(&api.AdjustPointsRequest{
		MemberID: target.member.ID, Points: -25, Reason: "   ",
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Msg.Member.Points, "d then -d restores the total")
	assert.Equal(t, models.DefaultReason, resp.Msg.Transaction.Reason)

	history, err := client.ListTransactions(ctx, connect.NewRequest(&api.ListTransactionsRequest{MemberID: target.member.ID}))
	require.NoError(t, err)
	require.Len(t, history.Msg.Transactions, 2, "one transaction per call")
	assert.Equal(t, int64(-25), history.Msg.Transactions[0].Points, "newest first")
	assert.Equal(t, int64(25), history.Msg.Transactions[1].Points)

	t.Run("zero delta", func(t *testing.T) {
		_, err := client.AdjustPoints(ctx, connect.NewRequest(&api.AdjustPointsRequest{MemberID: target.member.ID}))
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := client.AdjustPoints(ctx, connect.NewRequest(&api.AdjustPointsRequest{MemberID: "ghost", Points: 3}))
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

		txns, err := env.store.ListTransactionsByMember(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, txns)
	})

	t.Run("negative totals are allowed", func(t *testing.T) {
		resp, err := client.AdjustPoints(ctx, connect.NewRequest(&api.AdjustPointsRequest{MemberID: target.member.ID, Points: -7}))
		require.NoError(t, err)
		assert.Equal(t, int64(-7), resp.Msg.Member.Points)
	})
}

// metricValue returns the value of an unlabelled series from a /metrics scrape.
func metricValue(t *testing.T, body, name string) float64 {
	t.Helper()
	for _, line := range strings.Split(body, "\n") {
		if v, ok := strings.CutPrefix(line, name+" "); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			require.NoError(t, err)
			return f
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestAdjustPointsExtremeDeltas(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	admin := env.register(t, "al", models.RoleAdmin, "flutes")
	target := env.register(t, "tess", models.RoleMember, "tubas")
	client := env.adminClient(admin.token)

	resp, err := client.AdjustPoints(ctx, connect.NewRequest(&api.AdjustPointsRequest{
		MemberID: target.member.ID, Points: math.MinInt64, Reason: "floor",
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), resp.Msg.Member.Points)

	body := env.scrapeMetrics(t)
	assert.Equal(t, -float64(math.MinInt64), metricValue(t, body, "bandpoints_points_deducted_total"))
	assert.Contains(t, body, `bandpoints_mutations_total{action="adjust_points"} 1`)

	// Going lower would wrap around; nothing is written.
	_, err = client.AdjustPoints(ctx, connect.NewRequest(&api.AdjustPointsRequest{
		MemberID: target.member.ID, Points: -1,
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	stored, err := env.store.GetMember(ctx, target.member.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), stored.Points)
	txns, err := env.store.ListTransactionsByMember(ctx, target.member.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	resp, err = client.AdjustPoints(ctx, connect.NewRequest(&api.AdjustPointsRequest{
		MemberID: target.member.ID, Points: math.MaxInt64,
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), resp.Msg.Member.Points)
	assert.Equal(t, float64(math.MaxInt64), metricValue(t, env.scrapeMetrics(t), "bandpoints_points_awarded_total"))
}

func TestAssignSection(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	admin := env.register(t, "al", models.RoleAdmin, "flutes")
	newbie := env.register(t, "Nia", models.RoleMember, models.SectionUnassigned)
	client := env.adminClient(admin.token)

	resp, err := client.AssignSection(ctx, connect.NewRequest(&api.AssignSectionRequest{
		MemberID: newbie.member.ID, Section: "trumpets",
	}))
	require.NoError(t, err)
	assert.False(t, resp.Msg.Applied)
	assert.Equal(t, api.OutcomeConfirmationRequired, resp.Msg.Outcome)
	assert.Equal(t, "Assign Nia to Trumpets?", resp.Msg.Prompt)

	stored, err := env.store.GetMember(ctx, newbie.member.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SectionUnassigned, stored.Section, "unconfirmed request changes nothing")

	resp, err = client.AssignSection(ctx, connect.NewRequest(&api.AssignSectionRequest{
		MemberID: newbie.member.ID, Section: "Trumpets", Confirmed: true,
	}))
	require.NoError(t, err)
	assert.True(t, resp.Msg.Applied)
	assert.Equal(t, "trumpets", resp.Msg.Member.Section)

	resp, err = client.AssignSection(ctx, connect.NewRequest(&api.AssignSectionRequest{
		MemberID: newbie.member.ID, Section: "drum majors",
	}))
	require.NoError(t, err)
	assert.Equal(t,
		"Change Nia's section from Trumpets to Drum Majors? This will affect leaderboard standings.",
		resp.Msg.Prompt)

	events, err := env.store.ListAuditEvents(ctx, newbie.member.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.AuditSectionChange, events[0].Action)
	assert.Equal(t, admin.member.ID, events[0].ActorID)
	assert.Equal(t, "unassigned->trumpets", events[0].Detail)

	t.Run("unknown section", func(t *testing.T) {
		_, err := client.AssignSection(ctx, connect.NewRequest(&api.AssignSectionRequest{
			MemberID: newbie.member.ID, Section: "kazoos", Confirmed: true,
		}))
		assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	})

	t.Run("back to unassigned", func(t *testing.T) {
		resp, err := client.AssignSection(ctx, connect.NewRequest(&api.AssignSectionRequest{
			MemberID: newbie.member.ID, Section: "unassigned", Confirmed: true,
		}))
		require.NoError(t, err)
		assert.Equal(t, models.SectionUnassigned, resp.Msg.Member.Section)
	})
}

func TestChangeRole(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	head := env.register(t, "hana", models.RoleHeadAdmin, "percussion")
	target := env.register(t, "tess", models.RoleMember, "tubas")
	client := env.adminClient(head.token)

	resp, err := client.ChangeRole(ctx, connect.NewRequest(&api.ChangeRoleRequest{
		MemberID: target.member.ID, Role: string(models.RoleAdmin),
	}))
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleAdmin), resp.Msg.Member.Role)

	events, err := env.store.ListAuditEvents(ctx, target.member.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "member->admin", events[0].Detail)

	// The promoted member can now act as an admin with the same token.
	_, err = env.adminClient(target.token).ListMembers(ctx, connect.NewRequest(&api.ListMembersRequest{}))
	assert.NoError(t, err)

	_, err = client.ChangeRole(ctx, connect.NewRequest(&api.ChangeRoleRequest{
		MemberID: target.member.ID, Role: "owner",
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.ChangeRole(ctx, connect.NewRequest(&api.ChangeRoleRequest{
		MemberID: "ghost", Role: string(models.RoleAdmin),
	}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestDeleteMember(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	head := env.register(t, "hana", models.RoleHeadAdmin, "percussion")
	target := env.register(t, "Tess", models.RoleMember, "tubas")
	client := env.adminClient(head.token)

	_, err := client.AdjustPoints(ctx, connect.NewRequest(&api.AdjustPointsRequest{
		MemberID: target.member.ID, Points: 40, Reason: "Solo",
	}))
	require.NoError(t, err)

	t.Run("nil confirmation cancels", func(t *testing.T) {
		resp, err := client.DeleteMember(ctx, connect.NewRequest(&api.DeleteMemberRequest{MemberID: target.member.ID}))
		require.NoError(t, err)
		assert.False(t, resp.Msg.Applied)
		assert.Equal(t, api.OutcomeCancelled, resp.Msg.Outcome)
	})

	t.Run("mismatched name changes nothing", func(t *testing.T) {
		resp, err := client.DeleteMember(ctx, connect.NewRequest(&api.DeleteMemberRequest{
			MemberID: target.member.ID, ConfirmName: strPtr("tess"),
		}))
		require.NoError(t, err)
		assert.False(t, resp.Msg.Applied)
		assert.Equal(t, api.OutcomeConfirmationMismatch, resp.Msg.Outcome)

		_, err = env.store.GetMember(ctx, target.member.ID)
		assert.NoError(t, err)
		events, err := env.store.ListAuditEvents(ctx, target.member.ID)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	resp, err := client.DeleteMember(ctx, connect.NewRequest(&api.DeleteMemberRequest{
		MemberID: target.member.ID, ConfirmName: strPtr("Tess"),
	}))
	require.NoError(t, err)
	assert.True(t, resp.Msg.Applied)

	standings, err := env.leaderboardClient(head.token).GetSectionStandings(ctx, connect.NewRequest(&api.GetSectionStandingsRequest{}))
	require.NoError(t, err)
	for _, row := range standings.Msg.Standings {
		assert.NotEqual(t, "tubas", row.Section.ID, "deleted member vanishes from standings")
	}

	history, err := client.ListTransactions(ctx, connect.NewRequest(&api.ListTransactionsRequest{MemberID: target.member.ID}))
	require.NoError(t, err)
	require.Len(t, history.Msg.Transactions, 1, "transactions outlive the member")
	assert.Equal(t, int64(40), history.Msg.Transactions[0].Points)

	events, err := env.store.ListAuditEvents(ctx, target.member.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.AuditMemberDelete, events[0].Action)

	t.Run("deleted member's token no longer works", func(t *testing.T) {
		_, err := env.authClient(target.token).GetCurrentMember(ctx, connect.NewRequest(&api.GetCurrentMemberRequest{}))
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
		_, err = env.leaderboardClient(target.token).GetSectionStandings(ctx, connect.NewRequest(&api.GetSectionStandingsRequest{}))
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("signing in again recreates a fresh record", func(t *testing.T) {
		resp, err := env.authClient("").SignIn(ctx, connect.NewRequest(&api.SignInRequest{
			Email: "tess@band.org", Password: "marching-on",
		}))
		require.NoError(t, err)
		assert.True(t, resp.Msg.Created)
		assert.Equal(t, int64(0), resp.Msg.Member.Points)
		assert.Equal(t, models.SectionUnassigned, resp.Msg.Member.Section)
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := client.DeleteMember(ctx, connect.NewRequest(&api.DeleteMemberRequest{
			MemberID: "ghost", ConfirmName: strPtr("ghost"),
		}))
		assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	})
}

func TestResetAllPoints(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	head := env.register(t, "hana", models.RoleHeadAdmin, "percussion")
	a := env.register(t, "amy", models.RoleMember, "trumpets")
	b := env.register(t, "bo", models.RoleMember, "tubas")
	env.setPoints(t, a.member.ID, 30)
	env.setPoints(t, b.member.ID, -4)
	client := env.adminClient(head.token)

	resp, err := client.ResetAllPoints(ctx, connect.NewRequest(&api.ResetAllPointsRequest{Confirmation: strPtr("reset all points")}))
	require.NoError(t, err)
	assert.Equal(t, api.OutcomeConfirmationMismatch, resp.Msg.Outcome)

	resp, err = client.ResetAllPoints(ctx, connect.NewRequest(&api.ResetAllPointsRequest{}))
	require.NoError(t, err)
	assert.Equal(t, api.OutcomeCancelled, resp.Msg.Outcome)

	stored, err := env.store.GetMember(ctx, a.member.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), stored.Points, "unconfirmed reset changes nothing")

	resp, err = client.ResetAllPoints(ctx, connect.NewRequest(&api.ResetAllPointsRequest{
		Confirmation: strPtr(api.ResetConfirmationPhrase),
	}))
	require.NoError(t, err)
	assert.True(t, resp.Msg.Applied)
	assert.Equal(t, 3, resp.Msg.MembersReset)

	members, err := env.store.ListMembers(ctx)
	require.NoError(t, err)
	for _, m := range members {
		assert.Equal(t, int64(0), m.Points, m.Name)
	}

	system, err := env.store.ListTransactionsByMember(ctx, models.SystemTargetID)
	require.NoError(t, err)
	require.Len(t, system, 1)
	assert.Equal(t, int64(0), system[0].Points)
	assert.Equal(t, head.member.ID, system[0].AdminID)
	assert.Equal(t, ResetReason, system[0].Reason)
}

func TestListMembersSearch(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	admin := env.register(t, "al", models.RoleAdmin, "flutes")
	env.register(t, "zoe", models.RoleMember, "saxophones")
	env.register(t, "bea", models.RoleMember, "tubas")

	resp, err := env.adminClient(admin.token).ListMembers(ctx, connect.NewRequest(&api.ListMembersRequest{}))
	require.NoError(t, err)
	names := make([]string, len(resp.Msg.Members))
	for i, m := range resp.Msg.Members {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"al", "bea", "zoe"}, names)

	resp, err = env.adminClient(admin.token).ListMembers(ctx, connect.NewRequest(&api.ListMembersRequest{Search: "SAX"}))
	require.NoError(t, err)
	require.Len(t, resp.Msg.Members, 1)
	assert.Equal(t, "zoe", resp.Msg.Members[0].Name)
}
