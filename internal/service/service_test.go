package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/bandpoints/internal/auth"
	"github.com/mmynk/bandpoints/internal/metrics"
	"github.com/mmynk/bandpoints/internal/middleware"
	"github.com/mmynk/bandpoints/internal/models"
	"github.com/mmynk/bandpoints/internal/realtime"
	"github.com/mmynk/bandpoints/internal/storage/sqlite"
	"github.com/mmynk/bandpoints/pkg/api"
)

// testEnv is a running server backed by a temp SQLite database.
type testEnv struct {
	store   *sqlite.SQLiteStore
	metrics *metrics.Metrics
	url     string
}

// setupTestServer creates a test server with every service mounted.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	broker := realtime.NewMemoryBroker()
	m := metrics.New()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	mux := http.NewServeMux()
	Mount(mux, Deps{
		Store:         store,
		Authenticator: auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost),
		JWT:           jwtManager,
		Broker:        broker,
		Metrics:       m,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	mux.Handle("/metrics", m.Handler())

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		broker.Close()
		store.Close()
	})

	return &testEnv{store: store, metrics: m, url: server.URL}
}

func withToken(token string) connect.ClientOption {
	return connect.WithInterceptors(middleware.BearerToken(func() string { return token }))
}

func (e *testEnv) authClient(token string) *api.AuthServiceClient {
	return api.NewAuthServiceClient(http.DefaultClient, e.url, withToken(token))
}

func (e *testEnv) memberClient(token string) *api.MemberServiceClient {
	return api.NewMemberServiceClient(http.DefaultClient, e.url, withToken(token))
}

func (e *testEnv) leaderboardClient(token string) *api.LeaderboardServiceClient {
	return api.NewLeaderboardServiceClient(http.DefaultClient, e.url, withToken(token))
}

func (e *testEnv) adminClient(token string) *api.AdminServiceClient {
	return api.NewAdminServiceClient(http.DefaultClient, e.url, withToken(token))
}

// user is a registered identity with a member record.
type user struct {
	token  string
	member *api.Member
}

// register signs up name, then sets role and section directly in the store.
func (e *testEnv) register(t *testing.T, name string, role models.Role, section string) user {
	t.Helper()
	ctx := context.Background()

	resp, err := e.authClient("").Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:       name + "@band.org",
		DisplayName: name,
		Password:    "marching-on",
	}))
	require.NoError(t, err, "Register %s", name)

	id := resp.Msg.Member.ID
	if role != models.RoleMember {
		require.NoError(t, e.store.UpdateMemberRole(ctx, id, role, nil))
	}
	if section != models.SectionUnassigned {
		require.NoError(t, e.store.UpdateMemberSection(ctx, id, section, nil))
	}

	member, err := e.store.GetMember(ctx, id)
	require.NoError(t, err)
	return user{token: resp.Msg.Token, member: toAPIMember(member)}
}

// setPoints gives a member an exact total through a recorded adjustment.
func (e *testEnv) setPoints(t *testing.T, memberID string, points int64) {
	t.Helper()
	if points == 0 {
		return
	}
	_, err := e.store.AdjustPoints(context.Background(), &models.PointTransaction{
		ID:      memberID + "-seed",
		UserID:  memberID,
		AdminID: "seed",
		Points:  points,
		Reason:  "seed",
	})
	require.NoError(t, err)
}

func (e *testEnv) scrapeMetrics(t *testing.T) string {
	t.Helper()
	resp, err := http.Get(e.url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func strPtr(s string) *string { return &s }
