// Package service implements the bandpoints Connect services.
//
// Every privileged call re-reads the caller's member record from the store
// and asks the policy package before touching anything. The role embedded in
// a client (or in a token) is never trusted.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/bandpoints/internal/auth"
	"github.com/mmynk/bandpoints/internal/metrics"
	"github.com/mmynk/bandpoints/internal/middleware"
	"github.com/mmynk/bandpoints/internal/models"
	"github.com/mmynk/bandpoints/internal/policy"
	"github.com/mmynk/bandpoints/internal/realtime"
	"github.com/mmynk/bandpoints/internal/storage"
	"github.com/mmynk/bandpoints/pkg/api"
)

var (
	errTryAgain    = errors.New("something went wrong, please try again")
	errMemberGone  = errors.New("member record not found; sign in again")
	errMissingID   = errors.New("member_id is required")
	errUnknownRole = errors.New("unknown role")
)

// Deps are the collaborators shared by all services.
type Deps struct {
	Store         storage.Store
	Authenticator auth.Authenticator
	JWT           *auth.JWTManager
	Broker        realtime.Broker
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// Mount registers every service on mux. AuthService authenticates optionally
// (Register and SignIn are public); the others require a token.
func Mount(mux *http.ServeMux, d Deps) {
	public := connect.WithInterceptors(middleware.OptionalAuth(d.JWT), middleware.LoggingInterceptor())
	private := connect.WithInterceptors(middleware.RequireAuth(d.JWT), middleware.LoggingInterceptor())

	mux.Handle(api.NewAuthServiceHandler(NewAuthService(d), public))
	mux.Handle(api.NewMemberServiceHandler(NewMemberService(d), private))
	mux.Handle(api.NewLeaderboardServiceHandler(NewLeaderboardService(d), private))
	mux.Handle(api.NewAdminServiceHandler(NewAdminService(d), private))
}

// base holds what every service needs.
type base struct {
	store   storage.Store
	broker  realtime.Broker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func newBase(d Deps) *base {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &base{store: d.Store, broker: d.Broker, metrics: d.Metrics, logger: logger}
}

// actor loads the caller's member record.
func (b *base) actor(ctx context.Context) (*models.Member, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	member, err := b.store.GetMember(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connect.NewError(connect.CodeUnauthenticated, errMemberGone)
	}
	if err != nil {
		return nil, b.internal("Failed to load caller", err, "user_id", userID)
	}
	return member, nil
}

// authorize loads the caller and checks action against targetID.
func (b *base) authorize(ctx context.Context, targetID string, action policy.Action) (*models.Member, error) {
	actor, err := b.actor(ctx)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(actor, targetID, action); err != nil {
		b.metrics.Denied(string(action))
		b.logger.Warn("Permission denied",
			"actor_id", actor.ID,
			"role", actor.Role,
			"action", action,
			"target_id", targetID,
		)
		if errors.Is(err, policy.ErrSectionLocked) {
			return nil, connect.NewError(connect.CodeFailedPrecondition, err)
		}
		return nil, connect.NewError(connect.CodePermissionDenied, err)
	}
	return actor, nil
}

// internal logs err and returns a generic error to the caller.
func (b *base) internal(msg string, err error, args ...any) error {
	b.logger.Error(msg, append(args, "error", err)...)
	return connect.NewError(connect.CodeInternal, errTryAgain)
}

// storeError maps a store failure to a Connect error.
func (b *base) storeError(msg string, err error, args ...any) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return b.internal(msg, err, args...)
}

// publish notifies subscribers after a committed change. Failures are logged only:
// the change itself already succeeded.
func (b *base) publish(ctx context.Context, memberID string, kind realtime.ChangeKind) {
	if b.broker == nil {
		return
	}
	ev := realtime.Event{MemberID: memberID, Kind: kind}
	if err := b.broker.Publish(context.WithoutCancel(ctx), ev); err != nil {
		b.logger.Warn("Failed to publish member change", "member_id", memberID, "kind", kind, "error", err)
	}
}

func toAPIMember(m *models.Member) *api.Member {
	if m == nil {
		return nil
	}
	return &api.Member{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		AvatarURL: m.AvatarURL,
		Section:   m.Section,
		Role:      string(m.Role),
		Points:    m.Points,
		CreatedAt: m.CreatedAt,
	}
}

func toAPISection(s models.Section) api.Section {
	return api.Section{ID: s.ID, Name: s.Name, Icon: s.Icon}
}

func toAPITransaction(t *models.PointTransaction) *api.PointTransaction {
	return &api.PointTransaction{
		ID:        t.ID,
		UserID:    t.UserID,
		AdminID:   t.AdminID,
		Points:    t.Points,
		Reason:    t.Reason,
		CreatedAt: t.CreatedAt,
	}
}

// sectionName returns the display name for a stored section value.
func sectionName(id string) string {
	if s, ok := models.LookupSection(id); ok {
		return s.Name
	}
	return "Unassigned"
}
