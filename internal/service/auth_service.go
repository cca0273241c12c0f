package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/bandpoints/internal/auth"
	"github.com/mmynk/bandpoints/internal/middleware"
	"github.com/mmynk/bandpoints/internal/models"
	"github.com/mmynk/bandpoints/internal/realtime"
	"github.com/mmynk/bandpoints/internal/storage"
	"github.com/mmynk/bandpoints/pkg/api"
)

// Ensure AuthService implements api.AuthServiceHandler
var _ api.AuthServiceHandler = (*AuthService)(nil)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	*base
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates a new authentication service.
func NewAuthService(d Deps) *AuthService {
	return &AuthService{
		base:          newBase(d),
		authenticator: d.Authenticator,
		jwtManager:    d.JWT,
	}
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	account, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, s.internal("Registration failed", err, "email", req.Msg.Email)
	}

	member, _, err := s.signIn(ctx, account)
	if err != nil {
		return nil, err
	}

	token, err := s.jwtManager.Generate(account)
	if err != nil {
		return nil, s.internal("Failed to generate token", err, "user_id", account.ID)
	}

	s.logger.Info("Account registered", "user_id", account.ID, "email", account.Email)
	return connect.NewResponse(&api.RegisterResponse{
		Token:  token,
		Member: toAPIMember(member),
	}), nil
}

// SignIn authenticates an account and returns a session token.
// The member record is created on the first sign-in.
func (s *AuthService) SignIn(ctx context.Context, req *connect.Request[api.SignInRequest]) (*connect.Response[api.SignInResponse], error) {
	s.logger.Info("SignIn request", "email", req.Msg.Email)

	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	account, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.metrics.SignIn(false)
		s.logger.Warn("Sign-in failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	member, created, err := s.signIn(ctx, account)
	if err != nil {
		return nil, err
	}

	token, err := s.jwtManager.Generate(account)
	if err != nil {
		return nil, s.internal("Failed to generate token", err, "user_id", account.ID)
	}

	s.metrics.SignIn(true)
	s.logger.Info("Signed in", "user_id", account.ID, "created", created)
	return connect.NewResponse(&api.SignInResponse{
		Token:   token,
		Member:  toAPIMember(member),
		Created: created,
	}), nil
}

// signIn makes sure the account has a member record.
func (s *AuthService) signIn(ctx context.Context, account *models.Account) (*models.Member, bool, error) {
	member, created, err := s.store.EnsureMember(ctx, models.NewMember(account))
	if err != nil {
		return nil, false, s.internal("Failed to create member record", err, "user_id", account.ID)
	}
	if created {
		s.logger.Info("Member record created", "user_id", member.ID, "name", member.Name)
		s.publish(ctx, member.ID, realtime.ChangeUpdated)
	}
	return member, created, nil
}

// SignOut is a no-op on the server: tokens are stateless and the client discards its copy.
func (s *AuthService) SignOut(ctx context.Context, req *connect.Request[api.SignOutRequest]) (*connect.Response[api.SignOutResponse], error) {
	s.logger.Info("SignOut request", "user_id", middleware.GetUserID(ctx))
	return connect.NewResponse(&api.SignOutResponse{}), nil
}

// GetCurrentMember returns the caller's member record.
func (s *AuthService) GetCurrentMember(ctx context.Context, req *connect.Request[api.GetCurrentMemberRequest]) (*connect.Response[api.GetCurrentMemberResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	member, err := s.store.GetMember(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, errMemberGone)
	}
	if err != nil {
		return nil, s.internal("GetCurrentMember failed", err, "user_id", userID)
	}

	return connect.NewResponse(&api.GetCurrentMemberResponse{Member: toAPIMember(member)}), nil
}
