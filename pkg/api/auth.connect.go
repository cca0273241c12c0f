package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const AuthServiceName = "bandpoints.v1.AuthService"

const (
	AuthServiceRegisterProcedure         = "/bandpoints.v1.AuthService/Register"
	AuthServiceSignInProcedure           = "/bandpoints.v1.AuthService/SignIn"
	AuthServiceSignOutProcedure          = "/bandpoints.v1.AuthService/SignOut"
	AuthServiceGetCurrentMemberProcedure = "/bandpoints.v1.AuthService/GetCurrentMember"
)

// AuthServiceHandler is implemented by the server.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	SignIn(context.Context, *connect.Request[SignInRequest]) (*connect.Response[SignInResponse], error)
	SignOut(context.Context, *connect.Request[SignOutRequest]) (*connect.Response[SignOutResponse], error)
	GetCurrentMember(context.Context, *connect.Request[GetCurrentMemberRequest]) (*connect.Response[GetCurrentMemberResponse], error)
}

// NewAuthServiceHandler returns the path prefix and handler to mount on a mux.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(AuthServiceRegisterProcedure, connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...))
	mux.Handle(AuthServiceSignInProcedure, connect.NewUnaryHandler(AuthServiceSignInProcedure, svc.SignIn, opts...))
	mux.Handle(AuthServiceSignOutProcedure, connect.NewUnaryHandler(AuthServiceSignOutProcedure, svc.SignOut, opts...))
	mux.Handle(AuthServiceGetCurrentMemberProcedure, connect.NewUnaryHandler(AuthServiceGetCurrentMemberProcedure, svc.GetCurrentMember, opts...))
	return "/" + AuthServiceName + "/", mux
}

// AuthServiceClient calls AuthService.
type AuthServiceClient struct {
	register         *connect.Client[RegisterRequest, RegisterResponse]
	signIn           *connect.Client[SignInRequest, SignInResponse]
	signOut          *connect.Client[SignOutRequest, SignOutResponse]
	getCurrentMember *connect.Client[GetCurrentMemberRequest, GetCurrentMemberResponse]
}

func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &AuthServiceClient{
		register:         connect.NewClient[RegisterRequest, RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		signIn:           connect.NewClient[SignInRequest, SignInResponse](httpClient, baseURL+AuthServiceSignInProcedure, opts...),
		signOut:          connect.NewClient[SignOutRequest, SignOutResponse](httpClient, baseURL+AuthServiceSignOutProcedure, opts...),
		getCurrentMember: connect.NewClient[GetCurrentMemberRequest, GetCurrentMemberResponse](httpClient, baseURL+AuthServiceGetCurrentMemberProcedure, opts...),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) SignIn(ctx context.Context, req *connect.Request[SignInRequest]) (*connect.Response[SignInResponse], error) {
	return c.signIn.CallUnary(ctx, req)
}

func (c *AuthServiceClient) SignOut(ctx context.Context, req *connect.Request[SignOutRequest]) (*connect.Response[SignOutResponse], error) {
	return c.signOut.CallUnary(ctx, req)
}

func (c *AuthServiceClient) GetCurrentMember(ctx context.Context, req *connect.Request[GetCurrentMemberRequest]) (*connect.Response[GetCurrentMemberResponse], error) {
	return c.getCurrentMember.CallUnary(ctx, req)
}
