package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const AdminServiceName = "bandpoints.v1.AdminService"

const (
	AdminServiceListMembersProcedure      = "/bandpoints.v1.AdminService/ListMembers"
	AdminServiceAdjustPointsProcedure     = "/bandpoints.v1.AdminService/AdjustPoints"
	AdminServiceAssignSectionProcedure    = "/bandpoints.v1.AdminService/AssignSection"
	AdminServiceChangeRoleProcedure       = "/bandpoints.v1.AdminService/ChangeRole"
	AdminServiceDeleteMemberProcedure     = "/bandpoints.v1.AdminService/DeleteMember"
	AdminServiceResetAllPointsProcedure   = "/bandpoints.v1.AdminService/ResetAllPoints"
	AdminServiceListTransactionsProcedure = "/bandpoints.v1.AdminService/ListTransactions"
)

// AdminServiceHandler is implemented by the server.
type AdminServiceHandler interface {
	ListMembers(context.Context, *connect.Request[ListMembersRequest]) (*connect.Response[ListMembersResponse], error)
	AdjustPoints(context.Context, *connect.Request[AdjustPointsRequest]) (*connect.Response[AdjustPointsResponse], error)
	AssignSection(context.Context, *connect.Request[AssignSectionRequest]) (*connect.Response[AssignSectionResponse], error)
	ChangeRole(context.Context, *connect.Request[ChangeRoleRequest]) (*connect.Response[ChangeRoleResponse], error)
	DeleteMember(context.Context, *connect.Request[DeleteMemberRequest]) (*connect.Response[DeleteMemberResponse], error)
	ResetAllPoints(context.Context, *connect.Request[ResetAllPointsRequest]) (*connect.Response[ResetAllPointsResponse], error)
	ListTransactions(context.Context, *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error)
}

func NewAdminServiceHandler(svc AdminServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(AdminServiceListMembersProcedure, connect.NewUnaryHandler(AdminServiceListMembersProcedure, svc.ListMembers, opts...))
	mux.Handle(AdminServiceAdjustPointsProcedure, connect.NewUnaryHandler(AdminServiceAdjustPointsProcedure, svc.AdjustPoints, opts...))
	mux.Handle(AdminServiceAssignSectionProcedure, connect.NewUnaryHandler(AdminServiceAssignSectionProcedure, svc.AssignSection, opts...))
	mux.Handle(AdminServiceChangeRoleProcedure, connect.NewUnaryHandler(AdminServiceChangeRoleProcedure, svc.ChangeRole, opts...))
	mux.Handle(AdminServiceDeleteMemberProcedure, connect.NewUnaryHandler(AdminServiceDeleteMemberProcedure, svc.DeleteMember, opts...))
	mux.Handle(AdminServiceResetAllPointsProcedure, connect.NewUnaryHandler(AdminServiceResetAllPointsProcedure, svc.ResetAllPoints, opts...))
	mux.Handle(AdminServiceListTransactionsProcedure, connect.NewUnaryHandler(AdminServiceListTransactionsProcedure, svc.ListTransactions, opts...))
	return "/" + AdminServiceName + "/", mux
}

// AdminServiceClient calls AdminService.
type AdminServiceClient struct {
	listMembers      *connect.Client[ListMembersRequest, ListMembersResponse]
	adjustPoints     *connect.Client[AdjustPointsRequest, AdjustPointsResponse]
	assignSection    *connect.Client[AssignSectionRequest, AssignSectionResponse]
	changeRole       *connect.Client[ChangeRoleRequest, ChangeRoleResponse]
	deleteMember     *connect.Client[DeleteMemberRequest, DeleteMemberResponse]
	resetAllPoints   *connect.Client[ResetAllPointsRequest, ResetAllPointsResponse]
	listTransactions *connect.Client[ListTransactionsRequest, ListTransactionsResponse]
}

func NewAdminServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AdminServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &AdminServiceClient{
		listMembers:      connect.NewClient[ListMembersRequest, ListMembersResponse](httpClient, baseURL+AdminServiceListMembersProcedure, opts...),
		adjustPoints:     connect.NewClient[AdjustPointsRequest, AdjustPointsResponse](httpClient, baseURL+AdminServiceAdjustPointsProcedure, opts...),
		assignSection:    connect.NewClient[AssignSectionRequest, AssignSectionResponse](httpClient, baseURL+AdminServiceAssignSectionProcedure, opts...),
		changeRole:       connect.NewClient[ChangeRoleRequest, ChangeRoleResponse](httpClient, baseURL+AdminServiceChangeRoleProcedure, opts...),
		deleteMember:     connect.NewClient[DeleteMemberRequest, DeleteMemberResponse](httpClient, baseURL+AdminServiceDeleteMemberProcedure, opts...),
		resetAllPoints:   connect.NewClient[ResetAllPointsRequest, ResetAllPointsResponse](httpClient, baseURL+AdminServiceResetAllPointsProcedure, opts...),
		listTransactions: connect.NewClient[ListTransactionsRequest, ListTransactionsResponse](httpClient, baseURL+AdminServiceListTransactionsProcedure, opts...),
	}
}

func (c *AdminServiceClient) ListMembers(ctx context.Context, req *connect.Request[ListMembersRequest]) (*connect.Response[ListMembersResponse], error) {
	return c.listMembers.CallUnary(ctx, req)
}

func (c *AdminServiceClient) AdjustPoints(ctx context.Context, req *connect.Request[AdjustPointsRequest]) (*connect.Response[AdjustPointsResponse], error) {
	return c.adjustPoints.CallUnary(ctx, req)
}

func (c *AdminServiceClient) AssignSection(ctx context.Context, req *connect.Request[AssignSectionRequest]) (*connect.Response[AssignSectionResponse], error) {
	return c.assignSection.CallUnary(ctx, req)
}

func (c *AdminServiceClient) ChangeRole(ctx context.Context, req *connect.Request[ChangeRoleRequest]) (*connect.Response[ChangeRoleResponse], error) {
	return c.changeRole.CallUnary(ctx, req)
}

func (c *AdminServiceClient) DeleteMember(ctx context.Context, req *connect.Request[DeleteMemberRequest]) (*connect.Response[DeleteMemberResponse], error) {
	return c.deleteMember.CallUnary(ctx, req)
}

func (c *AdminServiceClient) ResetAllPoints(ctx context.Context, req *connect.Request[ResetAllPointsRequest]) (*connect.Response[ResetAllPointsResponse], error) {
	return c.resetAllPoints.CallUnary(ctx, req)
}

func (c *AdminServiceClient) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	return c.listTransactions.CallUnary(ctx, req)
}
