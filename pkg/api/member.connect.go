package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const MemberServiceName = "bandpoints.v1.MemberService"

const (
	MemberServiceChooseSectionProcedure = "/bandpoints.v1.MemberService/ChooseSection"
	MemberServiceWatchMemberProcedure   = "/bandpoints.v1.MemberService/WatchMember"
)

// MemberServiceHandler is implemented by the server.
type MemberServiceHandler interface {
	ChooseSection(context.Context, *connect.Request[ChooseSectionRequest]) (*connect.Response[ChooseSectionResponse], error)
	WatchMember(context.Context, *connect.Request[WatchMemberRequest], *connect.ServerStream[MemberSnapshot]) error
}

func NewMemberServiceHandler(svc MemberServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(MemberServiceChooseSectionProcedure, connect.NewUnaryHandler(MemberServiceChooseSectionProcedure, svc.ChooseSection, opts...))
	mux.Handle(MemberServiceWatchMemberProcedure, connect.NewServerStreamHandler(MemberServiceWatchMemberProcedure, svc.WatchMember, opts...))
	return "/" + MemberServiceName + "/", mux
}

// MemberServiceClient calls MemberService.
type MemberServiceClient struct {
	chooseSection *connect.Client[ChooseSectionRequest, ChooseSectionResponse]
	watchMember   *connect.Client[WatchMemberRequest, MemberSnapshot]
}

func NewMemberServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *MemberServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &MemberServiceClient{
		chooseSection: connect.NewClient[ChooseSectionRequest, ChooseSectionResponse](httpClient, baseURL+MemberServiceChooseSectionProcedure, opts...),
		watchMember:   connect.NewClient[WatchMemberRequest, MemberSnapshot](httpClient, baseURL+MemberServiceWatchMemberProcedure, opts...),
	}
}

func (c *MemberServiceClient) ChooseSection(ctx context.Context, req *connect.Request[ChooseSectionRequest]) (*connect.Response[ChooseSectionResponse], error) {
	return c.chooseSection.CallUnary(ctx, req)
}

// WatchMember opens the snapshot stream. The first message is the current record.
func (c *MemberServiceClient) WatchMember(ctx context.Context, req *connect.Request[WatchMemberRequest]) (*connect.ServerStreamForClient[MemberSnapshot], error) {
	return c.watchMember.CallServerStream(ctx, req)
}
