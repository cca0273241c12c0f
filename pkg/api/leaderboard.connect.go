package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const LeaderboardServiceName = "bandpoints.v1.LeaderboardService"

const (
	LeaderboardServiceListSectionsProcedure        = "/bandpoints.v1.LeaderboardService/ListSections"
	LeaderboardServiceGetSectionStandingsProcedure = "/bandpoints.v1.LeaderboardService/GetSectionStandings"
	LeaderboardServiceGetSectionRankingProcedure   = "/bandpoints.v1.LeaderboardService/GetSectionRanking"
)

// LeaderboardServiceHandler is implemented by the server.
type LeaderboardServiceHandler interface {
	ListSections(context.Context, *connect.Request[ListSectionsRequest]) (*connect.Response[ListSectionsResponse], error)
	GetSectionStandings(context.Context, *connect.Request[GetSectionStandingsRequest]) (*connect.Response[GetSectionStandingsResponse], error)
	GetSectionRanking(context.Context, *connect.Request[GetSectionRankingRequest]) (*connect.Response[GetSectionRankingResponse], error)
}

func NewLeaderboardServiceHandler(svc LeaderboardServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(LeaderboardServiceListSectionsProcedure, connect.NewUnaryHandler(LeaderboardServiceListSectionsProcedure, svc.ListSections, opts...))
	mux.Handle(LeaderboardServiceGetSectionStandingsProcedure, connect.NewUnaryHandler(LeaderboardServiceGetSectionStandingsProcedure, svc.GetSectionStandings, opts...))
	mux.Handle(LeaderboardServiceGetSectionRankingProcedure, connect.NewUnaryHandler(LeaderboardServiceGetSectionRankingProcedure, svc.GetSectionRanking, opts...))
	return "/" + LeaderboardServiceName + "/", mux
}

// LeaderboardServiceClient calls LeaderboardService.
type LeaderboardServiceClient struct {
	listSections        *connect.Client[ListSectionsRequest, ListSectionsResponse]
	getSectionStandings *connect.Client[GetSectionStandingsRequest, GetSectionStandingsResponse]
	getSectionRanking   *connect.Client[GetSectionRankingRequest, GetSectionRankingResponse]
}

func NewLeaderboardServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LeaderboardServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &LeaderboardServiceClient{
		listSections:        connect.NewClient[ListSectionsRequest, ListSectionsResponse](httpClient, baseURL+LeaderboardServiceListSectionsProcedure, opts...),
		getSectionStandings: connect.NewClient[GetSectionStandingsRequest, GetSectionStandingsResponse](httpClient, baseURL+LeaderboardServiceGetSectionStandingsProcedure, opts...),
		getSectionRanking:   connect.NewClient[GetSectionRankingRequest, GetSectionRankingResponse](httpClient, baseURL+LeaderboardServiceGetSectionRankingProcedure, opts...),
	}
}

func (c *LeaderboardServiceClient) ListSections(ctx context.Context, req *connect.Request[ListSectionsRequest]) (*connect.Response[ListSectionsResponse], error) {
	return c.listSections.CallUnary(ctx, req)
}

func (c *LeaderboardServiceClient) GetSectionStandings(ctx context.Context, req *connect.Request[GetSectionStandingsRequest]) (*connect.Response[GetSectionStandingsResponse], error) {
	return c.getSectionStandings.CallUnary(ctx, req)
}

func (c *LeaderboardServiceClient) GetSectionRanking(ctx context.Context, req *connect.Request[GetSectionRankingRequest]) (*connect.Response[GetSectionRankingResponse], error) {
	return c.getSectionRanking.CallUnary(ctx, req)
}
