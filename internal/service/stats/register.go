package stats

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/shuttle-league/internal/app"
	"github.com/oggyb/shuttle-league/internal/server"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "matchlog.v1.StatsService"

type GetUserStatsRequest struct {
	UserID uint64 `json:"userId"`
}

// GetLeaderboardRequest pages the board; an empty request returns all of it.
type GetLeaderboardRequest struct {
	PageToken string `json:"pageToken,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type GetRatingHistoryRequest struct {
	UserID uint64 `json:"userId"`
}

type RatingHistoryResponse struct {
	Changes []RatingChange `json:"changes"`
}

type handler struct {
	svc *Service
}

func (h *handler) getUserStats(ctx context.Context, in *GetUserStatsRequest) (*UserStats, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	return h.svc.GetUserStats(ctx, actor, in.UserID)
}

func (h *handler) getLeaderboard(ctx context.Context, in *GetLeaderboardRequest) (*LeaderboardPage, error) {
	if _, err := server.Actor(ctx); err != nil {
		return nil, err
	}
	return h.svc.LeaderboardPage(ctx, in.PageToken, in.Limit)
}

func (h *handler) getRatingHistory(ctx context.Context, in *GetRatingHistoryRequest) (*RatingHistoryResponse, error) {
	if _, err := server.Actor(ctx); err != nil {
		return nil, err
	}
	changes, err := h.svc.RatingHistory(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	return &RatingHistoryResponse{Changes: changes}, nil
}

// ServiceDesc describes StatsService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		server.UnaryMethod(ServiceName, "GetUserStats", (*handler).getUserStats),
		server.UnaryMethod(ServiceName, "GetLeaderboard", (*handler).getLeaderboard),
		server.UnaryMethod(ServiceName, "GetRatingHistory", (*handler).getRatingHistory),
	},
	Streams: []grpc.StreamDesc{},
}

// Registrar ties the stats service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates the stats Registrar.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, &handler{svc: NewStatsService(r.appCtx)})
}
