package matchlog

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/shuttle-league/internal/app"
	"github.com/oggyb/shuttle-league/internal/server"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "matchlog.v1.MatchLogService"

type ListInboxRequest struct{}

type InboxResponse struct {
	Requests []MatchRequestView `json:"requests"`
}

type RespondRequest struct {
	RequestID uint64 `json:"requestId"`
	Decision  string `json:"decision"`
}

type ListHistoryRequest struct{}

type HistoryResponse struct {
	Items []MatchHistoryItem `json:"items"`
}

type CountPendingRequest struct{}

type CountPendingResponse struct {
	Count int64 `json:"count"`
}

// handler adapts Service to gRPC. The actor always comes from the auth interceptor.
type handler struct {
	svc *Service
}

func (h *handler) createRequest(ctx context.Context, in *CreateInput) (*MatchRequestView, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	return h.svc.CreateRequest(ctx, actor, *in)
}

func (h *handler) listInbox(ctx context.Context, _ *ListInboxRequest) (*InboxResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	views, err := h.svc.Inbox(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &InboxResponse{Requests: views}, nil
}

func (h *handler) respond(ctx context.Context, in *RespondRequest) (*MatchRequestView, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	return h.svc.Respond(ctx, actor, in.RequestID, in.Decision)
}

func (h *handler) listHistory(ctx context.Context, _ *ListHistoryRequest) (*HistoryResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	items, err := h.svc.History(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &HistoryResponse{Items: items}, nil
}

func (h *handler) countPending(ctx context.Context, _ *CountPendingRequest) (*CountPendingResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	n, err := h.svc.CountPending(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &CountPendingResponse{Count: n}, nil
}

// ServiceDesc describes MatchLogService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		server.UnaryMethod(ServiceName, "CreateRequest", (*handler).createRequest),
		server.UnaryMethod(ServiceName, "ListInbox", (*handler).listInbox),
		server.UnaryMethod(ServiceName, "Respond", (*handler).respond),
		server.UnaryMethod(ServiceName, "ListHistory", (*handler).listHistory),
		server.UnaryMethod(ServiceName, "CountPending", (*handler).countPending),
	},
	Streams: []grpc.StreamDesc{},
}

// Registrar ties the match log service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the match log service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the match log service implementation to the gRPC server
func (r *Registrar) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, &handler{svc: NewMatchLogService(r.appCtx)})
}
