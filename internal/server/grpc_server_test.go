package server_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/shuttle-league/internal/app"
	"github.com/oggyb/shuttle-league/internal/auth"
	"github.com/oggyb/shuttle-league/internal/db"
	"github.com/oggyb/shuttle-league/internal/logger"
	"github.com/oggyb/shuttle-league/internal/server"
	"github.com/oggyb/shuttle-league/internal/service/matchlog"
	"github.com/oggyb/shuttle-league/internal/service/stats"
)

// setupClient starts the full gRPC stack on an in-memory listener and returns a JSON client.
func setupClient(t *testing.T) (*grpc.ClientConn, *auth.Manager) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))
	_, err = db.SeedMinimalTestData(dbase, 3)
	require.NoError(t, err)

	mgr := auth.NewManager("test-secret", time.Hour)
	appCtx := app.New(dbase, nil, logger.Discard(), nil)

	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(mgr, logger.Discard(),
		matchlog.NewRegistrar(appCtx),
		stats.NewRegistrar(appCtx),
	)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn, mgr
}

func asUser(t *testing.T, mgr *auth.Manager, userID uint64) context.Context {
	t.Helper()
	token, err := mgr.Issue(userID)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func invoke(ctx context.Context, conn *grpc.ClientConn, method string, in, out any) error {
	return conn.Invoke(ctx, method, in, out, grpc.CallContentSubtype(server.CodecName))
}

func TestGRPCMatchLogRoundTrip(t *testing.T) {
	conn, mgr := setupClient(t)

	var created matchlog.MatchRequestView
	err := invoke(asUser(t, mgr, 1), conn, "/matchlog.v1.MatchLogService/CreateRequest", &matchlog.CreateInput{
		MatchName:       "Morning singles",
		MatchFormat:     "SINGLES",
		WinnerSide:      "TEAM",
		OpponentUserIDs: []uint64{2},
	}, &created)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", created.Status)

	var count matchlog.CountPendingResponse
	require.NoError(t, invoke(asUser(t, mgr, 2), conn, "/matchlog.v1.MatchLogService/CountPending", &matchlog.CountPendingRequest{}, &count))
	assert.Equal(t, int64(1), count.Count)

	var view matchlog.MatchRequestView
	err = invoke(asUser(t, mgr, 3), conn, "/matchlog.v1.MatchLogService/Respond",
		&matchlog.RespondRequest{RequestID: created.ID, Decision: "accept"}, &view)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	require.NoError(t, invoke(asUser(t, mgr, 2), conn, "/matchlog.v1.MatchLogService/Respond",
		&matchlog.RespondRequest{RequestID: created.ID, Decision: "accept"}, &view))
	assert.Equal(t, "APPROVED", view.Status)

	err = invoke(asUser(t, mgr, 2), conn, "/matchlog.v1.MatchLogService/Respond",
		&matchlog.RespondRequest{RequestID: created.ID, Decision: "reject"}, &view)
	assert.Equal(t, codes.Aborted, status.Code(err), "conflicts map to Aborted")

	var history matchlog.HistoryResponse
	require.NoError(t, invoke(asUser(t, mgr, 1), conn, "/matchlog.v1.MatchLogService/ListHistory", &matchlog.ListHistoryRequest{}, &history))
	require.Len(t, history.Items, 1)

	var inbox matchlog.InboxResponse
	require.NoError(t, invoke(asUser(t, mgr, 2), conn, "/matchlog.v1.MatchLogService/ListInbox", &matchlog.ListInboxRequest{}, &inbox))
	require.Len(t, inbox.Requests, 1)
	assert.False(t, inbox.Requests[0].CanRespond)
}

func TestGRPCStatsService(t *testing.T) {
	conn, mgr := setupClient(t)

	var mine stats.UserStats
	require.NoError(t, invoke(asUser(t, mgr, 2), conn, "/matchlog.v1.StatsService/GetUserStats", &stats.GetUserStatsRequest{UserID: 2}, &mine))
	assert.Equal(t, uint64(2), mine.UserID)
	assert.Equal(t, "BRONZE", mine.Tier)

	err := invoke(asUser(t, mgr, 2), conn, "/matchlog.v1.StatsService/GetUserStats", &stats.GetUserStatsRequest{UserID: 1}, &mine)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	var page stats.LeaderboardPage
	require.NoError(t, invoke(asUser(t, mgr, 1), conn, "/matchlog.v1.StatsService/GetLeaderboard", &stats.GetLeaderboardRequest{}, &page))
	require.Len(t, page.Entries, 1)
	assert.Equal(t, int64(1), page.Entries[0].Rank)

	var history stats.RatingHistoryResponse
	err = invoke(asUser(t, mgr, 1), conn, "/matchlog.v1.StatsService/GetRatingHistory", &stats.GetRatingHistoryRequest{UserID: 99}, &history)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPCRequiresToken(t *testing.T) {
	conn, _ := setupClient(t)

	var out matchlog.InboxResponse
	err := invoke(context.Background(), conn, "/matchlog.v1.MatchLogService/ListInbox", &matchlog.ListInboxRequest{}, &out)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	// health stays public
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
