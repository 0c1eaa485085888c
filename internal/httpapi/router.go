package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/oggyb/shuttle-league/internal/app"
	"github.com/oggyb/shuttle-league/internal/auth"
	"github.com/oggyb/shuttle-league/internal/service/matchlog"
	"github.com/oggyb/shuttle-league/internal/service/stats"
)

// Options toggles middleware that tests do not want.
type Options struct {
	AccessLog bool
}

// NewApp builds the Fiber app with every REST route.
//
// Routes:
//
//	GET  /health
//	POST /api/match-log/requests                (201)
//	GET  /api/match-log/requests/inbox
//	GET  /api/match-log/requests/history
//	GET  /api/match-log/requests/pending-count
//	POST /api/match-log/requests/:id/decision
//	GET  /api/users/:id/stats
//	GET  /api/users/:id/rating-history
//	GET  /api/leaderboard                       (?limit=&pageToken= for paging)
func NewApp(appCtx *app.AppContext, authMgr *auth.Manager, opts Options) *fiber.App {
	h := &handlers{
		matchLog: matchlog.NewMatchLogService(appCtx),
		stats:    stats.NewStatsService(appCtx),
	}

	fapp := fiber.New(fiber.Config{
		AppName:               "Shuttle League API",
		DisableStartupMessage: true,
	})

	if opts.AccessLog {
		fapp.Use(fiberlogger.New())
	}
	fapp.Use(cors.New())
	fapp.Use(RequestLogger(appCtx.Logger))

	fapp.Get("/health", HealthCheck)

	api := fapp.Group("/api", Auth(authMgr))

	requests := api.Group("/match-log/requests")
	requests.Post("", h.createRequest)
	requests.Get("/inbox", h.inbox)
	requests.Get("/history", h.history)
	requests.Get("/pending-count", h.pendingCount)
	requests.Post("/:id/decision", h.respond)

	api.Get("/users/:id/stats", h.userStats)
	api.Get("/users/:id/rating-history", h.ratingHistory)
	api.Get("/leaderboard", h.leaderboard)

	return fapp
}
