package httpapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	svcErr "github.com/oggyb/shuttle-league/internal/errors"
	"github.com/oggyb/shuttle-league/internal/service/matchlog"
	"github.com/oggyb/shuttle-league/internal/service/stats"
)

// DecisionRequest is the body of POST /api/match-log/requests/:id/decision.
type DecisionRequest struct {
	Decision string `json:"decision"`
}

type handlers struct {
	matchLog *matchlog.Service
	stats    *stats.Service
}

// HealthCheck handles GET /health. No DB access, no authentication.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *handlers) createRequest(c *fiber.Ctx) error {
	var in matchlog.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, svcErr.InvalidArgument("invalid request body"))
	}
	view, err := h.matchLog.CreateRequest(c.UserContext(), actorOf(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *handlers) inbox(c *fiber.Ctx) error {
	views, err := h.matchLog.Inbox(c.UserContext(), actorOf(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(views)
}

func (h *handlers) respond(c *fiber.Ctx) error {
	requestID, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	var in DecisionRequest
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, svcErr.InvalidArgument("invalid request body"))
	}
	view, err := h.matchLog.Respond(c.UserContext(), actorOf(c), requestID, in.Decision)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(view)
}

func (h *handlers) history(c *fiber.Ctx) error {
	items, err := h.matchLog.History(c.UserContext(), actorOf(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(items)
}

func (h *handlers) pendingCount(c *fiber.Ctx) error {
	n, err := h.matchLog.CountPending(c.UserContext(), actorOf(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"count": n})
}

func (h *handlers) userStats(c *fiber.Ctx) error {
	userID, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.stats.GetUserStats(c.UserContext(), actorOf(c), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func (h *handlers) ratingHistory(c *fiber.Ctx) error {
	userID, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.stats.RatingHistory(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// leaderboard returns the whole board as a list, or one page when ?limit= is given.
func (h *handlers) leaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit <= 0 {
		entries, err := h.stats.GetLeaderboard(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(entries)
	}

	page, err := h.stats.LeaderboardPage(c.UserContext(), c.Query("pageToken"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(page)
}

func pathID(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, svcErr.InvalidArgument("id must be a positive integer")
	}
	return id, nil
}
