package gateway

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/burnes-center/fair/pkg/llm"
	"github.com/burnes-center/fair/pkg/storage"
)

const (
	defaultRelayListLimit = 50
	maxRelayListLimit     = 500
)

// RelayList is the response body of GET /api/relays.
type RelayList struct {
	Count  int               `json:"count"`
	Relays []*storage.Record `json:"relays"`
}

// handleGetRelay returns one relay record, including the session metadata
// extracted from its stream.
func (g *Gateway) handleGetRelay(c *fiber.Ctx) error {
	id := param(c, "relayId")
	if id == "" {
		return badRequest(c, "relay id required")
	}

	rec, err := g.driver.Get(c.Context(), id)
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "relay not found"})
		}
		g.logger.Error("failed to get relay", zap.String("relay_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get relay"})
	}

	return c.JSON(rec)
}

// handleListRelays lists relay records newest first, optionally narrowed by
// session_id and endpoint.
func (g *Gateway) handleListRelays(c *fiber.Ctx) error {
	filter := storage.Filter{
		SessionID: c.Query("session_id"),
		Endpoint:  c.Query("endpoint"),
		Limit:     defaultRelayListLimit,
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return badRequest(c, "limit must be a positive integer")
		}
		filter.Limit = min(n, maxRelayListLimit)
	}

	recs, err := g.driver.List(c.Context(), filter)
	if err != nil {
		g.logger.Error("failed to list relays", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list relays"})
	}
	if recs == nil {
		recs = []*storage.Record{}
	}

	return c.JSON(RelayList{Count: len(recs), Relays: recs})
}
