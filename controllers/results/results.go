package results

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"matka/helpers"
	"matka/models"
	"matka/settlement"
)

type Reader interface {
	CurrentResults(ctx context.Context) ([]models.Result, error)
	CurrentResult(ctx context.Context, market string) (*models.Result, error)
	ResultHistory(ctx context.Context, market string, limit int) ([]models.ResultHistory, error)
}

type Handler struct {
	store Reader
}

func NewHandler(store Reader) *Handler {
	return &Handler{store: store}
}

func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.store.CurrentResults(c.UserContext())
	if err != nil {
		return helpers.JSONFailure(c, fiber.StatusInternalServerError, "FAILED_TO_FETCH_RESULTS", nil)
	}
	return helpers.JSONSuccess(c, "Results retrieved successfully", list)
}

func (h *Handler) Current(c *fiber.Ctx) error {
	r, err := h.store.CurrentResult(c.UserContext(), c.Params("market"))
	if errors.Is(err, settlement.ErrUnknownMarket) {
		return helpers.JSONFailure(c, fiber.StatusNotFound, "RESULT_NOT_FOUND", nil)
	}
	if err != nil {
		return helpers.JSONFailure(c, fiber.StatusInternalServerError, "FAILED_TO_FETCH_RESULT", nil)
	}
	return helpers.JSONSuccess(c, "Result retrieved successfully", r)
}

// History returns up to ?limit= days, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 30)
	if limit <= 0 {
		return helpers.JSONError(c, "INVALID_LIMIT")
	}
	list, err := h.store.ResultHistory(c.UserContext(), c.Params("market"), limit)
	if err != nil {
		return helpers.JSONFailure(c, fiber.StatusInternalServerError, "FAILED_TO_FETCH_HISTORY", nil)
	}
	return helpers.JSONSuccess(c, "History retrieved successfully", list)
}
