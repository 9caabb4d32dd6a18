package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"matka/helpers"
	"matka/models"
	"matka/settlement"
)

type Engine interface {
	Declare(ctx context.Context, req settlement.DeclareRequest) (*settlement.Outcome, error)
	EnsurePending(ctx context.Context) (int, error)
}

type ResultHandler struct {
	engine Engine
	log    *zap.Logger
}

func NewResultHandler(engine Engine, log *zap.Logger) *ResultHandler {
	return &ResultHandler{engine: engine, log: log}
}

type DeclareResultRequest struct {
	Market string `json:"market"`
	Slot   string `json:"slot"`
	Panna  string `json:"panna"`
}

// Declare handles POST /admin/results/declare.
func (h *ResultHandler) Declare(c *fiber.Ctx) error {
	var req DeclareResultRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	out, err := h.engine.Declare(c.UserContext(), settlement.DeclareRequest{
		Market:  req.Market,
		Slot:    models.Slot(req.Slot),
		Trigger: settlement.TriggerManual,
		Panna:   req.Panna,
	})
	if err != nil {
		return h.fail(c, err, out)
	}
	return helpers.JSONSuccess(c, out.Message, out)
}

// Pending handles POST /admin/results/pending.
func (h *ResultHandler) Pending(c *fiber.Ctx) error {
	n, err := h.engine.EnsurePending(c.UserContext())
	if err != nil {
		return h.fail(c, err, nil)
	}
	return helpers.JSONSuccess(c, fmt.Sprintf("%d results reset to pending", n), fiber.Map{"reset": n})
}

func (h *ResultHandler) fail(c *fiber.Ctx, err error, data any) error {
	status := StatusFor(err)
	message := err.Error()
	if status == fiber.StatusInternalServerError {
		h.log.Error("admin request failed", zap.String("path", c.Path()), zap.Error(err))
		message = "INTERNAL_ERROR"
	}
	if out, ok := data.(*settlement.Outcome); ok && out != nil && out.Message != "" {
		message = out.Message
	}
	return helpers.JSONFailure(c, status, message, data)
}

// StatusFor maps settlement errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, settlement.ErrValidation), errors.Is(err, settlement.ErrUnknownMarket):
		return fiber.StatusBadRequest
	case errors.Is(err, settlement.ErrPrerequisiteMissing):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, settlement.ErrAlreadyDeclared):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}
