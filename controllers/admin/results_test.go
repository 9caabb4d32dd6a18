package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"matka/settlement"
)

type fakeEngine struct {
	got     settlement.DeclareRequest
	out     *settlement.Outcome
	err     error
	pending int
}

func (e *fakeEngine) Declare(ctx context.Context, req settlement.DeclareRequest) (*settlement.Outcome, error) {
	e.got = req
	return e.out, e.err
}

func (e *fakeEngine) EnsurePending(ctx context.Context) (int, error) {
	return e.pending, e.err
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, e *fakeEngine, path, body string) (int, envelope) {
	t.Helper()
	h := NewResultHandler(e, zap.NewNop())
	app := fiber.New()
	app.Post("/admin/results/declare", h.Declare)
	app.Post("/admin/results/pending", h.Pending)

	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return resp.StatusCode, env
}

func TestDeclare_Success(t *testing.T) {
	e := &fakeEngine{out: &settlement.Outcome{
		Market: "Kalyan", Slot: "open", Panna: "140", Ank: "5",
		Winners: 2, PayoutTotal: decimal.NewFromInt(190), Message: "open result 140-5 declared for Kalyan",
	}}
	status, env := call(t, e, "/admin/results/declare", `{"market":"Kalyan","slot":"open","panna":"140"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)
	assert.Equal(t, "open result 140-5 declared for Kalyan", env.Message)
	assert.Equal(t, settlement.TriggerManual, e.got.Trigger)
	assert.Equal(t, "Kalyan", e.got.Market)
	assert.Equal(t, "140", e.got.Panna)

	var out settlement.Outcome
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 2, out.Winners)
	assert.True(t, out.PayoutTotal.Equal(decimal.NewFromInt(190)))
}

func TestDeclare_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: panna", settlement.ErrValidation), fiber.StatusBadRequest},
		{"unknown market", fmt.Errorf("%w: Nowhere", settlement.ErrUnknownMarket), fiber.StatusBadRequest},
		{"prerequisite", fmt.Errorf("%w: open", settlement.ErrPrerequisiteMissing), fiber.StatusUnprocessableEntity},
		{"already declared", fmt.Errorf("%w: manual", settlement.ErrAlreadyDeclared), fiber.StatusConflict},
		{"internal", errors.New("connection refused"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := call(t, &fakeEngine{err: tt.err}, "/admin/results/declare", `{"market":"Kalyan","slot":"close","panna":"238"}`)
			assert.Equal(t, tt.want, status)
			assert.False(t, env.Success)
			assert.NotContains(t, env.Message, "connection refused")
		})
	}
}

func TestDeclare_AlreadyDeclaredCarriesMessage(t *testing.T) {
	e := &fakeEngine{
		out: &settlement.Outcome{Market: "Kalyan", Message: "open result for Kalyan already declared today (manual)"},
		err: fmt.Errorf("%w: Kalyan", settlement.ErrAlreadyDeclared),
	}
	status, env := call(t, e, "/admin/results/declare", `{"market":"Kalyan","slot":"open","panna":"123"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Contains(t, env.Message, "already declared")
}

func TestDeclare_InvalidJSON(t *testing.T) {
	status, env := call(t, &fakeEngine{}, "/admin/results/declare", `{"market":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_JSON", env.Message)
}

func TestPending(t *testing.T) {
	status, env := call(t, &fakeEngine{pending: 3}, "/admin/results/pending", `{}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"reset":3}`, string(env.Data))
}
