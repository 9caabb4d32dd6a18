package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"matka/models"
)

// distributeCommission pays each agent a fraction of the total stake its
// users wagered on the market today, won or lost. A missing agent is skipped
// so the rest of the settlement still commits.
func (e *Engine) distributeCommission(ctx context.Context, tx Tx, market, day string, out *Outcome) error {
	fraction, err := e.rates.CommissionFraction(ctx)
	if err != nil {
		return fmt.Errorf("commission fraction: %w", err)
	}
	if !fraction.IsPositive() {
		return nil
	}

	bets, err := tx.BetsForDay(ctx, market, day)
	if err != nil {
		return fmt.Errorf("load bets for commission: %w", err)
	}
	volume := agentVolume(bets)

	agentIDs := make([]uint, 0, len(volume))
	for id := range volume {
		agentIDs = append(agentIDs, id)
	}
	sort.Slice(agentIDs, func(i, j int) bool { return agentIDs[i] < agentIDs[j] })

	for _, agentID := range agentIDs {
		amount := volume[agentID].Mul(fraction).Round(2)
		if !amount.IsPositive() {
			continue
		}
		bal, err := tx.Credit(ctx, Account{Kind: models.AccountAgent, ID: agentID}, amount)
		if errors.Is(err, ErrAgentNotFound) {
			e.log.Warn("commission skipped",
				zap.String("market", market),
				zap.String("day", day),
				zap.Uint("agent_id", agentID),
				zap.String("amount", amount.String()),
			)
			out.SkippedAgents = append(out.SkippedAgents, agentID)
			continue
		}
		if err != nil {
			return fmt.Errorf("credit agent %d: %w", agentID, err)
		}

		meta, _ := json.Marshal(map[string]any{
			"volume":   volume[agentID].String(),
			"fraction": fraction.String(),
		})
		if err := tx.AppendLedgerEntry(ctx, &models.LedgerEntry{
			EntryType:     models.EntryCommission,
			AccountKind:   models.AccountAgent,
			AccountID:     agentID,
			Amount:        amount,
			BalanceBefore: bal.Before,
			BalanceAfter:  bal.After,
			Market:        market,
			DrawDate:      day,
			Slot:          models.SlotClose,
			RefID:         uuid.NewString(),
			Meta:          datatypes.JSON(meta),
		}); err != nil {
			return fmt.Errorf("ledger commission for agent %d: %w", agentID, err)
		}
		out.CommissionAgents++
		out.CommissionTotal = out.CommissionTotal.Add(amount)
	}
	return nil
}

func agentVolume(bets []models.Bet) map[uint]decimal.Decimal {
	volume := make(map[uint]decimal.Decimal)
	for _, b := range bets {
		if b.AgentID == nil {
			continue
		}
		volume[*b.AgentID] = volume[*b.AgentID].Add(b.Stake)
	}
	return volume
}
