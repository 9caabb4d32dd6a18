package settlement

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"

	"matka/models"
)

// DrawOracle produces the panna for a market slot when the scheduler declares
// it. The ank is always derived by the engine from the panna.
type DrawOracle interface {
	Draw(ctx context.Context, market string, slot models.Slot) (Panna, error)
}

// RandomOracle draws a classic panna: three digits in ascending order where
// 0 ranks above 9 (so "230" and "550" are valid, "023" is not).
type RandomOracle struct{}

func NewRandomOracle() *RandomOracle {
	return &RandomOracle{}
}

func (o *RandomOracle) Draw(ctx context.Context, market string, slot models.Slot) (Panna, error) {
	digits := make([]int, 3)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("draw %s/%s: %w", market, slot, err)
		}
		digits[i] = int(n.Int64())
	}
	sort.Slice(digits, func(i, j int) bool { return pannaRank(digits[i]) < pannaRank(digits[j]) })
	return Panna(fmt.Sprintf("%d%d%d", digits[0], digits[1], digits[2])), nil
}

func pannaRank(d int) int {
	if d == 0 {
		return 10
	}
	return d
}

// FixedOracle returns preset pannas keyed by slot. Useful for replaying a
// known draw and for tests.
type FixedOracle map[models.Slot]Panna

func (o FixedOracle) Draw(ctx context.Context, market string, slot models.Slot) (Panna, error) {
	p, ok := o[slot]
	if !ok {
		return "", fmt.Errorf("no fixed panna for %s/%s", market, slot)
	}
	return p, nil
}
