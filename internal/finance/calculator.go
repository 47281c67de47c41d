// Package finance computes the deposit/advance/final tranche split of a
// trade's total value. Pure computation, no I/O.
package finance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/core/ports"
)

// CurrencyPrecision is the number of decimal places amounts are kept at.
const CurrencyPrecision = 2

var hundred = decimal.NewFromInt(100)

// Tranches is the computed money split of a trade. The three amounts sum
// exactly to the total value; any rounding remainder sits in Final.
type Tranches struct {
	Deposit decimal.Decimal
	Advance decimal.Decimal
	Final   decimal.Decimal
}

// SplitTranches splits totalValue according to the deposit and advance
// percentages. The deposit and advance products are rounded down to
// currency precision and the remainder is assigned to the final tranche,
// so Deposit+Advance+Final == totalValue holds exactly.
//
// Returns ErrInvalidTradeTerms when totalValue is not positive, a
// percentage is outside [0,100], or the percentages together exceed 100.
func SplitTranches(totalValue decimal.Decimal, depositPct, advancePct int64) (Tranches, error) {
	if !totalValue.IsPositive() {
		return Tranches{}, fmt.Errorf("%w: total value must be positive, got %s", ports.ErrInvalidTradeTerms, totalValue)
	}
	if depositPct < 0 || depositPct > 100 || advancePct < 0 || advancePct > 100 {
		return Tranches{}, fmt.Errorf("%w: percentages must be within [0,100], got deposit=%d advance=%d",
			ports.ErrInvalidTradeTerms, depositPct, advancePct)
	}
	if depositPct+advancePct > 100 {
		return Tranches{}, fmt.Errorf("%w: deposit and advance percentages sum to %d",
			ports.ErrInvalidTradeTerms, depositPct+advancePct)
	}

	total := totalValue.Round(CurrencyPrecision)
	deposit := total.Mul(decimal.NewFromInt(depositPct)).Div(hundred).RoundDown(CurrencyPrecision)
	advance := total.Mul(decimal.NewFromInt(advancePct)).Div(hundred).RoundDown(CurrencyPrecision)

	return Tranches{
		Deposit: deposit,
		Advance: advance,
		Final:   total.Sub(deposit).Sub(advance),
	}, nil
}
