package finance

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/core/ports"
)

func TestSplitTranchesExactSum(t *testing.T) {
	cases := []struct {
		name       string
		total      string
		depositPct int64
		advancePct int64
	}{
		{"standard split", "100000", 30, 50},
		{"full split no final", "100000", 30, 70},
		{"odd cents", "1000.01", 33, 33},
		{"tiny value", "0.03", 33, 33},
		{"no deposit", "750000.50", 0, 60},
		{"everything final", "123456.78", 0, 0},
		{"repeating remainder", "99999.99", 17, 41},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			total := decimal.RequireFromString(tc.total)

			tr, err := SplitTranches(total, tc.depositPct, tc.advancePct)
			require.NoError(t, err)

			sum := tr.Deposit.Add(tr.Advance).Add(tr.Final)
			require.True(t, sum.Equal(total), "tranches %s+%s+%s != %s", tr.Deposit, tr.Advance, tr.Final, total)
			require.False(t, tr.Deposit.IsNegative())
			require.False(t, tr.Advance.IsNegative())
			require.False(t, tr.Final.IsNegative())
		})
	}
}

func TestSplitTranchesScenario(t *testing.T) {
	// 100000 at 30/70 leaves nothing for the final tranche.
	tr, err := SplitTranches(decimal.NewFromInt(100000), 30, 70)
	require.NoError(t, err)

	require.True(t, tr.Deposit.Equal(decimal.NewFromInt(30000)), "deposit = %s", tr.Deposit)
	require.True(t, tr.Advance.Equal(decimal.NewFromInt(70000)), "advance = %s", tr.Advance)
	require.True(t, tr.Final.IsZero(), "final = %s", tr.Final)
}

func TestSplitTranchesRemainderGoesToFinal(t *testing.T) {
	// 100.01 at 33/33: both products round down, final picks up the rest.
	tr, err := SplitTranches(decimal.RequireFromString("100.01"), 33, 33)
	require.NoError(t, err)

	require.Equal(t, "33.00", tr.Deposit.StringFixed(2))
	require.Equal(t, "33.00", tr.Advance.StringFixed(2))
	require.Equal(t, "34.01", tr.Final.StringFixed(2))
}

func TestSplitTranchesInvalidTerms(t *testing.T) {
	cases := []struct {
		name       string
		total      string
		depositPct int64
		advancePct int64
	}{
		{"zero total", "0", 30, 50},
		{"negative total", "-5", 30, 50},
		{"percentages exceed 100", "100000", 60, 50},
		{"negative deposit pct", "100000", -1, 50},
		{"deposit pct above 100", "100000", 101, 0},
		{"advance pct above 100", "100000", 0, 101},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SplitTranches(decimal.RequireFromString(tc.total), tc.depositPct, tc.advancePct)
			require.Error(t, err)
			require.True(t, errors.Is(err, ports.ErrInvalidTradeTerms), "got %v", err)
		})
	}
}
