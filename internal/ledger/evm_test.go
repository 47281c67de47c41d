package ledger

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "legal winner thank year wave sausage worth useful legal winner thank yellow"

func TestDerivePlatformKeyDeterministic(t *testing.T) {
	first, err := derivePlatformKey(testMnemonic)
	require.NoError(t, err)

	second, err := derivePlatformKey(testMnemonic)
	require.NoError(t, err)

	require.Equal(t,
		crypto.PubkeyToAddress(first.PublicKey),
		crypto.PubkeyToAddress(second.PublicKey))

	other, err := derivePlatformKey("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about")
	require.NoError(t, err)
	require.NotEqual(t,
		crypto.PubkeyToAddress(first.PublicKey),
		crypto.PubkeyToAddress(other.PublicKey))
}

func TestAmountToUnits(t *testing.T) {
	cases := []struct {
		amount string
		units  string
	}{
		{"0", "0"},
		{"1", "1000000"},
		{"30000", "30000000000"},
		{"0.01", "10000"},
		{"1234.56", "1234560000"},
	}

	for _, tc := range cases {
		units := amountToUnits(decimal.RequireFromString(tc.amount))
		require.Equal(t, tc.units, units.String(), "amount %s", tc.amount)
	}
}

func TestBuildCallData(t *testing.T) {
	key := tradeKey("trade-1")
	require.Len(t, key, 32)

	withAmount := buildCallData(depositSig, key, amountToUnits(decimal.NewFromInt(100)))
	require.Len(t, withAmount, 4+32+32)
	require.Equal(t, depositSig, withAmount[:4])

	withoutAmount := buildCallData(confirmDeliverySig, key, nil)
	require.Len(t, withoutAmount, 4+32)

	// Different trades never collide on the contract key.
	require.NotEqual(t, key, tradeKey("trade-2"))
}
