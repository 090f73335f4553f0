package tickmath_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloxdex/velox-go/internal/chain/tickmath"
	"github.com/veloxdex/velox-go/internal/domain"
)

const (
	powWETH = int64(1_000_000_000_000_000_000) // 18 decimals
	powUSDC = int64(1_000_000)                 // 6 decimals
)

func TestPowExp(t *testing.T) {
	cases := []struct {
		pow  int64
		exp  int32
		fail bool
	}{
		{pow: 1, exp: 0},
		{pow: 10, exp: 1},
		{pow: 1_000_000, exp: 6},
		{pow: powWETH, exp: 18},
		{pow: 0, fail: true},
		{pow: -100, fail: true},
		{pow: 25, fail: true},
		{pow: 1010, fail: true},
	}
	for _, tc := range cases {
		exp, err := tickmath.PowExp(tc.pow)
		if tc.fail {
			assert.Error(t, err, "pow %d", tc.pow)
			continue
		}
		require.NoError(t, err, "pow %d", tc.pow)
		assert.Equal(t, tc.exp, exp, "pow %d", tc.pow)
	}
}

func TestAmountFromHuman(t *testing.T) {
	amount, err := tickmath.AmountFromHuman("0.001", powWETH)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000", amount.String())

	// A value finer than the token's decimals does not land on an integer.
	_, err = tickmath.AmountFromHuman("0.0000000000000000001", powWETH)
	var tickErr *domain.TickAlignmentError
	require.True(t, errors.As(err, &tickErr))
	assert.Equal(t, "size", tickErr.Field)

	_, err = tickmath.AmountFromHuman("0", powWETH)
	assert.Error(t, err)

	_, err = tickmath.AmountFromHuman("-1", powWETH)
	assert.Error(t, err)

	_, err = tickmath.AmountFromHuman("abc", powWETH)
	assert.Error(t, err)
}

func TestHumanFromAmountExact(t *testing.T) {
	wei := new(big.Int)
	wei.SetString("1500000000000000000", 10)

	human, err := tickmath.HumanFromAmount(wei, powWETH)
	require.NoError(t, err)
	assert.Equal(t, "1.5", human.String())

	// One wei survives the conversion exactly.
	human, err = tickmath.HumanFromAmount(big.NewInt(1), powWETH)
	require.NoError(t, err)
	assert.Equal(t, "0.000000000000000001", human.String())

	// Trailing zeros are not rendered.
	human, err = tickmath.HumanFromAmount(big.NewInt(2_000_000), powUSDC)
	require.NoError(t, err)
	assert.Equal(t, "2", human.String())
}

func TestAmountRoundTrip(t *testing.T) {
	for _, in := range []string{"0.001", "1.5", "1000", "0.000000000000000001", "123456.789"} {
		amount, err := tickmath.AmountFromHuman(in, powWETH)
		require.NoError(t, err, in)
		human, err := tickmath.HumanFromAmount(amount, powWETH)
		require.NoError(t, err, in)
		assert.Equal(t, in, human.String(), in)
	}
}

func TestAmountBase(t *testing.T) {
	powSizeTick := int64(1_000_000_000_000_000) // 0.001 WETH granularity

	base, err := tickmath.AmountBase(big.NewInt(1_000_000_000_000_000), powSizeTick, "WETH_USDC")
	require.NoError(t, err)
	assert.Equal(t, int64(1), base.Int64())

	// Not a multiple of the size tick.
	_, err = tickmath.AmountBase(big.NewInt(150_000_000_000_000), powSizeTick, "WETH_USDC")
	var tickErr *domain.TickAlignmentError
	require.True(t, errors.As(err, &tickErr))
	assert.Equal(t, powSizeTick, tickErr.PowTick)
	assert.Equal(t, "WETH_USDC", tickErr.Orderbook)
}

func TestPriceBase(t *testing.T) {
	powPriceTick := int64(100_000) // 0.1 USDC granularity

	base, err := tickmath.PriceBase("1000", powUSDC, powPriceTick, "WETH_USDC")
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), base.Int64())

	base, err = tickmath.PriceBase("1000.2", powUSDC, powPriceTick, "WETH_USDC")
	require.NoError(t, err)
	assert.Equal(t, int64(10_002), base.Int64())

	// Finer than the price tick.
	_, err = tickmath.PriceBase("1000.05", powUSDC, powPriceTick, "WETH_USDC")
	var tickErr *domain.TickAlignmentError
	require.True(t, errors.As(err, &tickErr))
	assert.Equal(t, "price", tickErr.Field)

	_, err = tickmath.PriceBase("0", powUSDC, powPriceTick, "WETH_USDC")
	assert.Error(t, err)
}

func TestPriceFromAmounts(t *testing.T) {
	// 0.001 WETH traded for 1 USDC: price 1000.
	amount0 := big.NewInt(1_000_000_000_000_000)
	amount1 := big.NewInt(1_000_000)

	price, err := tickmath.PriceFromAmounts(amount0, amount1, powWETH, powUSDC)
	require.NoError(t, err)
	assert.Equal(t, "1000", price.String())

	// 0.002 WETH for 2.5 USDC: price 1250.
	price, err = tickmath.PriceFromAmounts(big.NewInt(2_000_000_000_000_000), big.NewInt(2_500_000), powWETH, powUSDC)
	require.NoError(t, err)
	assert.Equal(t, "1250", price.String())

	_, err = tickmath.PriceFromAmounts(big.NewInt(0), amount1, powWETH, powUSDC)
	assert.Error(t, err)
}

func TestCheckSizeTick(t *testing.T) {
	powSizeTick := int64(1_000_000_000_000_000)

	assert.NoError(t, tickmath.CheckSizeTick("0.001", powWETH, powSizeTick, "WETH_USDC"))
	assert.NoError(t, tickmath.CheckSizeTick("1.234", powWETH, powSizeTick, "WETH_USDC"))

	err := tickmath.CheckSizeTick("0.0005", powWETH, powSizeTick, "WETH_USDC")
	var tickErr *domain.TickAlignmentError
	require.True(t, errors.As(err, &tickErr))
	assert.Equal(t, "0.0005", tickErr.Value)

	assert.Error(t, tickmath.CheckSizeTick("0", powWETH, powSizeTick, "WETH_USDC"))
	assert.Error(t, tickmath.CheckSizeTick("-0.001", powWETH, powSizeTick, "WETH_USDC"))
}

func TestCheckPriceTick(t *testing.T) {
	powPriceTick := int64(100_000)

	assert.NoError(t, tickmath.CheckPriceTick("1000", powUSDC, powPriceTick, "WETH_USDC"))
	assert.NoError(t, tickmath.CheckPriceTick("999.9", powUSDC, powPriceTick, "WETH_USDC"))

	err := tickmath.CheckPriceTick("999.99", powUSDC, powPriceTick, "WETH_USDC")
	var tickErr *domain.TickAlignmentError
	require.True(t, errors.As(err, &tickErr))
	assert.Equal(t, "price", tickErr.Field)
}
