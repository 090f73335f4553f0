// Package tickmath converts between human-readable decimal amounts and the
// fixed-point integers the exchange contracts operate on.
//
// Exchange tick sizes are exact powers of ten in base units, so every
// conversion here is an exact decimal shift; binary floating point is never
// used. A value that does not land on an exact nonzero integer after
// scaling is rejected with a domain.TickAlignmentError rather than rounded.
package tickmath

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/veloxdex/velox-go/internal/domain"
)

// priceDivPrecision bounds the decimal places kept when deriving a price
// from two raw amounts. The quotient of tick-aligned amounts terminates well
// inside this bound, so in practice the division is exact.
const priceDivPrecision = 28

// PowExp returns the base-ten exponent of pow, which must be a positive
// power of ten (1, 10, 100, ...).
func PowExp(pow int64) (int32, error) {
	if pow <= 0 {
		return 0, fmt.Errorf("tickmath: scale %d is not a positive power of ten", pow)
	}
	var exp int32
	for pow > 1 {
		if pow%10 != 0 {
			return 0, fmt.Errorf("tickmath: scale %d is not a power of ten", pow)
		}
		pow /= 10
		exp++
	}
	return exp, nil
}

// AmountFromHuman converts a human-readable token amount to base units
// (amount * 10^decimals). The result must be a nonzero integer.
func AmountFromHuman(human string, powDecimal int64) (*big.Int, error) {
	d, err := decimal.NewFromString(human)
	if err != nil {
		return nil, fmt.Errorf("tickmath: parse amount %q: %w", human, err)
	}
	exp, err := PowExp(powDecimal)
	if err != nil {
		return nil, err
	}
	amount := d.Shift(exp)
	if amount.IsZero() || !amount.IsInteger() || amount.IsNegative() {
		return nil, &domain.TickAlignmentError{
			Field:   "size",
			Value:   human,
			PowTick: 1,
		}
	}
	return amount.BigInt(), nil
}

// HumanFromAmount renders a base-unit amount as an exact decimal string
// value (amount / 10^decimals). No truncation is applied.
func HumanFromAmount(amount *big.Int, powDecimal int64) (decimal.Decimal, error) {
	exp, err := PowExp(powDecimal)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromBigInt(amount, -exp), nil
}

// AmountBase converts a base-unit amount to size-tick units
// (amount / powSizeTick), the integer the wire format carries. symbol is
// used only for error context.
func AmountBase(amount *big.Int, powSizeTick int64, symbol string) (*big.Int, error) {
	exp, err := PowExp(powSizeTick)
	if err != nil {
		return nil, err
	}
	base := decimal.NewFromBigInt(amount, -exp)
	if base.IsZero() || !base.IsInteger() || base.IsNegative() {
		return nil, &domain.TickAlignmentError{
			Field:     "size",
			Value:     amount.String(),
			Orderbook: symbol,
			PowTick:   powSizeTick,
		}
	}
	return base.BigInt(), nil
}

// PriceBase converts a human-readable price to price-tick units
// (price * 10^token1Decimals / powPriceTick).
func PriceBase(price string, powDecimal1, powPriceTick int64, symbol string) (*big.Int, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("tickmath: parse price %q: %w", price, err)
	}
	exp1, err := PowExp(powDecimal1)
	if err != nil {
		return nil, err
	}
	expTick, err := PowExp(powPriceTick)
	if err != nil {
		return nil, err
	}
	base := d.Shift(exp1 - expTick)
	if base.IsZero() || !base.IsInteger() || base.IsNegative() {
		return nil, &domain.TickAlignmentError{
			Field:     "price",
			Value:     price,
			Orderbook: symbol,
			PowTick:   powPriceTick,
		}
	}
	return base.BigInt(), nil
}

// PriceFromAmounts derives the human-readable execution price from the two
// raw amounts of an on-chain event: amount1 * 10^d0 / (amount0 * 10^d1).
func PriceFromAmounts(amount0, amount1 *big.Int, powDecimal0, powDecimal1 int64) (decimal.Decimal, error) {
	if amount0.Sign() == 0 {
		return decimal.Decimal{}, fmt.Errorf("tickmath: amount0 is zero, price undefined")
	}
	exp0, err := PowExp(powDecimal0)
	if err != nil {
		return decimal.Decimal{}, err
	}
	exp1, err := PowExp(powDecimal1)
	if err != nil {
		return decimal.Decimal{}, err
	}
	num := decimal.NewFromBigInt(amount1, exp0)
	den := decimal.NewFromBigInt(amount0, exp1)
	return num.DivRound(den, priceDivPrecision), nil
}

// CheckSizeTick validates that a human-readable size is a nonzero multiple
// of the pair's size tick, without performing the conversion.
func CheckSizeTick(size string, powDecimal0, powSizeTick int64, symbol string) error {
	d, err := decimal.NewFromString(size)
	if err != nil {
		return fmt.Errorf("tickmath: parse size %q: %w", size, err)
	}
	exp0, err := PowExp(powDecimal0)
	if err != nil {
		return err
	}
	expTick, err := PowExp(powSizeTick)
	if err != nil {
		return err
	}
	scaled := d.Shift(exp0 - expTick)
	if scaled.IsZero() || !scaled.IsInteger() || scaled.IsNegative() {
		return &domain.TickAlignmentError{
			Field:     "size",
			Value:     size,
			Orderbook: symbol,
			PowTick:   powSizeTick,
		}
	}
	return nil
}

// CheckPriceTick validates that a human-readable price is a nonzero
// multiple of the pair's price tick.
func CheckPriceTick(price string, powDecimal1, powPriceTick int64, symbol string) error {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return fmt.Errorf("tickmath: parse price %q: %w", price, err)
	}
	exp1, err := PowExp(powDecimal1)
	if err != nil {
		return err
	}
	expTick, err := PowExp(powPriceTick)
	if err != nil {
		return err
	}
	scaled := d.Shift(exp1 - expTick)
	if scaled.IsZero() || !scaled.IsInteger() || scaled.IsNegative() {
		return &domain.TickAlignmentError{
			Field:     "price",
			Value:     price,
			Orderbook: symbol,
			PowTick:   powPriceTick,
		}
	}
	return nil
}
