package protocol

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrPriceNotOnTick  = errors.New("price is not a multiple of the tick size")
	ErrNotPositive     = errors.New("value must be positive")
	ErrQuantityNotUint = errors.New("quantity must be a whole number of units")
)

// ParsePrice converts a decimal price string into an integer number of ticks.
// The price must be positive and an exact multiple of tickSize.
func ParsePrice(s string, tickSize decimal.Decimal) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}

	if d.Sign() <= 0 {
		return 0, ErrNotPositive
	}

	ticks := d.Div(tickSize)
	if !ticks.IsInteger() {
		return 0, ErrPriceNotOnTick
	}

	return ticks.IntPart(), nil
}

// FormatPrice renders a tick count back into a decimal price string.
func FormatPrice(ticks int64, tickSize decimal.Decimal) string {
	return decimal.NewFromInt(ticks).Mul(tickSize).String()
}

// ParseQuantity converts a decimal quantity string into a whole unit count.
func ParseQuantity(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}

	if d.Sign() <= 0 {
		return 0, ErrNotPositive
	}

	if !d.IsInteger() {
		return 0, ErrQuantityNotUint
	}

	bi := d.BigInt()
	if !bi.IsUint64() {
		return 0, ErrQuantityNotUint
	}

	return bi.Uint64(), nil
}

// FormatQuantity renders a unit count as a decimal string.
func FormatQuantity(units uint64) string {
	return decimal.NewFromUint64(units).String()
}
