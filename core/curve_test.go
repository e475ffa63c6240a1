package core

import (
	"errors"
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestBuildCurve_Sell(t *testing.T) {
	c := BuildCurve(RawOrder{ID: 1, QuantityPerTier: Curve{0, 0, 5, 5, 10, 10}}, Sell)

	check.Equal(t, int64(1), c.ID)
	check.Equal(t, Curve{0, 0, 5, 10, 20, 30}, c.Cumulative)
}

func TestBuildCurve_Buy(t *testing.T) {
	c := BuildCurve(RawOrder{ID: 2, QuantityPerTier: Curve{10, 8, 5, 2, 0, 0}}, Buy)

	check.Equal(t, int64(2), c.ID)
	check.Equal(t, Curve{25, 15, 7, 2, 0, 0}, c.Cumulative)
}

func TestBuildCurve_Monotone(t *testing.T) {
	order := RawOrder{ID: 1, QuantityPerTier: Curve{3, 1, 4, 1, 5, 9}}

	sell := BuildCurve(order, Sell).Cumulative
	buy := BuildCurve(order, Buy).Cumulative

	for i := 1; i < NumTiers; i++ {
		check.True(t, sell[i] >= sell[i-1])
		check.True(t, buy[i] <= buy[i-1])
	}
	check.Equal(t, sell[NumTiers-1], buy[0])
}

func TestAggregateCurve(t *testing.T) {
	curves := []CumulativeCurve{
		{ID: 1, Cumulative: Curve{1, 2, 3, 4, 5, 6}},
		{ID: 2, Cumulative: Curve{0, 0, 1, 1, 1, 1}},
	}

	check.Equal(t, Curve{1, 2, 4, 5, 6, 7}, AggregateCurve(curves))
}

func TestAggregateCurve_Empty(t *testing.T) {
	check.Equal(t, Curve{}, AggregateCurve(nil))
}

func TestAggregateCurve_OrderIndependent(t *testing.T) {
	a := CumulativeCurve{ID: 1, Cumulative: Curve{1, 2, 3, 4, 5, 6}}
	b := CumulativeCurve{ID: 2, Cumulative: Curve{6, 5, 4, 3, 2, 1}}

	check.Equal(t, AggregateCurve([]CumulativeCurve{a, b}), AggregateCurve([]CumulativeCurve{b, a}))
}

func TestRawOrder_Validate(t *testing.T) {
	check.NoError(t, RawOrder{ID: 1, QuantityPerTier: Curve{0, 1, 2, 3, 4, 5}}.Validate())

	err := RawOrder{ID: 1, QuantityPerTier: Curve{0, -1, 0, 0, 0, 0}}.Validate()
	check.Error(t, err)
	check.True(t, errors.Is(err, ErrNegativeQuantity))

	check.NoError(t, RawOrder{ID: 2, QuantityPerTier: Curve{MaxQuantity, 0, 0, 0, 0, 0}}.Validate())
	err = RawOrder{ID: 2, QuantityPerTier: Curve{0, 0, 0, 0, 0, MaxQuantity + 1}}.Validate()
	check.True(t, errors.Is(err, ErrQuantityTooLarge))
}

func TestRawOrder_MaxQuantityCurveFits(t *testing.T) {
	// a full curve at the bound, aggregated over many orders, stays positive
	o := RawOrder{ID: 1, QuantityPerTier: Curve{MaxQuantity, MaxQuantity, MaxQuantity, MaxQuantity, MaxQuantity, MaxQuantity}}
	c := BuildCurve(o, Sell)
	total := c.Cumulative[NumTiers-1] * (1 << 28)
	check.True(t, total > 0)
	check.Equal(t, int64(6*MaxQuantity), c.Cumulative[NumTiers-1])
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide("buy")
	check.NoError(t, err)
	check.Equal(t, Buy, s)

	s, err = ParseSide("sell")
	check.NoError(t, err)
	check.Equal(t, Sell, s)

	_, err = ParseSide("hold")
	check.Error(t, err)

	check.Equal(t, "side(9)", Side(9).String())
}
