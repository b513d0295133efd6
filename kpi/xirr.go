package kpi

import (
	"math"

	"github.com/etnz/folio/date"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
)

const (
	daysPerYear = 365.2425

	guess       = 0.1
	newtonSteps = 50
	bisectSteps = 200
	tolerance   = 1e-8

	// lowest is the bracket floor of the search, the discount factor vanishes below.
	lowest  = -0.9999
	highest = 10.0
)

// CashFlow is an amount received (positive) or paid (negative) on a day.
type CashFlow struct {
	On     date.Date
	Amount float64
}

// XNPV returns the net present value of flows at an annual rate, discounted
// to the earliest flow.
func XNPV(rate float64, flows []CashFlow) float64 {
	if len(flows) == 0 {
		return 0
	}
	first := flows[0].On
	for _, f := range flows[1:] {
		if f.On.Before(first) {
			first = f.On
		}
	}
	terms := make([]float64, len(flows))
	for i, f := range flows {
		years := float64(f.On.Sub(first)) / daysPerYear
		terms[i] = f.Amount / math.Pow(1+rate, years)
	}
	return floats.Sum(terms)
}

// XIRR returns the annual rate at which the net present value of flows is
// zero. It reports false when the flows do not change sign, or when no root
// lies in [-99.99%, 1000%].
//
// Newton's method starts at 10%, and bisection takes over when it does not
// converge.
func XIRR(flows []CashFlow) (float64, bool) {
	var in, out bool
	for _, f := range flows {
		in = in || f.Amount > 0
		out = out || f.Amount < 0
	}
	if !in || !out {
		return 0, false
	}
	npv := func(r float64) float64 { return XNPV(r, flows) }

	r := guess
	for range newtonSteps {
		v := npv(r)
		if math.Abs(v) < tolerance {
			return r, true
		}
		d := fd.Derivative(npv, r, &fd.Settings{Formula: fd.Forward, Step: 1e-6})
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			break
		}
		r -= v / d
		if r <= lowest {
			r = lowest + 1e-4
		}
	}

	lo, hi := lowest, highest
	flo, fhi := npv(lo), npv(hi)
	if math.IsNaN(flo) || math.IsNaN(fhi) || flo*fhi > 0 {
		return 0, false
	}
	for range bisectSteps {
		mid := (lo + hi) / 2
		fmid := npv(mid)
		if math.Abs(fmid) < tolerance {
			return mid, true
		}
		if flo*fmid < 0 {
			hi = mid
		} else {
			lo, flo = mid, fmid
		}
	}
	return (lo + hi) / 2, true
}

// Amount is a sum of money in the base currency on a day.
type Amount struct {
	On    date.Date
	Value decimal.Decimal
}

// TimeWeightedReturn chains the returns of the periods between consecutive
// valuations, each net of the contributions of its period. A contribution
// made on a valuation day belongs to the period ending that day.
//
// It reports false with fewer than two valuations, or when a period starts
// from a value that is not positive.
func TimeWeightedReturn(valuations, contributions []Amount) (decimal.Decimal, bool) {
	if len(valuations) < 2 {
		return decimal.Zero, false
	}
	growth := decimal.NewFromInt(1)
	for i := 1; i < len(valuations); i++ {
		start, end := valuations[i-1], valuations[i]
		if !start.Value.IsPositive() {
			return decimal.Zero, false
		}
		net := decimal.Zero
		for _, c := range contributions {
			if c.On.After(start.On) && !c.On.After(end.On) {
				net = net.Add(c.Value)
			}
		}
		growth = growth.Mul(end.Value.Sub(net).DivRound(start.Value, 16))
	}
	return growth.Sub(decimal.NewFromInt(1)), true
}
