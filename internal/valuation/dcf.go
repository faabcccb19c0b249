package valuation

import (
	"fmt"
	"math"

	"valuation-lab/internal/domain"
)

// DCF defaults for inputs absent from both base and sampled values.
const (
	DefaultRevenueGrowth    = 0.05
	DefaultOperatingMargin  = 0.20
	DefaultTaxRate          = 0.25
	DefaultReinvestmentRate = 0.05
	DefaultWACC             = 0.10
	DefaultTerminalGrowth   = 0.025
	DefaultProjectionYears  = 5
)

// discountedCashFlow projects free cash flow over the horizon and discounts it at WACC.
//
//	revenue_t = revenue_{t-1} * (1 + growth)
//	fcf_t     = revenue_t * margin * (1 - tax) - revenue_t * reinvestment
//	TV        = fcf_N * (1 + g) / (wacc - g)
func discountedCashFlow(in inputs) (map[string]float64, error) {
	revenue, err := in.positive(InputCurrentRevenue)
	if err != nil {
		return nil, err
	}
	price, err := in.positive(InputCurrentPrice)
	if err != nil {
		return nil, err
	}
	shares, err := in.positive(InputSharesOutstanding)
	if err != nil {
		return nil, err
	}
	n, err := in.years(InputProjectionYears, DefaultProjectionYears)
	if err != nil {
		return nil, err
	}

	growth := in.get(InputRevenueGrowth, DefaultRevenueGrowth)
	margin := in.get(InputOperatingMargin, DefaultOperatingMargin)
	tax := in.get(InputTaxRate, DefaultTaxRate)
	reinvest := in.get(InputReinvestmentRate, DefaultReinvestmentRate)
	wacc := in.get(InputWACC, DefaultWACC)
	tg := in.get(InputTerminalGrowth, DefaultTerminalGrowth)
	netDebt := in.get(InputNetDebt, 0)

	if wacc <= -1 {
		return nil, fmt.Errorf("%w: wacc %v makes the discount factor undefined", ErrEvaluation, wacc)
	}
	if tg >= wacc {
		return nil, fmt.Errorf("%w: terminal growth %v >= wacc %v", ErrEvaluation, tg, wacc)
	}

	pv := 0.0
	fcf := 0.0
	for t := 1; t <= n; t++ {
		revenue *= 1 + growth
		fcf = revenue*margin*(1-tax) - revenue*reinvest
		pv += fcf / math.Pow(1+wacc, float64(t))
	}
	terminal := fcf * (1 + tg) / (wacc - tg)
	ev := pv + terminal/math.Pow(1+wacc, float64(n))
	equity := ev - netDebt
	perShare := equity / shares

	out := map[string]float64{
		domain.MetricEnterpriseValue: ev,
		domain.MetricEquityValue:     equity,
		domain.MetricPricePerShare:   perShare,
		domain.MetricUpside:          perShare/price - 1,
	}
	return out, checkFinite(out)
}
