package valuation

import (
	"fmt"
	"math"

	"valuation-lab/internal/domain"
)

// LBO defaults.
const (
	DefaultEBITDAMargin   = 0.25
	DefaultEntryMultiple  = 10.0
	DefaultLeverage       = 5.0
	DefaultEBITDAGrowth   = 0.05
	DefaultInterestRate   = 0.08
	DefaultCashConversion = 0.5
	DefaultHoldingPeriod  = 5
)

// leveragedBuyout models an acquisition funded with debt that is swept down from free cash.
// Each year: EBITDA grows, interest accrues on outstanding debt, and
// EBITDA*cashConversion - interest repays principal. Debt never goes negative.
func leveragedBuyout(in inputs) (map[string]float64, error) {
	ebitda, ok := in.lookup(InputEntryEBITDA)
	if !ok {
		revenue, err := in.positive(InputCurrentRevenue)
		if err != nil {
			return nil, fmt.Errorf("%w: entryEbitda or currentRevenue required", ErrEvaluation)
		}
		ebitda = revenue * in.get(InputEBITDAMargin, DefaultEBITDAMargin)
	}
	if !(ebitda > 0) {
		return nil, fmt.Errorf("%w: entry EBITDA must be positive, got %v", ErrEvaluation, ebitda)
	}

	entryMultiple := in.get(InputEntryMultiple, DefaultEntryMultiple)
	exitMultiple := in.get(InputExitMultiple, entryMultiple)
	leverage := in.get(InputLeverage, DefaultLeverage)
	growth := in.get(InputEBITDAGrowth, DefaultEBITDAGrowth)
	rate := in.get(InputInterestRate, DefaultInterestRate)
	conversion := in.get(InputCashConversion, DefaultCashConversion)
	n, err := in.years(InputHoldingPeriod, DefaultHoldingPeriod)
	if err != nil {
		return nil, err
	}
	if leverage < 0 {
		return nil, fmt.Errorf("%w: leverage %v is negative", ErrEvaluation, leverage)
	}

	debt := ebitda * leverage
	entryEquity := ebitda*entryMultiple - debt
	if !(entryEquity > 0) {
		return nil, fmt.Errorf("%w: entry equity %v is not positive", ErrEvaluation, entryEquity)
	}

	for t := 0; t < n; t++ {
		ebitda *= 1 + growth
		interest := debt * rate
		repay := ebitda*conversion - interest
		if repay > 0 {
			debt = math.Max(0, debt-repay)
		} else {
			// shortfall is capitalised
			debt -= repay
		}
	}

	exitEV := ebitda * exitMultiple
	exitEquity := math.Max(0, exitEV-debt)
	moic := exitEquity / entryEquity
	irr := math.Pow(moic, 1/float64(n)) - 1

	out := map[string]float64{
		domain.MetricIRR:                 irr,
		domain.MetricMOIC:                moic,
		domain.MetricExitEquityValue:     exitEquity,
		domain.MetricExitEnterpriseValue: exitEV,
	}
	return out, checkFinite(out)
}
