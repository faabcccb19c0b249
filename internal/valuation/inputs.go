// Package valuation applies deterministic valuation formulas to one sample vector.
// Every function here is pure and safe to call from concurrent workers.
package valuation

import (
	"errors"
	"fmt"
	"math"
)

// ErrEvaluation is returned when a formula is ill-defined for the given inputs.
// The orchestrator drops the iteration and counts it.
var ErrEvaluation = errors.New("evaluation error")

// Input names shared by the formulas.
const (
	InputCurrentRevenue    = "currentRevenue"
	InputCurrentPrice      = "currentPrice"
	InputSharesOutstanding = "sharesOutstanding"
	InputRevenueGrowth     = "revenueGrowth"
	InputOperatingMargin   = "operatingMargin"
	InputTaxRate           = "taxRate"
	InputReinvestmentRate  = "reinvestmentRate"
	InputWACC              = "wacc"
	InputTerminalGrowth    = "terminalGrowth"
	InputProjectionYears   = "projectionYears"
	InputNetDebt           = "netDebt"

	InputEntryEBITDA    = "entryEbitda"
	InputEBITDAMargin   = "ebitdaMargin"
	InputEntryMultiple  = "entryMultiple"
	InputExitMultiple   = "exitMultiple"
	InputLeverage       = "leverage"
	InputEBITDAGrowth   = "ebitdaGrowth"
	InputInterestRate   = "interestRate"
	InputCashConversion = "cashConversion"
	InputHoldingPeriod  = "holdingPeriod"
)

// inputs is a read-only view over base inputs overlaid with sampled values.
type inputs struct {
	base    map[string]float64
	sampled map[string]float64
}

func (in inputs) lookup(name string) (float64, bool) {
	if v, ok := in.sampled[name]; ok {
		return v, true
	}
	v, ok := in.base[name]
	return v, ok
}

func (in inputs) get(name string, def float64) float64 {
	if v, ok := in.lookup(name); ok {
		return v
	}
	return def
}

// positive returns a required input that must be strictly positive.
func (in inputs) positive(name string) (float64, error) {
	v, ok := in.lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrEvaluation, name)
	}
	if !(v > 0) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be positive, got %v", ErrEvaluation, name, v)
	}
	return v, nil
}

// years reads an integer horizon of at least one year.
func (in inputs) years(name string, def float64) (int, error) {
	v := math.Round(in.get(name, def))
	if v < 1 || math.IsNaN(v) || v > 100 {
		return 0, fmt.Errorf("%w: %s must be between 1 and 100, got %v", ErrEvaluation, name, v)
	}
	return int(v), nil
}

func checkFinite(outputs map[string]float64) error {
	for name, v := range outputs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrEvaluation, name)
		}
	}
	return nil
}
