package valuation

import (
	"fmt"

	"valuation-lab/internal/domain"
)

// Evaluate merges base inputs with one draw of sampled inputs and applies the formula.
// Sampled values take precedence over base values of the same name.
func Evaluate(formula domain.Formula, base, sampled map[string]float64) (*domain.ScenarioOutcome, error) {
	in := inputs{base: base, sampled: sampled}

	var (
		outputs map[string]float64
		err     error
	)
	switch formula {
	case domain.FormulaDCF:
		outputs, err = discountedCashFlow(in)
	case domain.FormulaLBO:
		outputs, err = leveragedBuyout(in)
	default:
		return nil, fmt.Errorf("%w: unknown formula %q", ErrEvaluation, formula)
	}
	if err != nil {
		return nil, err
	}

	return &domain.ScenarioOutcome{
		Inputs:  sampled,
		Outputs: outputs,
	}, nil
}

// Metrics lists the outputs a formula produces, in reporting order.
func Metrics(formula domain.Formula) []string {
	switch formula {
	case domain.FormulaDCF:
		return []string{
			domain.MetricPricePerShare,
			domain.MetricEnterpriseValue,
			domain.MetricEquityValue,
			domain.MetricUpside,
		}
	case domain.FormulaLBO:
		return []string{
			domain.MetricIRR,
			domain.MetricMOIC,
			domain.MetricExitEquityValue,
			domain.MetricExitEnterpriseValue,
		}
	default:
		return nil
	}
}

// ValidFormula reports whether f is a supported formula.
func ValidFormula(f domain.Formula) bool {
	return f == domain.FormulaDCF || f == domain.FormulaLBO
}
