package domain

// CorrelationMatrix holds pairwise correlation coefficients between sampled variables.
// Values is square and symmetric with a unit diagonal.
type CorrelationMatrix struct {
	// Variables labels rows/columns. Empty means enabled variable names in lexical order.
	Variables []string    `json:"variables,omitempty" yaml:"variables,omitempty"`
	Values    [][]float64 `json:"values" yaml:"values"`
}

// Dim returns the matrix dimension.
func (m *CorrelationMatrix) Dim() int {
	if m == nil {
		return 0
	}
	return len(m.Values)
}
