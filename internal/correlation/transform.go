// Package correlation couples independent samples into a target correlation structure.
//
// The transform is a Gaussian copula: uniforms are mapped to standard normals, multiplied by
// the lower Cholesky factor of the correlation matrix, and mapped back to uniforms. Callers
// then apply each variable's own quantile function, which preserves the marginals.
package correlation

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"valuation-lab/internal/domain"
)

var (
	// ErrInvalidMatrix is returned for non-square, asymmetric or out-of-range matrices.
	ErrInvalidMatrix = errors.New("invalid correlation matrix")

	// ErrNonPositiveDefiniteMatrix is returned when Cholesky decomposition fails.
	ErrNonPositiveDefiniteMatrix = errors.New("correlation matrix is not positive definite")
)

const (
	symmetryTolerance = 1e-9
	// uniforms are kept away from 0 and 1 so downstream quantiles stay finite
	uniformEpsilon = 1e-12
)

// Transform holds the lower Cholesky factor of a correlation matrix. Read-only after New,
// so one Transform may be shared by concurrent workers.
type Transform struct {
	dim   int
	lower [][]float64
}

// New validates and factorises a correlation matrix.
func New(m *domain.CorrelationMatrix) (*Transform, error) {
	if err := validate(m); err != nil {
		return nil, err
	}

	n := m.Dim()
	data := make([]float64, 0, n*n)
	for _, row := range m.Values {
		data = append(data, row...)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(n, data)); !ok {
		return nil, ErrNonPositiveDefiniteMatrix
	}
	l := mat.NewTriDense(n, mat.Lower, nil)
	chol.LTo(l)

	lower := make([][]float64, n)
	for i := 0; i < n; i++ {
		lower[i] = make([]float64, i+1)
		for j := 0; j <= i; j++ {
			lower[i][j] = l.At(i, j)
		}
	}
	return &Transform{dim: n, lower: lower}, nil
}

// Dim returns the number of variables the transform couples.
func (t *Transform) Dim() int { return t.dim }

// Correlate multiplies independent standard normals by the lower factor.
// The result has the target correlation structure and standard normal marginals.
func (t *Transform) Correlate(z []float64) []float64 {
	if len(z) != t.dim {
		out := make([]float64, len(z))
		copy(out, z)
		return out
	}
	out := make([]float64, t.dim)
	for i, row := range t.lower {
		sum := 0.0
		for j, l := range row {
			sum += l * z[j]
		}
		out[i] = sum
	}
	return out
}

// Couple maps independent uniforms to correlated uniforms.
func (t *Transform) Couple(u []float64) []float64 {
	z := make([]float64, len(u))
	for i, v := range u {
		z[i] = distuv.UnitNormal.Quantile(v)
	}
	y := t.Correlate(z)
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = clampUnit(distuv.UnitNormal.CDF(v))
	}
	return out
}

// Correlate is the one-shot form of New followed by Transform.Correlate.
func Correlate(independent []float64, m *domain.CorrelationMatrix) ([]float64, error) {
	t, err := New(m)
	if err != nil {
		return nil, err
	}
	if len(independent) != t.dim {
		return nil, fmt.Errorf("%w: %d samples for a %dx%d matrix", ErrInvalidMatrix, len(independent), t.dim, t.dim)
	}
	return t.Correlate(independent), nil
}

func validate(m *domain.CorrelationMatrix) error {
	n := m.Dim()
	if n == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidMatrix)
	}
	if len(m.Variables) > 0 && len(m.Variables) != n {
		return fmt.Errorf("%w: %d variable labels for dimension %d", ErrInvalidMatrix, len(m.Variables), n)
	}
	for i, row := range m.Values {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidMatrix, i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) || v < -1 || v > 1 {
				return fmt.Errorf("%w: entry (%d,%d)=%v outside [-1,1]", ErrInvalidMatrix, i, j, v)
			}
		}
		if math.Abs(row[i]-1) > symmetryTolerance {
			return fmt.Errorf("%w: diagonal (%d,%d)=%v, want 1", ErrInvalidMatrix, i, i, row[i])
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(m.Values[i][j]-m.Values[j][i]) > symmetryTolerance {
				return fmt.Errorf("%w: asymmetric at (%d,%d)", ErrInvalidMatrix, i, j)
			}
		}
	}
	return nil
}

func clampUnit(u float64) float64 {
	if u < uniformEpsilon {
		return uniformEpsilon
	}
	if u > 1-uniformEpsilon {
		return 1 - uniformEpsilon
	}
	return u
}
