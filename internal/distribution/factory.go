package distribution

import (
	"fmt"

	"valuation-lab/internal/domain"
)

// FromSpec builds a Distribution from a spec, validating required keys per kind.
func FromSpec(spec domain.DistributionSpec) (Distribution, error) {
	switch spec.Kind {
	case domain.KindNormal:
		p, err := requireParams(spec, domain.ParamMean, domain.ParamStdDev)
		if err != nil {
			return nil, err
		}
		return NewNormal(p[0], p[1])
	case domain.KindTriangular:
		p, err := requireParams(spec, domain.ParamMin, domain.ParamMode, domain.ParamMax)
		if err != nil {
			return nil, err
		}
		return NewTriangular(p[0], p[1], p[2])
	case domain.KindUniform:
		p, err := requireParams(spec, domain.ParamMin, domain.ParamMax)
		if err != nil {
			return nil, err
		}
		return NewUniform(p[0], p[1])
	case domain.KindLogNormal:
		p, err := requireParams(spec, domain.ParamMu, domain.ParamSigma)
		if err != nil {
			return nil, err
		}
		return NewLogNormal(p[0], p[1])
	case domain.KindBeta:
		p, err := requireParams(spec, domain.ParamAlpha, domain.ParamBeta)
		if err != nil {
			return nil, err
		}
		return NewBeta(p[0], p[1])
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidParameters, spec.Kind)
	}
}

// requireParams returns the named parameters in order or fails on the first missing key.
func requireParams(spec domain.DistributionSpec, keys ...string) ([]float64, error) {
	vals := make([]float64, len(keys))
	for i, k := range keys {
		v, ok := spec.Param(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s requires %q", ErrInvalidParameters, spec.Kind, k)
		}
		vals[i] = v
	}
	return vals, nil
}
