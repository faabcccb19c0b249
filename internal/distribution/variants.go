package distribution

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"valuation-lab/internal/domain"
)

// Normal is a Gaussian distribution.
type Normal struct {
	Mean   float64
	StdDev float64
}

// NewNormal validates and returns a normal distribution.
func NewNormal(mean, stdDev float64) (*Normal, error) {
	if err := finite(mean, stdDev); err != nil {
		return nil, err
	}
	if stdDev < 0 {
		return nil, fmt.Errorf("%w: normal stdDev %v is negative", ErrInvalidParameters, stdDev)
	}
	return &Normal{Mean: mean, StdDev: stdDev}, nil
}

func (d *Normal) Kind() domain.DistributionKind { return domain.KindNormal }

func (d *Normal) Sample(rng RandomSource) float64 { return d.Quantile(UnitDraw(rng)) }

func (d *Normal) Quantile(p float64) float64 {
	return distuv.Normal{Mu: d.Mean, Sigma: d.StdDev}.Quantile(p)
}

func (d *Normal) Central() float64 { return d.Mean }

// Triangular is bounded by Min and Max with its peak at Mode.
type Triangular struct {
	Min  float64
	Mode float64
	Max  float64
}

// NewTriangular validates min <= mode <= max.
func NewTriangular(min, mode, max float64) (*Triangular, error) {
	if err := finite(min, mode, max); err != nil {
		return nil, err
	}
	if !(min <= mode && mode <= max) {
		return nil, fmt.Errorf("%w: triangular requires min <= mode <= max, got %v/%v/%v",
			ErrInvalidParameters, min, mode, max)
	}
	return &Triangular{Min: min, Mode: mode, Max: max}, nil
}

func (d *Triangular) Kind() domain.DistributionKind { return domain.KindTriangular }

func (d *Triangular) Sample(rng RandomSource) float64 { return d.Quantile(UnitDraw(rng)) }

// Quantile inverts the CDF with the breakpoint at (mode-min)/(max-min).
func (d *Triangular) Quantile(p float64) float64 {
	if d.Min == d.Max {
		return d.Min
	}
	return distuv.NewTriangle(d.Min, d.Max, d.Mode, nil).Quantile(p)
}

func (d *Triangular) Central() float64 { return d.Mode }

// Uniform is flat on [Min, Max].
type Uniform struct {
	Min float64
	Max float64
}

// NewUniform validates min <= max.
func NewUniform(min, max float64) (*Uniform, error) {
	if err := finite(min, max); err != nil {
		return nil, err
	}
	if min > max {
		return nil, fmt.Errorf("%w: uniform requires min <= max, got %v/%v", ErrInvalidParameters, min, max)
	}
	return &Uniform{Min: min, Max: max}, nil
}

func (d *Uniform) Kind() domain.DistributionKind { return domain.KindUniform }

func (d *Uniform) Sample(rng RandomSource) float64 { return d.Quantile(UnitDraw(rng)) }

func (d *Uniform) Quantile(p float64) float64 {
	return d.Min + p*(d.Max-d.Min)
}

func (d *Uniform) Central() float64 { return (d.Min + d.Max) / 2 }

// LogNormal is exp(X) with X ~ Normal(Mu, Sigma).
type LogNormal struct {
	Mu    float64
	Sigma float64
}

// NewLogNormal validates sigma >= 0.
func NewLogNormal(mu, sigma float64) (*LogNormal, error) {
	if err := finite(mu, sigma); err != nil {
		return nil, err
	}
	if sigma < 0 {
		return nil, fmt.Errorf("%w: lognormal sigma %v is negative", ErrInvalidParameters, sigma)
	}
	return &LogNormal{Mu: mu, Sigma: sigma}, nil
}

func (d *LogNormal) Kind() domain.DistributionKind { return domain.KindLogNormal }

func (d *LogNormal) Sample(rng RandomSource) float64 { return d.Quantile(UnitDraw(rng)) }

func (d *LogNormal) Quantile(p float64) float64 {
	return distuv.LogNormal{Mu: d.Mu, Sigma: d.Sigma}.Quantile(p)
}

// Central returns the distribution mean.
func (d *LogNormal) Central() float64 { return math.Exp(d.Mu + d.Sigma*d.Sigma/2) }

// Beta is supported on [0, 1].
type Beta struct {
	Alpha float64
	Beta  float64
}

// NewBeta validates alpha > 0 and beta > 0.
func NewBeta(alpha, beta float64) (*Beta, error) {
	if err := finite(alpha, beta); err != nil {
		return nil, err
	}
	if alpha <= 0 || beta <= 0 {
		return nil, fmt.Errorf("%w: beta requires alpha > 0 and beta > 0, got %v/%v",
			ErrInvalidParameters, alpha, beta)
	}
	return &Beta{Alpha: alpha, Beta: beta}, nil
}

func (d *Beta) Kind() domain.DistributionKind { return domain.KindBeta }

func (d *Beta) Sample(rng RandomSource) float64 { return d.Quantile(UnitDraw(rng)) }

// Quantile inverts the regularized incomplete beta function.
func (d *Beta) Quantile(p float64) float64 {
	return distuv.Beta{Alpha: d.Alpha, Beta: d.Beta}.Quantile(p)
}

func (d *Beta) Central() float64 { return d.Alpha / (d.Alpha + d.Beta) }

func finite(vals ...float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: parameter %v is not finite", ErrInvalidParameters, v)
		}
	}
	return nil
}

var (
	_ Distribution = (*Normal)(nil)
	_ Distribution = (*Triangular)(nil)
	_ Distribution = (*Uniform)(nil)
	_ Distribution = (*LogNormal)(nil)
	_ Distribution = (*Beta)(nil)
)
