package idhash

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"

	"valuation-lab/internal/domain"
)

// jobKey holds the fields that determine a run's result.
// Workers and ProgressBatch are excluded: they do not change the outcome population.
// MaxFailureRate is kept as given, so callers resolve defaults first.
type jobKey struct {
	Formula         domain.Formula                     `json:"formula"`
	BaseInputs      map[string]float64                 `json:"baseInputs"`
	Distributions   map[string]domain.DistributionSpec `json:"distributions"`
	Iterations      int                                `json:"iterations"`
	ConfidenceLevel float64                            `json:"confidenceLevel"`
	RandomSeed      uint64                             `json:"randomSeed"`
	Correlation     *domain.CorrelationMatrix          `json:"correlation,omitempty"`
	MaxFailureRate  *float64                           `json:"maxFailureRate,omitempty"`
}

// ComputeJobID computes a deterministic job fingerprint.
// Formula: base58(SHA256(canonical JSON of the result-determining fields)).
// Map keys are marshalled in sorted order, so equal jobs hash equally.
// Unseeded jobs are not reproducible and yield ok=false.
func ComputeJobID(
	formula domain.Formula,
	baseInputs map[string]float64,
	distributions map[string]domain.DistributionSpec,
	cfg domain.SimulationConfig,
) (id string, ok bool, err error) {
	if cfg.RandomSeed == nil {
		return "", false, nil
	}

	data, err := json.Marshal(jobKey{
		Formula:         formula,
		BaseInputs:      baseInputs,
		Distributions:   distributions,
		Iterations:      cfg.Iterations,
		ConfidenceLevel: cfg.ConfidenceLevel,
		RandomSeed:      *cfg.RandomSeed,
		Correlation:     cfg.CorrelationMatrix,
		MaxFailureRate:  cfg.MaxFailureRate,
	})
	if err != nil {
		return "", false, fmt.Errorf("marshal job key: %w", err)
	}

	hash := sha256.Sum256(data)
	return base58.Encode(hash[:]), true, nil
}
