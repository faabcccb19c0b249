package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"valuation-lab/internal/domain"
	"valuation-lab/internal/valuation"
)

// ErrInvalidJob is returned for malformed job files.
var ErrInvalidJob = errors.New("invalid job")

// Job is a simulation request as submitted by users, from a file or the HTTP API.
// Variable names are case-sensitive, which is why jobs are not read through viper.
type Job struct {
	Formula       domain.Formula                     `json:"formula" yaml:"formula"`
	BaseInputs    map[string]float64                 `json:"baseInputs" yaml:"baseInputs"`
	Distributions map[string]domain.DistributionSpec `json:"distributions" yaml:"distributions"`
	Options       domain.SimulationConfig            `json:"options" yaml:"options"`
}

// LoadJob reads a job file. Files ending in .json are JSON, anything else YAML.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJobJSON(data)
	}
	return ParseJobYAML(data)
}

// ParseJobYAML decodes and normalises a YAML job.
func ParseJobYAML(data []byte) (*Job, error) {
	var j Job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if err := j.Normalize(); err != nil {
		return nil, err
	}
	return &j, nil
}

// ParseJobJSON decodes and normalises a JSON job.
func ParseJobJSON(data []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	if err := j.Normalize(); err != nil {
		return nil, err
	}
	return &j, nil
}

// Normalize upper-cases the formula and checks it is supported.
func (j *Job) Normalize() error {
	j.Formula = domain.Formula(strings.ToUpper(strings.TrimSpace(string(j.Formula))))
	if !valuation.ValidFormula(j.Formula) {
		return fmt.Errorf("%w: unsupported formula %q", ErrInvalidJob, j.Formula)
	}
	if len(j.Distributions) == 0 {
		return fmt.Errorf("%w: no distributions", ErrInvalidJob)
	}
	return nil
}

// ApplyDefaults fills unset execution settings from service config.
func (j *Job) ApplyDefaults(s SimulationConfig) {
	if j.Options.Workers == 0 {
		j.Options.Workers = s.Workers
	}
	if j.Options.MaxFailureRate == nil {
		rate := s.MaxFailureRate
		j.Options.MaxFailureRate = &rate
	}
	if j.Options.ProgressBatch == 0 {
		j.Options.ProgressBatch = s.ProgressBatch
	}
}
