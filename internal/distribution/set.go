package distribution

import (
	"fmt"
	"sort"

	"valuation-lab/internal/domain"
)

// Variable is one enabled, sampled input.
type Variable struct {
	Name string
	Dist Distribution
}

// Set is the validated collection of inputs for a run.
// Sampled variables are ordered by name; disabled ones are held at a fixed baseline.
type Set struct {
	Sampled []Variable
	Fixed   map[string]float64
}

// NewSet validates every distribution up front, before any sampling begins.
// Disabled specs must still be well-formed since their central value is used.
func NewSet(specs map[string]domain.DistributionSpec) (*Set, error) {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	set := &Set{Fixed: make(map[string]float64)}
	for _, name := range names {
		spec := specs[name]
		if !spec.Enabled && spec.Baseline != nil {
			set.Fixed[name] = *spec.Baseline
			continue
		}

		d, err := FromSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		if spec.Enabled {
			set.Sampled = append(set.Sampled, Variable{Name: name, Dist: d})
		} else {
			set.Fixed[name] = d.Central()
		}
	}
	return set, nil
}

// Names returns sampled variable names in sampling order.
func (s *Set) Names() []string {
	names := make([]string, len(s.Sampled))
	for i, v := range s.Sampled {
		names[i] = v.Name
	}
	return names
}
