// Package disclosure derives feature unlocks, complexity upgrades,
// achievements and step recommendations from workflow state. Evaluation is
// pure and idempotent; committing any outcome is the caller's job.
package disclosure

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/windscape/windscape/pkg/models"
)

// CriteriaSet maps each tier above basic to the conditions for offering it.
type CriteriaSet map[models.ComplexityLevel]models.ComplexityUnlockCriteria

// DefaultCriteria returns the built-in tier ladder of the analysis
// dashboard. Minutes thresholds reflect cumulative session time.
func DefaultCriteria() CriteriaSet {
	return CriteriaSet{
		models.ComplexityIntermediate: {
			Target:        models.ComplexityIntermediate,
			RequiredSteps: []string{"terrain_analysis", "wind_resource"},
			MinMinutes:    15,
			Features:      []string{"wind_rose_overlay", "roughness_map"},
		},
		models.ComplexityAdvanced: {
			Target:        models.ComplexityAdvanced,
			RequiredSteps: []string{"wind_rose", "wake_simulation"},
			MinMinutes:    45,
			Features:      []string{"wake_deficit_layers", "custom_turbine_models"},
		},
		models.ComplexityExpert: {
			Target:        models.ComplexityExpert,
			RequiredSteps: []string{"layout_optimization", "energy_yield"},
			MinMinutes:    120,
			Features:      []string{"batch_optimization", "scripted_scenarios"},
		},
	}
}

type criteriaFile struct {
	Criteria []models.ComplexityUnlockCriteria `yaml:"criteria"`
}

// LoadCriteria reads a tier criteria set from a YAML file.
func LoadCriteria(path string) (CriteriaSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read criteria file %s: %w", path, err)
	}

	var file criteriaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse criteria YAML: %w", err)
	}

	set := make(CriteriaSet, len(file.Criteria))

	for _, criteria := range file.Criteria {
		if !criteria.Target.Valid() {
			return nil, fmt.Errorf("unknown tier %q in criteria file", criteria.Target)
		}

		if criteria.Target == models.ComplexityBasic {
			return nil, fmt.Errorf("tier %q cannot have unlock criteria", criteria.Target)
		}

		if _, dup := set[criteria.Target]; dup {
			return nil, fmt.Errorf("duplicate criteria for tier %q", criteria.Target)
		}

		set[criteria.Target] = criteria
	}

	return set, nil
}
