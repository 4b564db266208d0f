package workflow

import "github.com/windscape/windscape/pkg/models"

// AvailableSteps computes which steps may be started given the completed
// set. A step is available iff it is not already completed and every one of
// its prerequisites is completed. The result keeps catalog order.
//
// The computation is pure and runs over the full catalog; it is recomputed
// from scratch after every change to the completed set rather than patched
// incrementally, so a hot-reloaded catalog can never drift out of sync.
// Completed IDs unknown to the catalog are ignored; they satisfy no
// prerequisite.
func AvailableSteps(catalog *models.Catalog, completed []string) []string {
	done := make(map[string]bool, len(completed))

	for _, id := range completed {
		if _, known := catalog.Step(id); known {
			done[id] = true
		}
	}

	available := make([]string, 0, catalog.Len())

	for _, step := range catalog.Steps() {
		if done[step.ID] {
			continue
		}

		if prerequisitesSatisfied(step, done) {
			available = append(available, step.ID)
		}
	}

	return available
}

func prerequisitesSatisfied(step *models.StepDefinition, done map[string]bool) bool {
	for _, prereq := range step.Prerequisites {
		if !done[prereq] {
			return false
		}
	}

	return true
}
