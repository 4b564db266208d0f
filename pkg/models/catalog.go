package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateStepID is returned when two catalog steps share an ID.
	ErrDuplicateStepID = errors.New("duplicate step id")
	// ErrUnknownPrerequisite is returned when a step references a
	// prerequisite that is not part of the catalog.
	ErrUnknownPrerequisite = errors.New("unknown prerequisite step id")
	// ErrPrerequisiteCycle is returned when the prerequisite relation is
	// not acyclic.
	ErrPrerequisiteCycle = errors.New("prerequisite cycle detected")
)

// Catalog is the immutable set of step definitions driving a workflow
// session. Steps keep their declared order; lookups go through an index.
type Catalog struct {
	steps []*StepDefinition
	index map[string]*StepDefinition
}

// NewCatalog builds a catalog from step definitions, validating ID
// uniqueness, prerequisite references and acyclicity of the prerequisite
// relation.
func NewCatalog(steps []*StepDefinition) (*Catalog, error) {
	index := make(map[string]*StepDefinition, len(steps))

	for _, step := range steps {
		if _, exists := index[step.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStepID, step.ID)
		}

		index[step.ID] = step
	}

	for _, step := range steps {
		for _, prereq := range step.Prerequisites {
			if _, exists := index[prereq]; !exists {
				return nil, fmt.Errorf("%w: step %s requires %s", ErrUnknownPrerequisite, step.ID, prereq)
			}
		}
	}

	if cycle := findPrerequisiteCycle(steps, index); cycle != "" {
		return nil, fmt.Errorf("%w: involving step %s", ErrPrerequisiteCycle, cycle)
	}

	return &Catalog{steps: steps, index: index}, nil
}

// Step returns the definition for the given ID.
func (c *Catalog) Step(id string) (*StepDefinition, bool) {
	step, ok := c.index[id]

	return step, ok
}

// Steps returns all step definitions in catalog order. The returned slice
// must not be mutated.
func (c *Catalog) Steps() []*StepDefinition {
	return c.steps
}

// Len returns the number of steps in the catalog.
func (c *Catalog) Len() int {
	return len(c.steps)
}

// RequiredStepIDs returns the IDs of all non-optional steps in catalog order.
func (c *Catalog) RequiredStepIDs() []string {
	ids := make([]string, 0, len(c.steps))

	for _, step := range c.steps {
		if !step.Optional {
			ids = append(ids, step.ID)
		}
	}

	return ids
}

// StepsByCategory returns the steps belonging to the given category in
// catalog order.
func (c *Catalog) StepsByCategory(category StepCategory) []*StepDefinition {
	var result []*StepDefinition

	for _, step := range c.steps {
		if step.Category == category {
			result = append(result, step)
		}
	}

	return result
}

// findPrerequisiteCycle runs a three-color depth-first search over the
// prerequisite relation and returns the ID of a step on a cycle, or "".
func findPrerequisiteCycle(steps []*StepDefinition, index map[string]*StepDefinition) string {
	const (
		white = iota // unvisited
		gray         // on the current DFS path
		black        // fully explored
	)

	colors := make(map[string]int, len(steps))

	var visit func(id string) string

	visit = func(id string) string {
		colors[id] = gray

		for _, prereq := range index[id].Prerequisites {
			switch colors[prereq] {
			case gray:
				return prereq
			case white:
				if found := visit(prereq); found != "" {
					return found
				}
			}
		}

		colors[id] = black

		return ""
	}

	for _, step := range steps {
		if colors[step.ID] == white {
			if found := visit(step.ID); found != "" {
				return found
			}
		}
	}

	return ""
}
