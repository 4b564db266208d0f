// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/windscape/windscape/pkg/models"
)

// CreateTestStep creates a test StepDefinition with defaults that can be
// overridden.
func CreateTestStep(id string, overrides ...func(*models.StepDefinition)) *models.StepDefinition {
	step := &models.StepDefinition{
		ID:               id,
		Title:            "Step " + id,
		Category:         models.CategoryTerrain,
		Complexity:       models.ComplexityBasic,
		EstimatedMinutes: 10,
	}

	for _, override := range overrides {
		override(step)
	}

	return step
}

// WithPrerequisites sets the prerequisite step IDs.
func WithPrerequisites(ids ...string) func(*models.StepDefinition) {
	return func(s *models.StepDefinition) {
		s.Prerequisites = ids
	}
}

// WithNextSteps sets the suggested next steps.
func WithNextSteps(ids ...string) func(*models.StepDefinition) {
	return func(s *models.StepDefinition) {
		s.NextSteps = ids
	}
}

// WithCategory sets the step category.
func WithCategory(category models.StepCategory) func(*models.StepDefinition) {
	return func(s *models.StepDefinition) {
		s.Category = category
	}
}

// WithComplexity sets the step's complexity tier.
func WithComplexity(level models.ComplexityLevel) func(*models.StepDefinition) {
	return func(s *models.StepDefinition) {
		s.Complexity = level
	}
}

// WithOptional marks the step optional.
func WithOptional() func(*models.StepDefinition) {
	return func(s *models.StepDefinition) {
		s.Optional = true
	}
}

// CreateTestCatalog builds a catalog from the given steps, panicking on an
// invalid definition so tests fail loudly.
func CreateTestCatalog(steps ...*models.StepDefinition) *models.Catalog {
	catalog, err := models.NewCatalog(steps)
	if err != nil {
		panic(err)
	}

	return catalog
}

// LinearCatalog builds a catalog of n steps chained by prerequisites:
// s1 <- s2 <- ... <- sn.
func LinearCatalog(n int) *models.Catalog {
	steps := make([]*models.StepDefinition, 0, n)

	for i := 1; i <= n; i++ {
		step := CreateTestStep(stepID(i))
		if i > 1 {
			step.Prerequisites = []string{stepID(i - 1)}
			step.NextSteps = nil
		}

		if i < n {
			step.NextSteps = []string{stepID(i + 1)}
		}

		steps = append(steps, step)
	}

	catalog, err := models.NewCatalog(steps)
	if err != nil {
		panic(err)
	}

	return catalog
}

func stepID(i int) string {
	return "s" + strconv.Itoa(i)
}

// NewSessionData builds session data with a random session ID.
func NewSessionData() models.SessionData {
	return models.SessionData{
		SessionID:  uuid.New().String(),
		ProjectID:  "project-" + uuid.New().String()[:8],
		SharedData: make(map[string]map[string]any),
	}
}
