package disclosure

import (
	"time"

	"github.com/windscape/windscape/pkg/models"
)

// AchievementRule grants one achievement when its condition holds against
// the full workflow state. Granted achievements are permanent; the engine
// only reports rules whose achievement is not yet in the earned set.
type AchievementRule struct {
	ID          string
	Title       string
	Description string
	Category    string
	Icon        string
	Met         func(state *models.WorkflowState, catalog *models.Catalog) bool
}

// DefaultAchievementRules returns the built-in achievement set of the
// analysis dashboard.
func DefaultAchievementRules() []AchievementRule {
	return []AchievementRule{
		{
			ID:          "first_findings",
			Title:       "First Findings",
			Description: "Complete your first analysis step",
			Category:    "progress",
			Icon:        "compass",
			Met: func(state *models.WorkflowState, _ *models.Catalog) bool {
				return state.Progress.CompletedSteps >= 1
			},
		},
		{
			ID:          "site_surveyor",
			Title:       "Site Surveyor",
			Description: "Complete five analysis steps",
			Category:    "progress",
			Icon:        "map",
			Met: func(state *models.WorkflowState, _ *models.Catalog) bool {
				return state.Progress.CompletedSteps >= 5
			},
		},
		{
			ID:          "cross_discipline",
			Title:       "Cross Discipline",
			Description: "Complete steps in three distinct analysis categories",
			Category:    "exploration",
			Icon:        "layers",
			Met: func(state *models.WorkflowState, catalog *models.Catalog) bool {
				return distinctCategories(state, catalog) >= 3
			},
		},
		{
			ID:          "full_survey",
			Title:       "Full Survey",
			Description: "Complete every required analysis step",
			Category:    "progress",
			Icon:        "flag",
			Met: func(state *models.WorkflowState, _ *models.Catalog) bool {
				return state.WorkflowCompleted
			},
		},
		{
			ID:          "deep_work",
			Title:       "Deep Work",
			Description: "Spend two hours analyzing a single site",
			Category:    "dedication",
			Icon:        "clock",
			Met: func(state *models.WorkflowState, _ *models.Catalog) bool {
				return state.Progress.TimeSpent >= 2*time.Hour
			},
		},
		{
			ID:          "expert_analyst",
			Title:       "Expert Analyst",
			Description: "Reach the expert complexity tier",
			Category:    "mastery",
			Icon:        "award",
			Met: func(state *models.WorkflowState, _ *models.Catalog) bool {
				return state.Progress.ComplexityLevel == models.ComplexityExpert
			},
		},
	}
}

func distinctCategories(state *models.WorkflowState, catalog *models.Catalog) int {
	seen := make(map[models.StepCategory]bool)

	for _, id := range state.CompletedSteps {
		if step, ok := catalog.Step(id); ok {
			seen[step.Category] = true
		}
	}

	return len(seen)
}
