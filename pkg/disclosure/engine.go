package disclosure

import (
	"slices"

	"github.com/windscape/windscape/pkg/models"
)

// UpgradeOffer proposes the next complexity tier. The engine never applies
// it; an explicit acceptance call on the state machine commits the change.
type UpgradeOffer struct {
	From     models.ComplexityLevel `json:"from"`
	To       models.ComplexityLevel `json:"to"`
	Features []string               `json:"features,omitempty"`
}

// Evaluation is the outcome of one engine run against a state snapshot.
// Every field reports only deltas against what the state already records,
// so re-evaluating unchanged state yields an empty evaluation apart from
// a still-standing upgrade offer and recommendations.
type Evaluation struct {
	NewFeatures       []string               `json:"new_features,omitempty"`
	FeatureLevel      models.ComplexityLevel `json:"feature_level,omitempty"`
	ComplexityUpgrade *UpgradeOffer          `json:"complexity_upgrade,omitempty"`
	Achievements      []models.Achievement   `json:"achievements,omitempty"`
	Recommendations   []string               `json:"recommendations,omitempty"`
}

// Engine evaluates progressive disclosure rules. It holds only static
// configuration and is safe to share across sessions.
type Engine struct {
	catalog  *models.Catalog
	criteria CriteriaSet
	rules    []AchievementRule
}

func NewEngine(catalog *models.Catalog, criteria CriteriaSet, rules []AchievementRule) *Engine {
	return &Engine{
		catalog:  catalog,
		criteria: criteria,
		rules:    rules,
	}
}

// NewDefaultEngine builds an engine with the built-in tier criteria and
// achievement rules.
func NewDefaultEngine(catalog *models.Catalog) *Engine {
	return NewEngine(catalog, DefaultCriteria(), DefaultAchievementRules())
}

// Evaluate runs all disclosure rules against the state. It is pure: the
// state is never mutated and calling it any number of times against the
// same state produces the same result.
func (e *Engine) Evaluate(state *models.WorkflowState) Evaluation {
	evaluation := Evaluation{
		NewFeatures:     e.pendingFeatures(state),
		FeatureLevel:    state.Progress.ComplexityLevel,
		Achievements:    e.pendingAchievements(state),
		Recommendations: e.recommendations(state),
	}

	evaluation.ComplexityUpgrade = e.upgradeOffer(state)

	return evaluation
}

// pendingFeatures returns features owned by any tier at or below the
// current level that are not yet in the unlocked set. Features surface the
// instant their tier is reached, and never twice.
func (e *Engine) pendingFeatures(state *models.WorkflowState) []string {
	var pending []string

	for _, criteria := range e.criteria {
		if !state.Progress.ComplexityLevel.AtLeast(criteria.Target) {
			continue
		}

		for _, feature := range criteria.Features {
			if !state.Progress.HasFeature(feature) {
				pending = append(pending, feature)
			}
		}
	}

	slices.Sort(pending)

	return pending
}

// upgradeOffer proposes the tier immediately above the current one once its
// criteria are satisfied. Higher tiers whose criteria happen to hold are
// never offered; skipping is not permitted.
func (e *Engine) upgradeOffer(state *models.WorkflowState) *UpgradeOffer {
	next, ok := state.Progress.ComplexityLevel.Next()
	if !ok {
		return nil
	}

	criteria, configured := e.criteria[next]
	if !configured {
		return nil
	}

	for _, required := range criteria.RequiredSteps {
		if !state.HasCompleted(required) {
			return nil
		}
	}

	if state.Progress.TimeSpent < criteria.MinTimeSpent() {
		return nil
	}

	return &UpgradeOffer{
		From:     state.Progress.ComplexityLevel,
		To:       next,
		Features: slices.Clone(criteria.Features),
	}
}

// pendingAchievements returns achievements whose rule is met and whose ID is
// not yet earned. UnlockedAt is left zero; the state machine stamps it at
// grant time.
func (e *Engine) pendingAchievements(state *models.WorkflowState) []models.Achievement {
	var pending []models.Achievement

	for _, rule := range e.rules {
		if state.Progress.HasAchievement(rule.ID) {
			continue
		}

		if !rule.Met(state, e.catalog) {
			continue
		}

		pending = append(pending, models.Achievement{
			ID:          rule.ID,
			Title:       rule.Title,
			Description: rule.Description,
			Category:    rule.Category,
			Icon:        rule.Icon,
		})
	}

	return pending
}

// recommendations suggests which available steps to take next: declared
// next steps of completed steps first, then explicit recommendations from
// step results, deduplicated in that order.
func (e *Engine) recommendations(state *models.WorkflowState) []string {
	seen := make(map[string]bool)

	var recommended []string

	appendIfAvailable := func(stepID string) {
		if stepID == "" || seen[stepID] || !state.IsAvailable(stepID) {
			return
		}

		seen[stepID] = true
		recommended = append(recommended, stepID)
	}

	for _, completedID := range state.CompletedSteps {
		if step, ok := e.catalog.Step(completedID); ok {
			for _, next := range step.NextSteps {
				appendIfAvailable(next)
			}
		}

		if result, ok := state.StepResults[completedID]; ok {
			appendIfAvailable(result.NextRecommendedStep)
		}
	}

	return recommended
}
