// Package models defines the core domain models for the guided site-analysis workflow.
package models

import "time"

// StepCategory groups analysis steps for navigation and achievement rules.
type StepCategory string

const (
	CategoryTerrain      StepCategory = "terrain"
	CategoryWindResource StepCategory = "wind_resource"
	CategorySimulation   StepCategory = "simulation"
	CategoryOptimization StepCategory = "optimization"
	CategoryReporting    StepCategory = "reporting"
)

// ComplexityLevel is one of four ordered tiers gating which features and
// steps are surfaced to the user.
type ComplexityLevel string

const (
	ComplexityBasic        ComplexityLevel = "basic"
	ComplexityIntermediate ComplexityLevel = "intermediate"
	ComplexityAdvanced     ComplexityLevel = "advanced"
	ComplexityExpert       ComplexityLevel = "expert"
)

var complexityRank = map[ComplexityLevel]int{
	ComplexityBasic:        0,
	ComplexityIntermediate: 1,
	ComplexityAdvanced:     2,
	ComplexityExpert:       3,
}

// Valid reports whether the level is one of the four known tiers.
func (c ComplexityLevel) Valid() bool {
	_, ok := complexityRank[c]

	return ok
}

// Rank returns the position of the level in the tier order, basic being 0.
// Unknown levels rank below basic.
func (c ComplexityLevel) Rank() int {
	rank, ok := complexityRank[c]
	if !ok {
		return -1
	}

	return rank
}

// Next returns the tier immediately above the current one. The second return
// value is false when the level is already the highest tier.
func (c ComplexityLevel) Next() (ComplexityLevel, bool) {
	switch c {
	case ComplexityBasic:
		return ComplexityIntermediate, true
	case ComplexityIntermediate:
		return ComplexityAdvanced, true
	case ComplexityAdvanced:
		return ComplexityExpert, true
	default:
		return c, false
	}
}

// AtLeast reports whether the level is equal to or above the given tier.
func (c ComplexityLevel) AtLeast(other ComplexityLevel) bool {
	return c.Rank() >= other.Rank()
}

// StepDefinition is the immutable description of one analysis step in the
// catalog. Prerequisites reference other step IDs and must be acyclic.
type StepDefinition struct {
	ID               string          `json:"id"                yaml:"id"                validate:"required"`
	Title            string          `json:"title"             yaml:"title"             validate:"required,min=3"`
	Category         StepCategory    `json:"category"          yaml:"category"          validate:"required"`
	Prerequisites    []string        `json:"prerequisites"     yaml:"prerequisites"`
	Complexity       ComplexityLevel `json:"complexity"        yaml:"complexity"        validate:"required,oneof=basic intermediate advanced expert"`
	Optional         bool            `json:"optional"          yaml:"optional"`
	NextSteps        []string        `json:"next_steps"        yaml:"next_steps"`
	EstimatedMinutes int             `json:"estimated_minutes" yaml:"estimated_minutes" validate:"min=0"`
	Description      string          `json:"description,omitempty" yaml:"description,omitempty"`
}

// EstimatedDuration returns the estimated effort as a duration.
func (s *StepDefinition) EstimatedDuration() time.Duration {
	return time.Duration(s.EstimatedMinutes) * time.Minute
}
