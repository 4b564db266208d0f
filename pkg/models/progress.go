package models

import "time"

// Achievement is granted once by the disclosure engine and never mutated or
// revoked afterwards.
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Icon        string    `json:"icon,omitempty"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

// ComplexityUnlockCriteria describes when the next tier may be offered and
// which features it grants. Static configuration, read-only at runtime.
type ComplexityUnlockCriteria struct {
	Target        ComplexityLevel `json:"target"         yaml:"target"         validate:"required,oneof=basic intermediate advanced expert"`
	RequiredSteps []string        `json:"required_steps" yaml:"required_steps"`
	MinMinutes    int             `json:"min_minutes"    yaml:"min_minutes"    validate:"min=0"`
	Features      []string        `json:"features"       yaml:"features"`
}

// MinTimeSpent returns the minimum cumulative session time as a duration.
func (c ComplexityUnlockCriteria) MinTimeSpent() time.Duration {
	return time.Duration(c.MinMinutes) * time.Minute
}

// UserProgress tracks cumulative progression through the workflow for one
// session. TimeSpent is monotonically non-decreasing.
type UserProgress struct {
	TotalSteps       int             `json:"total_steps"`
	CompletedSteps   int             `json:"completed_steps"`
	ComplexityLevel  ComplexityLevel `json:"complexity_level"`
	UnlockedFeatures []string        `json:"unlocked_features"`
	Achievements     []Achievement   `json:"achievements"`
	TimeSpent        time.Duration   `json:"time_spent"`

	// OfferedTier is the most recently offered upgrade target. It latches
	// the offer event to once per session, surviving resume.
	OfferedTier ComplexityLevel `json:"offered_tier,omitempty"`

	LastActiveStep string    `json:"last_active_step,omitempty"`
	LastActiveAt   time.Time `json:"last_active_at"`
}

// HasFeature reports whether the feature ID has already been unlocked.
func (p *UserProgress) HasFeature(id string) bool {
	for _, f := range p.UnlockedFeatures {
		if f == id {
			return true
		}
	}

	return false
}

// HasAchievement reports whether the achievement ID has already been earned.
func (p *UserProgress) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}

	return false
}
