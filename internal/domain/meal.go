package domain

import (
	"strings"
	"time"
)

// MealLogEntry is one captured meal and its current estimate
type MealLogEntry struct {
	ID                  string            `json:"id" yaml:"id"`
	UserID              string            `json:"-" yaml:"-"`
	Timestamp           time.Time         `json:"timestamp" yaml:"timestamp"`
	Estimate            NutritionEstimate `json:"analysis" yaml:"analysis"`
	UserCorrectionLabel string            `json:"user_correction,omitempty" yaml:"user_correction,omitempty"`
	Thumbnail           string            `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Degraded            bool              `json:"degraded,omitempty" yaml:"-"`
}

// AppendCorrection adds a user clarification to the correction label
func (m *MealLogEntry) AppendCorrection(label string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	if m.UserCorrectionLabel == "" {
		m.UserCorrectionLabel = label
		return
	}
	m.UserCorrectionLabel = m.UserCorrectionLabel + "; " + label
}

// Intensity is the self-reported effort of a workout
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// Score is the training-load weight of the intensity
func (i Intensity) Score() int {
	switch i {
	case IntensityHigh:
		return 2
	case IntensityMedium:
		return 1
	}
	return 0
}

// WorkoutSession is a workout, active while EndTs is nil
type WorkoutSession struct {
	ID           string     `json:"id" yaml:"id"`
	UserID       string     `json:"-" yaml:"-"`
	StartTs      time.Time  `json:"start_ts" yaml:"start_ts"`
	EndTs        *time.Time `json:"end_ts,omitempty" yaml:"end_ts,omitempty"`
	DurationMin  *int       `json:"duration_min,omitempty" yaml:"duration_min,omitempty"`
	WorkoutTypes []string   `json:"workout_types,omitempty" yaml:"workout_types,omitempty"`
	Intensity    Intensity  `json:"intensity,omitempty" yaml:"intensity,omitempty"`
}

// Active reports whether the session has not been ended
func (w WorkoutSession) Active() bool {
	return w.EndTs == nil
}

// ReferenceTime is the end time when present, otherwise the start time
func (w WorkoutSession) ReferenceTime() time.Time {
	if w.EndTs != nil {
		return *w.EndTs
	}
	return w.StartTs
}

// GoalDirection is the user's body-weight goal
type GoalDirection string

const (
	GoalGain     GoalDirection = "gain"
	GoalMaintain GoalDirection = "maintain"
	GoalBalance  GoalDirection = "balance"
	GoalLose     GoalDirection = "lose"
)

// Units is the measurement system the profile is entered in
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// UserProfile is read-only input to the target and nudge engines
type UserProfile struct {
	UserID        string        `json:"-" yaml:"-"`
	FirstName     string        `json:"first_name,omitempty" yaml:"first_name,omitempty" validate:"max=80"`
	LastName      string        `json:"last_name,omitempty" yaml:"last_name,omitempty" validate:"max=80"`
	Weight        float64       `json:"weight" yaml:"weight" validate:"gte=0,lte=1500"`
	Height        float64       `json:"height" yaml:"height" validate:"gte=0,lte=300"`
	Age           int           `json:"age" yaml:"age" validate:"gte=0,lte=130"`
	Sex           string        `json:"sex" yaml:"sex" validate:"omitempty,oneof=female male other prefer_not"`
	GoalDirection GoalDirection `json:"goal_direction" yaml:"goal_direction" validate:"omitempty,oneof=gain maintain balance lose"`
	BodyPriority  string        `json:"body_priority,omitempty" yaml:"body_priority,omitempty" validate:"max=200"`
	FreeformFocus string        `json:"freeform_focus,omitempty" yaml:"freeform_focus,omitempty" validate:"max=500"`
	Units         Units         `json:"units" yaml:"units" validate:"omitempty,oneof=metric imperial"`
}

// WeightKg returns the body weight in kilograms
func (p UserProfile) WeightKg() float64 {
	if p.Units == UnitsImperial {
		return p.Weight * 0.453592
	}
	return p.Weight
}

// Focus is the lowercased free-text focus, falling back to the body priority
func (p UserProfile) Focus() string {
	focus := p.FreeformFocus
	if focus == "" {
		focus = p.BodyPriority
	}
	return strings.ToLower(focus)
}

// Nudge is a short prioritized behavioral message
type Nudge struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty"`
	UserID    string    `json:"-" yaml:"-"`
	Type      string    `json:"type,omitempty" yaml:"type,omitempty"`
	Message   string    `json:"message" yaml:"message"`
	Priority  int       `json:"priority" yaml:"priority"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Feedback is a message a user sends to the team
type Feedback struct {
	Message string `json:"message" binding:"required,max=4000"`
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email,omitempty" binding:"omitempty,email"`
	Name    string `json:"name,omitempty" binding:"max=120"`
}

// UserExport is everything stored for one user
type UserExport struct {
	UserID     string           `json:"user_id" yaml:"user_id"`
	ExportedAt time.Time        `json:"exported_at" yaml:"exported_at"`
	Profile    *UserProfile     `json:"profile,omitempty" yaml:"profile,omitempty"`
	Meals      []MealLogEntry   `json:"meals" yaml:"meals"`
	Workouts   []WorkoutSession `json:"workouts" yaml:"workouts"`
	Nudges     []Nudge          `json:"nudges" yaml:"nudges"`
}
