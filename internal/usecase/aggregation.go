package usecase

import (
	"time"

	"github.com/mealsignal/backend/internal/domain"
)

// dayKeyLayout is the local calendar date used to bucket meals
const dayKeyLayout = "2006-01-02"

// DefaultWeekDays is the length of the rolling week
const DefaultWeekDays = 7

// RangeTotals sums the min/max of every macro over a set of meals
type RangeTotals struct {
	CaloriesMin float64 `json:"calories_min" yaml:"calories_min"`
	CaloriesMax float64 `json:"calories_max" yaml:"calories_max"`
	ProteinMin  float64 `json:"protein_g_min" yaml:"protein_g_min"`
	ProteinMax  float64 `json:"protein_g_max" yaml:"protein_g_max"`
	CarbsMin    float64 `json:"carbs_g_min" yaml:"carbs_g_min"`
	CarbsMax    float64 `json:"carbs_g_max" yaml:"carbs_g_max"`
	FatMin      float64 `json:"fat_g_min" yaml:"fat_g_min"`
	FatMax      float64 `json:"fat_g_max" yaml:"fat_g_max"`
}

// CaloriesMidpoint is the rounded middle of the calorie range, 0 when nothing was eaten
func (t RangeTotals) CaloriesMidpoint() float64 {
	return roundHalfUp((t.CaloriesMin + t.CaloriesMax) / 2)
}

func (t *RangeTotals) add(r domain.Ranges) {
	t.CaloriesMin += r.Calories.Min
	t.CaloriesMax += r.Calories.Max
	t.ProteinMin += r.Protein.Min
	t.ProteinMax += r.Protein.Max
	t.CarbsMin += r.Carbs.Min
	t.CarbsMax += r.Carbs.Max
	t.FatMin += r.Fat.Min
	t.FatMax += r.Fat.Max
}

// DayTotals is one calendar day of the rolling week
type DayTotals struct {
	DayKey string      `json:"date" yaml:"date"`
	Totals RangeTotals `json:"totals" yaml:"totals"`
}

// DayKey returns the local calendar date of t in loc
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(dayKeyLayout)
}

// SumDay totals every meal whose local calendar date equals dayKey
func SumDay(meals []domain.MealLogEntry, dayKey string, loc *time.Location) RangeTotals {
	var totals RangeTotals
	for _, m := range meals {
		if DayKey(m.Timestamp, loc) == dayKey {
			totals.add(m.Estimate.Ranges)
		}
	}
	return totals
}

// SumWeek returns totals for the trailing days calendar days ending on now's
// date, oldest first. Days without meals carry zero totals.
func SumWeek(meals []domain.MealLogEntry, now time.Time, days int) []DayTotals {
	if days <= 0 {
		return nil
	}
	loc := now.Location()
	byDay := make(map[string]*RangeTotals, days)
	for _, m := range meals {
		key := DayKey(m.Timestamp, loc)
		t, ok := byDay[key]
		if !ok {
			t = &RangeTotals{}
			byDay[key] = t
		}
		t.add(m.Estimate.Ranges)
	}

	week := make([]DayTotals, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := now.AddDate(0, 0, -i).Format(dayKeyLayout)
		day := DayTotals{DayKey: key}
		if t, ok := byDay[key]; ok {
			day.Totals = *t
		}
		week = append(week, day)
	}
	return week
}

// WeeklyAverages holds the rounded mean of range midpoints across the week
type WeeklyAverages struct {
	Calories float64 `json:"calories" yaml:"calories"`
	Protein  float64 `json:"protein" yaml:"protein"`
	Carbs    float64 `json:"carbs" yaml:"carbs"`
	Fat      float64 `json:"fat" yaml:"fat"`
}

// Averages pools every min and max of each macro and divides by twice the day count
func Averages(week []DayTotals) WeeklyAverages {
	if len(week) == 0 {
		return WeeklyAverages{}
	}
	var sum RangeTotals
	for _, d := range week {
		sum.CaloriesMin += d.Totals.CaloriesMin
		sum.CaloriesMax += d.Totals.CaloriesMax
		sum.ProteinMin += d.Totals.ProteinMin
		sum.ProteinMax += d.Totals.ProteinMax
		sum.CarbsMin += d.Totals.CarbsMin
		sum.CarbsMax += d.Totals.CarbsMax
		sum.FatMin += d.Totals.FatMin
		sum.FatMax += d.Totals.FatMax
	}
	n := float64(2 * len(week))
	return WeeklyAverages{
		Calories: roundHalfUp((sum.CaloriesMin + sum.CaloriesMax) / n),
		Protein:  roundHalfUp((sum.ProteinMin + sum.ProteinMax) / n),
		Carbs:    roundHalfUp((sum.CarbsMin + sum.CarbsMax) / n),
		Fat:      roundHalfUp((sum.FatMin + sum.FatMax) / n),
	}
}

// WeeklyAverage is the calorie weekly average
func WeeklyAverage(week []DayTotals) float64 {
	return Averages(week).Calories
}

// DistinctDays counts the local calendar days with at least one meal
func DistinctDays(meals []domain.MealLogEntry, loc *time.Location) int {
	days := make(map[string]struct{})
	for _, m := range meals {
		days[DayKey(m.Timestamp, loc)] = struct{}{}
	}
	return len(days)
}

// History is an immutable snapshot of a user's data taken at one instant
type History struct {
	Meals    []domain.MealLogEntry
	Workouts []domain.WorkoutSession
	Profile  *domain.UserProfile
	Now      time.Time
}

// snapshot holds the aggregates every marker needs
type snapshot struct {
	today    RangeTotals
	week     []DayTotals
	averages WeeklyAverages
	days     int
	meals    int
}

func summarize(h History) snapshot {
	loc := h.Now.Location()
	week := SumWeek(h.Meals, h.Now, DefaultWeekDays)
	return snapshot{
		today:    SumDay(h.Meals, DayKey(h.Now, loc), loc),
		week:     week,
		averages: Averages(week),
		days:     DistinctDays(h.Meals, loc),
		meals:    len(h.Meals),
	}
}
