// Package analytics holds the pure transforms applied to already-fetched
// aggregation rows: moving averages, trend fitting, food ranking and
// categorical bucketing.
package analytics

import (
	"math"
	"sort"
	"strings"
)

// TrendPoint is one aggregated period of a trends series, ordered most
// recent first.
type TrendPoint struct {
	Period        string  `db:"period" json:"period"`
	AvgCalories   float64 `db:"avg_calories" json:"avg_calories"`
	TotalCalories int     `db:"total_calories" json:"total_calories"`
	MinCalories   int     `db:"min_calories" json:"min_calories"`
	MaxCalories   int     `db:"max_calories" json:"max_calories"`
	Days          int     `db:"days" json:"days"`
}

// WindowForInterval is the moving-average window width: 7 periods for daily
// series, 4 for weekly and monthly.
func WindowForInterval(interval string) int {
	if interval == "daily" {
		return 7
	}
	return 4
}

// MovingAverage computes, at each position i, the mean of the up-to-window
// points ending at i. The first position is always its own average (window
// of one); the window grows until it reaches full width.
func MovingAverage(points []TrendPoint, window int) []float64 {
	out := make([]float64, len(points))
	for i := range points {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		var sum float64
		for _, p := range points[start : i+1] {
			sum += p.AvgCalories
		}
		out[i] = Round2(sum / float64(i+1-start))
	}
	return out
}

type Trend struct {
	Slope     float64 `json:"slope"`
	Direction string  `json:"direction"`
}

const (
	TrendIncreasing   = "increasing"
	TrendDecreasing   = "decreasing"
	TrendStable       = "stable"
	TrendInsufficient = "insufficient_data"
)

// slopeThreshold separates a real calorie trend from noise, in avg calories
// per period.
const slopeThreshold = 5.0

// AnalyzeTrend fits an ordinary least-squares line through avg_calories
// against period index 0..n-1 and buckets the slope. Fewer than two periods
// cannot carry a trend.
func AnalyzeTrend(points []TrendPoint) Trend {
	n := len(points)
	if n < 2 {
		return Trend{Slope: 0, Direction: TrendInsufficient}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, p := range points {
		x := float64(i)
		sumX += x
		sumY += p.AvgCalories
		sumXY += x * p.AvgCalories
		sumXX += x * x
	}
	nf := float64(n)
	slope := (nf*sumXY - sumX*sumY) / (nf*sumXX - sumX*sumX)

	direction := TrendStable
	switch {
	case slope > slopeThreshold:
		direction = TrendIncreasing
	case slope < -slopeThreshold:
		direction = TrendDecreasing
	}
	return Trend{Slope: Round2(slope), Direction: direction}
}

// FoodEntry is the raw row shape consumed by the food grouping.
type FoodEntry struct {
	Date     string `db:"entry_date"`
	MealType string `db:"meal_type"`
	MealName string `db:"meal_name"`
	Calories int    `db:"calories"`
}

type FoodStat struct {
	Name          string   `json:"name"`
	Frequency     int      `json:"frequency"`
	AvgCalories   float64  `json:"avg_calories"`
	MinCalories   int      `json:"min_calories"`
	MaxCalories   int      `json:"max_calories"`
	TotalCalories int      `json:"total_calories"`
	DaysConsumed  int      `json:"days_consumed"`
	MealTypes     []string `json:"meal_types"`
}

// GroupFoods buckets entries by normalized meal name (trimmed, lower-cased)
// and accumulates the per-food statistics every ranking is derived from.
// Output is sorted by name so results are deterministic.
func GroupFoods(entries []FoodEntry) []FoodStat {
	type acc struct {
		frequency int
		total     int
		min       int
		max       int
		days      map[string]struct{}
		mealTypes map[string]struct{}
	}
	byName := map[string]*acc{}
	for _, e := range entries {
		name := strings.ToLower(strings.TrimSpace(e.MealName))
		if name == "" {
			continue
		}
		a, ok := byName[name]
		if !ok {
			a = &acc{min: e.Calories, max: e.Calories, days: map[string]struct{}{}, mealTypes: map[string]struct{}{}}
			byName[name] = a
		}
		a.frequency++
		a.total += e.Calories
		if e.Calories < a.min {
			a.min = e.Calories
		}
		if e.Calories > a.max {
			a.max = e.Calories
		}
		a.days[e.Date] = struct{}{}
		a.mealTypes[e.MealType] = struct{}{}
	}

	stats := make([]FoodStat, 0, len(byName))
	for name, a := range byName {
		mealTypes := make([]string, 0, len(a.mealTypes))
		for mt := range a.mealTypes {
			mealTypes = append(mealTypes, mt)
		}
		sort.Strings(mealTypes)
		stats = append(stats, FoodStat{
			Name:          name,
			Frequency:     a.frequency,
			AvgCalories:   Round2(float64(a.total) / float64(a.frequency)),
			MinCalories:   a.min,
			MaxCalories:   a.max,
			TotalCalories: a.total,
			DaysConsumed:  len(a.days),
			MealTypes:     mealTypes,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// FoodRankings are independent orderings over the same grouped data.
type FoodRankings struct {
	MostFrequent  []FoodStat `json:"most_frequent"`
	HighestSingle []FoodStat `json:"highest_single"`
	HighestTotal  []FoodStat `json:"highest_total"`
	MostEfficient []FoodStat `json:"most_efficient"`
}

// minEfficiencyFrequency keeps one-off meals out of the efficiency ranking.
const minEfficiencyFrequency = 3

// RankFoods derives the four rankings, each truncated to limit. Efficiency
// is total calories per serving and only foods eaten at least three times
// qualify.
func RankFoods(stats []FoodStat, limit int) FoodRankings {
	return FoodRankings{
		MostFrequent: topN(stats, limit, func(a, b FoodStat) bool {
			return a.Frequency > b.Frequency
		}),
		HighestSingle: topN(stats, limit, func(a, b FoodStat) bool {
			return a.MaxCalories > b.MaxCalories
		}),
		HighestTotal: topN(stats, limit, func(a, b FoodStat) bool {
			return a.TotalCalories > b.TotalCalories
		}),
		MostEfficient: topN(filterFoods(stats, func(s FoodStat) bool {
			return s.Frequency >= minEfficiencyFrequency
		}), limit, func(a, b FoodStat) bool {
			return float64(a.TotalCalories)/float64(a.Frequency) > float64(b.TotalCalories)/float64(b.Frequency)
		}),
	}
}

func topN(stats []FoodStat, n int, less func(a, b FoodStat) bool) []FoodStat {
	out := make([]FoodStat, len(stats))
	copy(out, stats)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func filterFoods(stats []FoodStat, keep func(FoodStat) bool) []FoodStat {
	out := []FoodStat{}
	for _, s := range stats {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// DiversityRatio is distinct foods over total entries as a percentage,
// rounded to two decimals.
func DiversityRatio(distinctFoods, totalEntries int) float64 {
	if totalEntries == 0 {
		return 0
	}
	return Round2(float64(distinctFoods) / float64(totalEntries) * 100)
}

// CalorieBucket labels a daily total for the range histogram.
func CalorieBucket(total int) string {
	switch {
	case total < 1500:
		return "under_1500"
	case total < 2000:
		return "1500_1999"
	case total < 2500:
		return "2000_2499"
	case total < 3000:
		return "2500_2999"
	default:
		return "3000_plus"
	}
}

// CalorieBuckets is the fixed bucket order for reporting.
var CalorieBuckets = []string{"under_1500", "1500_1999", "2000_2499", "2500_2999", "3000_plus"}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
