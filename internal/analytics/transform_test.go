package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func points(avgs ...float64) []TrendPoint {
	out := make([]TrendPoint, len(avgs))
	for i, a := range avgs {
		out[i] = TrendPoint{AvgCalories: a}
	}
	return out
}

func TestWindowForInterval(t *testing.T) {
	assert.Equal(t, 7, WindowForInterval("daily"))
	assert.Equal(t, 4, WindowForInterval("weekly"))
	assert.Equal(t, 4, WindowForInterval("monthly"))
}

func TestMovingAverageFirstPositionIsOwnValue(t *testing.T) {
	out := MovingAverage(points(1830, 2410, 1990), 7)
	require.Len(t, out, 3)
	assert.Equal(t, 1830.0, out[0])
}

func TestMovingAverageTwoPoints(t *testing.T) {
	out := MovingAverage(points(2150, 2050), 7)
	assert.Equal(t, []float64{2150, 2100}, out)
}

func TestMovingAverageFullWindow(t *testing.T) {
	// Window 4: position 4 averages positions 1..4.
	out := MovingAverage(points(100, 200, 300, 400, 500), 4)
	assert.Equal(t, []float64{100, 150, 200, 250, 350}, out)
}

func TestMovingAverageEmpty(t *testing.T) {
	assert.Empty(t, MovingAverage(nil, 7))
}

func TestAnalyzeTrendInsufficientData(t *testing.T) {
	for _, series := range [][]TrendPoint{nil, points(2000)} {
		trend := AnalyzeTrend(series)
		assert.Equal(t, TrendInsufficient, trend.Direction)
		assert.Equal(t, 0.0, trend.Slope)
	}
}

func TestAnalyzeTrendSlope(t *testing.T) {
	// Two points: slope is exactly the difference.
	trend := AnalyzeTrend(points(2150, 2050))
	assert.Equal(t, -100.0, trend.Slope)
	assert.Equal(t, TrendDecreasing, trend.Direction)

	trend = AnalyzeTrend(points(2000, 2100, 2200))
	assert.Equal(t, 100.0, trend.Slope)
	assert.Equal(t, TrendIncreasing, trend.Direction)
}

func TestAnalyzeTrendStableWithinThreshold(t *testing.T) {
	trend := AnalyzeTrend(points(2000, 2003))
	assert.Equal(t, TrendStable, trend.Direction)

	// The threshold itself is still stable.
	trend = AnalyzeTrend(points(2000, 2005))
	assert.Equal(t, 5.0, trend.Slope)
	assert.Equal(t, TrendStable, trend.Direction)

	trend = AnalyzeTrend(points(2005, 2000))
	assert.Equal(t, TrendStable, trend.Direction)
}

func foodEntries() []FoodEntry {
	return []FoodEntry{
		{Date: "2024-01-01", MealType: "Breakfast", MealName: "Oatmeal"},
		{Date: "2024-01-01", MealType: "Snacks", MealName: "  oatmeal "},
		{Date: "2024-01-02", MealType: "Breakfast", MealName: "OATMEAL"},
		{Date: "2024-01-02", MealType: "Lunch", MealName: "Chicken Salad"},
	}
}

func TestGroupFoodsNormalizesNames(t *testing.T) {
	entries := foodEntries()
	entries[0].Calories = 300
	entries[1].Calories = 200
	entries[2].Calories = 400
	entries[3].Calories = 550

	foods := GroupFoods(entries)
	require.Len(t, foods, 2)

	// Sorted by name: chicken salad, oatmeal.
	assert.Equal(t, "chicken salad", foods[0].Name)
	oatmeal := foods[1]
	assert.Equal(t, "oatmeal", oatmeal.Name)
	assert.Equal(t, 3, oatmeal.Frequency)
	assert.Equal(t, 900, oatmeal.TotalCalories)
	assert.Equal(t, 300.0, oatmeal.AvgCalories)
	assert.Equal(t, 200, oatmeal.MinCalories)
	assert.Equal(t, 400, oatmeal.MaxCalories)
	assert.Equal(t, 2, oatmeal.DaysConsumed)
	assert.Equal(t, []string{"Breakfast", "Snacks"}, oatmeal.MealTypes)
}

func TestGroupFoodsSkipsBlankNames(t *testing.T) {
	foods := GroupFoods([]FoodEntry{{Date: "2024-01-01", MealName: "   ", Calories: 100}})
	assert.Empty(t, foods)
}

func TestRankFoodsEfficiencyRequiresThreeServings(t *testing.T) {
	stats := []FoodStat{
		{Name: "burger", Frequency: 2, TotalCalories: 1600, MaxCalories: 800},
		{Name: "oatmeal", Frequency: 5, TotalCalories: 1500, MaxCalories: 350},
		{Name: "pizza", Frequency: 3, TotalCalories: 2400, MaxCalories: 900},
	}

	rankings := RankFoods(stats, 10)

	assert.Equal(t, "oatmeal", rankings.MostFrequent[0].Name)
	assert.Equal(t, "pizza", rankings.HighestSingle[0].Name)
	assert.Equal(t, "pizza", rankings.HighestTotal[0].Name)

	require.Len(t, rankings.MostEfficient, 2)
	assert.Equal(t, "pizza", rankings.MostEfficient[0].Name)
	for _, f := range rankings.MostEfficient {
		assert.GreaterOrEqual(t, f.Frequency, 3)
	}
}

func TestRankFoodsLimit(t *testing.T) {
	stats := []FoodStat{
		{Name: "a", Frequency: 1}, {Name: "b", Frequency: 2}, {Name: "c", Frequency: 3},
	}
	rankings := RankFoods(stats, 2)
	require.Len(t, rankings.MostFrequent, 2)
	assert.Equal(t, "c", rankings.MostFrequent[0].Name)
	assert.Equal(t, "b", rankings.MostFrequent[1].Name)
}

func TestDiversityRatio(t *testing.T) {
	assert.Equal(t, 0.0, DiversityRatio(0, 0))
	assert.Equal(t, 100.0, DiversityRatio(5, 5))
	assert.Equal(t, 33.33, DiversityRatio(1, 3))

	ratio := DiversityRatio(7, 42)
	assert.GreaterOrEqual(t, ratio, 0.0)
	assert.LessOrEqual(t, ratio, 100.0)
}

func TestDiversityRatioOrderIndependent(t *testing.T) {
	entries := foodEntries()
	forward := GroupFoods(entries)

	reversed := make([]FoodEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		reversed = append(reversed, entries[i])
	}
	backward := GroupFoods(reversed)

	assert.Equal(t,
		DiversityRatio(len(forward), len(entries)),
		DiversityRatio(len(backward), len(reversed)))
}

func TestCalorieBucketBoundaries(t *testing.T) {
	cases := map[int]string{
		0:    "under_1500",
		1499: "under_1500",
		1500: "1500_1999",
		1999: "1500_1999",
		2000: "2000_2499",
		2499: "2000_2499",
		2500: "2500_2999",
		2999: "2500_2999",
		3000: "3000_plus",
		9000: "3000_plus",
	}
	for total, want := range cases {
		assert.Equal(t, want, CalorieBucket(total), "total %d", total)
	}
}
