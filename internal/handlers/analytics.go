package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"caltrack/internal/analytics"
)

type AnalyticsHandler struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewAnalyticsHandler(db *sqlx.DB, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{db: db, log: log}
}

const defaultFoodLimit = 20

// Excluded days are dropped from every trends/patterns aggregate at the
// daily_stats level.
const trendsDailyQuery = `
	SELECT entry_date::text AS period,
	       total_calories::float8 AS avg_calories,
	       total_calories AS total_calories,
	       total_calories AS min_calories,
	       total_calories AS max_calories,
	       1 AS days
	FROM daily_stats
	WHERE is_excluded = false AND entry_date::text >= $1 AND entry_date::text <= $2
	ORDER BY entry_date DESC`

const trendsWeeklyQuery = `
	SELECT to_char(date_trunc('week', entry_date), 'YYYY-MM-DD') AS period,
	       ROUND(AVG(total_calories)::numeric, 2)::float8 AS avg_calories,
	       SUM(total_calories)::int AS total_calories,
	       MIN(total_calories) AS min_calories,
	       MAX(total_calories) AS max_calories,
	       COUNT(*)::int AS days
	FROM daily_stats
	WHERE is_excluded = false AND entry_date::text >= $1 AND entry_date::text <= $2
	GROUP BY date_trunc('week', entry_date)
	ORDER BY date_trunc('week', entry_date) DESC`

const trendsMonthlyQuery = `
	SELECT to_char(date_trunc('month', entry_date), 'YYYY-MM') AS period,
	       ROUND(AVG(total_calories)::numeric, 2)::float8 AS avg_calories,
	       SUM(total_calories)::int AS total_calories,
	       MIN(total_calories) AS min_calories,
	       MAX(total_calories) AS max_calories,
	       COUNT(*)::int AS days
	FROM daily_stats
	WHERE is_excluded = false AND entry_date::text >= $1 AND entry_date::text <= $2
	GROUP BY date_trunc('month', entry_date)
	ORDER BY date_trunc('month', entry_date) DESC`

// Trends returns the per-period series most recent first, its moving
// average and the fitted trend.
func (h *AnalyticsHandler) Trends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := dateRange(q, defaultAnalyticsMonths)

	interval := q.Get("interval")
	query := trendsDailyQuery
	switch interval {
	case "weekly":
		query = trendsWeeklyQuery
	case "monthly":
		query = trendsMonthlyQuery
	default:
		interval = "daily"
	}

	points := []analytics.TrendPoint{}
	if err := h.db.SelectContext(r.Context(), &points, query, start, end); err != nil {
		h.log.Error("trends query failed", zap.String("interval", interval), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to analyze trends")
		return
	}

	movingAvg := analytics.MovingAverage(points, analytics.WindowForInterval(interval))
	trend := analytics.AnalyzeTrend(points)

	meta := map[string]any{
		"start_date": start,
		"end_date":   end,
		"interval":   interval,
		"format":     formatOf(r),
	}

	if wantsCSV(r) {
		rows := make([]string, 0, len(points))
		for i, p := range points {
			rows = append(rows, csvTrendRow(p, movingAvg[i]))
		}
		writeCSV(w, "caltrack-trends.csv",
			"period,avg_calories,total_calories,min_calories,max_calories,days,moving_average", rows)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trends": map[string]any{
			"series":         points,
			"moving_average": movingAvg,
			"trend_analysis": trend,
		},
		"meta": meta,
	})
}

func csvTrendRow(p analytics.TrendPoint, movingAvg float64) string {
	return fmt.Sprintf("%s,%s,%d,%d,%d,%d,%s",
		p.Period, formatFloat(p.AvgCalories), p.TotalCalories, p.MinCalories, p.MaxCalories, p.Days,
		formatFloat(movingAvg))
}

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

type dayOfWeekRow struct {
	Dow            int     `db:"dow" json:"-"`
	DayOfWeek      string  `json:"day_of_week"`
	AvgCalories    float64 `db:"avg_calories" json:"avg_calories"`
	MinCalories    int     `db:"min_calories" json:"min_calories"`
	MaxCalories    int     `db:"max_calories" json:"max_calories"`
	StddevCalories float64 `db:"stddev_calories" json:"stddev_calories"`
	Days           int     `db:"days" json:"days"`
}

type mealTypeRow struct {
	MealType      string  `db:"meal_type" json:"meal_type"`
	TotalCalories int     `db:"total_calories" json:"total_calories"`
	Entries       int     `db:"entries" json:"entries"`
	AvgCalories   float64 `db:"avg_calories" json:"avg_calories"`
}

type calorieRange struct {
	Bucket string `json:"bucket"`
	Days   int    `json:"days"`
}

// Patterns reports day-of-week statistics, the meal-type calorie split and a
// histogram of daily totals. The three reads run as an ordered sequence; any
// failure fails the whole response.
func (h *AnalyticsHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	start, end := dateRange(r.URL.Query(), defaultAnalyticsMonths)

	days := []dayOfWeekRow{}
	err := h.db.SelectContext(r.Context(), &days, `
		SELECT EXTRACT(DOW FROM entry_date)::int AS dow,
		       ROUND(AVG(total_calories)::numeric, 2)::float8 AS avg_calories,
		       MIN(total_calories) AS min_calories,
		       MAX(total_calories) AS max_calories,
		       COALESCE(ROUND(STDDEV_POP(total_calories)::numeric, 2), 0)::float8 AS stddev_calories,
		       COUNT(*)::int AS days
		FROM daily_stats
		WHERE is_excluded = false AND entry_date::text >= $1 AND entry_date::text <= $2
		GROUP BY EXTRACT(DOW FROM entry_date)
		ORDER BY EXTRACT(DOW FROM entry_date)`, start, end)
	if err != nil {
		h.log.Error("day-of-week query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to analyze patterns")
		return
	}
	for i := range days {
		days[i].DayOfWeek = dayNames[days[i].Dow%7]
	}

	mealTypes := []mealTypeRow{}
	err = h.db.SelectContext(r.Context(), &mealTypes, `
		SELECT meal_type,
		       SUM(calories)::int AS total_calories,
		       COUNT(*)::int AS entries,
		       ROUND(AVG(calories)::numeric, 2)::float8 AS avg_calories
		FROM calorie_entries
		WHERE entry_date::text >= $1 AND entry_date::text <= $2
		GROUP BY meal_type
		ORDER BY total_calories DESC`, start, end)
	if err != nil {
		h.log.Error("meal type query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to analyze patterns")
		return
	}

	totals := []int{}
	err = h.db.SelectContext(r.Context(), &totals, `
		SELECT total_calories
		FROM daily_stats
		WHERE is_excluded = false AND entry_date::text >= $1 AND entry_date::text <= $2`, start, end)
	if err != nil {
		h.log.Error("daily totals query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to analyze patterns")
		return
	}
	histogram := map[string]int{}
	for _, t := range totals {
		histogram[analytics.CalorieBucket(t)]++
	}
	ranges := make([]calorieRange, 0, len(analytics.CalorieBuckets))
	for _, b := range analytics.CalorieBuckets {
		ranges = append(ranges, calorieRange{Bucket: b, Days: histogram[b]})
	}

	if wantsCSV(r) {
		rows := make([]string, 0, len(days))
		for _, d := range days {
			rows = append(rows, fmt.Sprintf("%s,%s,%d,%d,%s,%d",
				d.DayOfWeek, formatFloat(d.AvgCalories), d.MinCalories, d.MaxCalories,
				formatFloat(d.StddevCalories), d.Days))
		}
		writeCSV(w, "caltrack-patterns.csv",
			"day_of_week,avg_calories,min_calories,max_calories,stddev_calories,days", rows)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"patterns": map[string]any{
			"day_of_week":    days,
			"meal_types":     mealTypes,
			"calorie_ranges": ranges,
		},
		"meta": map[string]any{
			"start_date": start,
			"end_date":   end,
			"format":     formatOf(r),
		},
	})
}

// Foods groups entries by normalized meal name and derives the independent
// rankings plus the diversity ratio.
func (h *AnalyticsHandler) Foods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := dateRange(q, defaultAnalyticsMonths)
	mealType := q.Get("meal_type")

	// A non-numeric limit falls back to the default; the applied value is
	// echoed in meta.
	limit := defaultFoodLimit
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	query := `
		SELECT entry_date::text AS entry_date, meal_type, meal_name, calories
		FROM calorie_entries
		WHERE entry_date::text >= $1 AND entry_date::text <= $2`
	args := []interface{}{start, end}
	if mealType != "" {
		args = append(args, mealType)
		query += fmt.Sprintf(" AND meal_type = $%d", len(args))
	}

	entries := []analytics.FoodEntry{}
	if err := h.db.SelectContext(r.Context(), &entries, query, args...); err != nil {
		h.log.Error("food entries query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to analyze foods")
		return
	}

	foods := analytics.GroupFoods(entries)
	rankings := analytics.RankFoods(foods, limit)
	diversity := analytics.DiversityRatio(len(foods), len(entries))

	if wantsCSV(r) {
		rows := make([]string, 0, len(foods))
		for _, f := range foods {
			rows = append(rows, csvFoodRow(f))
		}
		writeCSV(w, "caltrack-foods.csv",
			"name,frequency,avg_calories,min_calories,max_calories,total_calories,days_consumed,meal_types", rows)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"food_analytics": map[string]any{
			"foods":           foods,
			"rankings":        rankings,
			"diversity_ratio": diversity,
			"total_entries":   len(entries),
			"distinct_foods":  len(foods),
		},
		"meta": map[string]any{
			"start_date": start,
			"end_date":   end,
			"meal_type":  mealType,
			"limit":      limit,
			"format":     formatOf(r),
		},
	})
}

func csvFoodRow(f analytics.FoodStat) string {
	return fmt.Sprintf("%s,%d,%s,%d,%d,%d,%d,%s",
		quoteField(f.Name), f.Frequency, formatFloat(f.AvgCalories),
		f.MinCalories, f.MaxCalories, f.TotalCalories, f.DaysConsumed,
		quoteField(strings.Join(f.MealTypes, ";")))
}

// formatFloat renders numbers without a trailing .00 noise for whole values.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
