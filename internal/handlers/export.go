package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"caltrack/internal/models"
)

type ExportHandler struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewExportHandler(db *sqlx.DB, log *zap.Logger) *ExportHandler {
	return &ExportHandler{db: db, log: log}
}

type entryDTO struct {
	ID        int    `json:"id"`
	Date      string `json:"date"`
	MealType  string `json:"meal_type"`
	MealName  string `json:"meal_name"`
	Calories  int    `json:"calories"`
	CreatedAt string `json:"created_at"`
}

func toEntryDTO(e models.CalorieEntry) entryDTO {
	return entryDTO{
		ID:        e.ID,
		Date:      e.EntryDate.Format(dateLayout),
		MealType:  e.MealType,
		MealName:  e.MealName,
		Calories:  e.Calories,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func csvEntryRow(e entryDTO) string {
	return fmt.Sprintf("%s,%s,%s,%d,%s",
		e.Date, e.MealType, quoteField(e.MealName), e.Calories, e.CreatedAt)
}

// Entries exports raw calorie entries over the range, newest first.
func (h *ExportHandler) Entries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := dateRange(q, defaultExportMonths)
	mealType := q.Get("meal_type")

	query := `
		SELECT id, entry_date, meal_type, meal_name, calories, created_at
		FROM calorie_entries
		WHERE entry_date::text >= $1 AND entry_date::text <= $2`
	args := []interface{}{start, end}
	if mealType != "" {
		args = append(args, mealType)
		query += fmt.Sprintf(" AND meal_type = $%d", len(args))
	}
	query += " ORDER BY entry_date DESC, id"

	entries := []models.CalorieEntry{}
	if err := h.db.SelectContext(r.Context(), &entries, query, args...); err != nil {
		h.log.Error("entries export query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to export data")
		return
	}

	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryDTO(e))
	}

	if wantsCSV(r) {
		rows := make([]string, 0, len(out))
		for _, e := range out {
			rows = append(rows, csvEntryRow(e))
		}
		writeCSV(w, "caltrack-entries.csv", "date,meal_type,meal_name,calories,created_at", rows)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": out,
		"meta": map[string]any{
			"start_date": start,
			"end_date":   end,
			"meal_type":  mealType,
			"format":     formatOf(r),
			"count":      len(out),
		},
	})
}

// DailyStats exports the cached daily rollups over the range.
func (h *ExportHandler) DailyStats(w http.ResponseWriter, r *http.Request) {
	start, end := dateRange(r.URL.Query(), defaultExportMonths)

	stats := []models.DailyStat{}
	err := h.db.SelectContext(r.Context(), &stats,
		`SELECT `+dailyStatColumns+`
		 FROM daily_stats
		 WHERE entry_date::text >= $1 AND entry_date::text <= $2
		 ORDER BY entry_date DESC`, start, end)
	if err != nil {
		h.log.Error("daily stats export query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to export data")
		return
	}

	out := make([]dailyStatDTO, 0, len(stats))
	for _, s := range stats {
		out = append(out, toDailyStatDTO(s))
	}

	if wantsCSV(r) {
		rows := make([]string, 0, len(out))
		for _, s := range out {
			rows = append(rows, fmt.Sprintf("%s,%d,%d,%d,%d,%d,%t,%s",
				s.Date, s.TotalCalories, s.BreakfastCalories, s.LunchCalories,
				s.DinnerCalories, s.SnacksCalories, s.IsExcluded, s.UpdatedAt))
		}
		writeCSV(w, "caltrack-daily-stats.csv",
			"date,total_calories,breakfast_calories,lunch_calories,dinner_calories,snacks_calories,is_excluded,updated_at", rows)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"daily_stats": out,
		"meta": map[string]any{
			"start_date": start,
			"end_date":   end,
			"format":     formatOf(r),
			"count":      len(out),
		},
	})
}

type summaryTotals struct {
	TotalEntries int     `db:"total_entries"`
	DaysTracked  int     `db:"days_tracked"`
	FirstDate    *string `db:"first_date"`
	LastDate     *string `db:"last_date"`
}

type summaryDaily struct {
	AvgDailyCalories float64 `db:"avg_daily_calories"`
	MaxDailyCalories int     `db:"max_daily_calories"`
	MinDailyCalories int     `db:"min_daily_calories"`
}

type topFood struct {
	MealName  string `db:"meal_name" json:"meal_name"`
	Frequency int    `db:"frequency" json:"frequency"`
}

// Summary is the composite export: overall counts, daily averages over
// non-excluded days, the per-meal-type split and the most frequent foods.
// The reads run as a fixed ordered sequence; no partial results.
func (h *ExportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	start, end := dateRange(r.URL.Query(), defaultExportMonths)

	var totals summaryTotals
	err := h.db.GetContext(r.Context(), &totals, `
		SELECT COUNT(*)::int AS total_entries,
		       COUNT(DISTINCT entry_date)::int AS days_tracked,
		       MIN(entry_date)::text AS first_date,
		       MAX(entry_date)::text AS last_date
		FROM calorie_entries
		WHERE entry_date::text >= $1 AND entry_date::text <= $2`, start, end)
	if err != nil {
		h.log.Error("summary totals query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to export summary")
		return
	}

	var daily summaryDaily
	err = h.db.GetContext(r.Context(), &daily, `
		SELECT COALESCE(ROUND(AVG(total_calories)::numeric, 2), 0)::float8 AS avg_daily_calories,
		       COALESCE(MAX(total_calories), 0) AS max_daily_calories,
		       COALESCE(MIN(total_calories), 0) AS min_daily_calories
		FROM daily_stats
		WHERE is_excluded = false AND entry_date::text >= $1 AND entry_date::text <= $2`, start, end)
	if err != nil {
		h.log.Error("summary daily query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to export summary")
		return
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
		h.log.Error("summary meal type query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to export summary")
		return
	}

	topFoods := []topFood{}
	err = h.db.SelectContext(r.Context(), &topFoods, `
		SELECT LOWER(TRIM(meal_name)) AS meal_name, COUNT(*)::int AS frequency
		FROM calorie_entries
		WHERE entry_date::text >= $1 AND entry_date::text <= $2
		GROUP BY LOWER(TRIM(meal_name))
		ORDER BY frequency DESC, meal_name
		LIMIT 5`, start, end)
	if err != nil {
		h.log.Error("summary top foods query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to export summary")
		return
	}

	firstDate := ""
	if totals.FirstDate != nil {
		firstDate = *totals.FirstDate
	}
	lastDate := ""
	if totals.LastDate != nil {
		lastDate = *totals.LastDate
	}

	if wantsCSV(r) {
		rows := []string{
			fmt.Sprintf("total_entries,%d", totals.TotalEntries),
			fmt.Sprintf("days_tracked,%d", totals.DaysTracked),
			fmt.Sprintf("first_date,%s", firstDate),
			fmt.Sprintf("last_date,%s", lastDate),
			fmt.Sprintf("avg_daily_calories,%s", formatFloat(daily.AvgDailyCalories)),
			fmt.Sprintf("max_daily_calories,%d", daily.MaxDailyCalories),
			fmt.Sprintf("min_daily_calories,%d", daily.MinDailyCalories),
		}
		for _, mt := range mealTypes {
			rows = append(rows, fmt.Sprintf("%s_calories,%d", mt.MealType, mt.TotalCalories))
		}
		for _, f := range topFoods {
			rows = append(rows, fmt.Sprintf("top_food,%s", quoteField(f.MealName)))
		}
		writeCSV(w, "caltrack-summary.csv", "metric,value", rows)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"summary": map[string]any{
			"total_entries":      totals.TotalEntries,
			"days_tracked":       totals.DaysTracked,
			"first_date":         firstDate,
			"last_date":          lastDate,
			"avg_daily_calories": daily.AvgDailyCalories,
			"max_daily_calories": daily.MaxDailyCalories,
			"min_daily_calories": daily.MinDailyCalories,
			"meal_types":         mealTypes,
			"top_foods":          topFoods,
			"has_data":           totals.TotalEntries > 0,
		},
		"meta": map[string]any{
			"start_date": start,
			"end_date":   end,
			"format":     formatOf(r),
		},
	})
}
