package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"caltrack/internal/models"
)

type EntriesHandler struct {
	db       *sqlx.DB
	log      *zap.Logger
	validate *validator.Validate
}

func NewEntriesHandler(db *sqlx.DB, log *zap.Logger) *EntriesHandler {
	return &EntriesHandler{db: db, log: log, validate: validator.New()}
}

type entryInput struct {
	MealType string `json:"meal_type" validate:"required,oneof=Breakfast Lunch Dinner Snacks"`
	MealName string `json:"meal_name" validate:"required,max=200"`
	Calories int    `json:"calories" validate:"required,gt=0"`
}

type addEntriesRequest struct {
	Date    string       `json:"date" validate:"required,datetime=2006-01-02"`
	Entries []entryInput `json:"entries" validate:"required,min=1,dive"`
}

// Add records one or more meal items for a date and synchronously recomputes
// that date's daily stat.
func (h *EntriesHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry payload")
		return
	}

	for _, e := range req.Entries {
		_, err := h.db.ExecContext(r.Context(),
			`INSERT INTO calorie_entries (entry_date, meal_type, meal_name, calories) VALUES ($1, $2, $3, $4)`,
			req.Date, e.MealType, e.MealName, e.Calories)
		if err != nil {
			h.log.Error("could not insert entry", zap.String("date", req.Date), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to add entries")
			return
		}
	}

	if err := h.recomputeDailyStat(r, req.Date); err != nil {
		h.log.Error("could not recompute daily stat", zap.String("date", req.Date), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to add entries")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"date":    req.Date,
		"added":   len(req.Entries),
	})
}

// Delete removes every entry for a date. Edits are delete-then-re-add; rows
// are never individually mutated.
func (h *EntriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(dateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format. Expected YYYY-MM-DD")
		return
	}

	res, err := h.db.ExecContext(r.Context(), `DELETE FROM calorie_entries WHERE entry_date = $1`, date)
	if err != nil {
		h.log.Error("could not delete entries", zap.String("date", date), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete entries")
		return
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	if err := h.recomputeDailyStat(r, date); err != nil {
		h.log.Error("could not recompute daily stat", zap.String("date", date), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete entries")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"date":    date,
		"deleted": rows,
	})
}

// recomputeDailyStat rebuilds the cached rollup for one date from its
// entries. The upsert is a single atomic statement; is_excluded survives
// updates. A date left with no entries loses its stat row.
func (h *EntriesHandler) recomputeDailyStat(r *http.Request, date string) error {
	var count int
	if err := h.db.GetContext(r.Context(), &count,
		`SELECT COUNT(*) FROM calorie_entries WHERE entry_date = $1`, date); err != nil {
		return err
	}
	if count == 0 {
		_, err := h.db.ExecContext(r.Context(), `DELETE FROM daily_stats WHERE entry_date = $1`, date)
		return err
	}

	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO daily_stats (entry_date, total_calories, breakfast_calories, lunch_calories, dinner_calories, snacks_calories, updated_at)
		SELECT $1::date,
		       COALESCE(SUM(calories), 0),
		       COALESCE(SUM(calories) FILTER (WHERE meal_type = 'Breakfast'), 0),
		       COALESCE(SUM(calories) FILTER (WHERE meal_type = 'Lunch'), 0),
		       COALESCE(SUM(calories) FILTER (WHERE meal_type = 'Dinner'), 0),
		       COALESCE(SUM(calories) FILTER (WHERE meal_type = 'Snacks'), 0),
		       NOW()
		FROM calorie_entries
		WHERE entry_date = $1::date
		ON CONFLICT (entry_date) DO UPDATE SET
		    total_calories = EXCLUDED.total_calories,
		    breakfast_calories = EXCLUDED.breakfast_calories,
		    lunch_calories = EXCLUDED.lunch_calories,
		    dinner_calories = EXCLUDED.dinner_calories,
		    snacks_calories = EXCLUDED.snacks_calories,
		    updated_at = NOW()`, date)
	return err
}

type dailyStatDTO struct {
	Date              string `json:"date"`
	TotalCalories     int    `json:"total_calories"`
	BreakfastCalories int    `json:"breakfast_calories"`
	LunchCalories     int    `json:"lunch_calories"`
	DinnerCalories    int    `json:"dinner_calories"`
	SnacksCalories    int    `json:"snacks_calories"`
	IsExcluded        bool   `json:"is_excluded"`
	UpdatedAt         string `json:"updated_at"`
}

func toDailyStatDTO(s models.DailyStat) dailyStatDTO {
	return dailyStatDTO{
		Date:              s.EntryDate.Format(dateLayout),
		TotalCalories:     s.TotalCalories,
		BreakfastCalories: s.BreakfastCalories,
		LunchCalories:     s.LunchCalories,
		DinnerCalories:    s.DinnerCalories,
		SnacksCalories:    s.SnacksCalories,
		IsExcluded:        s.IsExcluded,
		UpdatedAt:         s.UpdatedAt.Format(time.RFC3339),
	}
}

const dailyStatColumns = `entry_date, total_calories, breakfast_calories, lunch_calories, dinner_calories, snacks_calories, is_excluded, updated_at`

// GetDailyStats returns the stat for one date (?date=) or the stats over a
// range, newest first.
func (h *EntriesHandler) GetDailyStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if date := q.Get("date"); date != "" {
		var stat models.DailyStat
		err := h.db.GetContext(r.Context(), &stat,
			`SELECT `+dailyStatColumns+` FROM daily_stats WHERE entry_date::text = $1`, date)
		if err != nil {
			writeError(w, http.StatusNotFound, "Not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"daily_stat": toDailyStatDTO(stat)})
		return
	}

	start, end := dateRange(q, defaultAnalyticsMonths)
	stats := []models.DailyStat{}
	err := h.db.SelectContext(r.Context(), &stats,
		`SELECT `+dailyStatColumns+`
		 FROM daily_stats
		 WHERE entry_date::text >= $1 AND entry_date::text <= $2
		 ORDER BY entry_date DESC`, start, end)
	if err != nil {
		h.log.Error("could not fetch daily stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch daily stats")
		return
	}

	out := make([]dailyStatDTO, 0, len(stats))
	for _, s := range stats {
		out = append(out, toDailyStatDTO(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"daily_stats": out,
		"meta":        map[string]any{"start_date": start, "end_date": end},
	})
}

type excludeRequest struct {
	IsExcluded bool `json:"is_excluded"`
}

// Exclude flags a day in or out of averages and trends. This endpoint alone
// validates its date strictly.
func (h *EntriesHandler) Exclude(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(dateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format. Expected YYYY-MM-DD")
		return
	}

	var req excludeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.db.ExecContext(r.Context(),
		`UPDATE daily_stats SET is_excluded = $2, updated_at = NOW() WHERE entry_date = $1`,
		date, req.IsExcluded)
	if err != nil {
		h.log.Error("could not update exclusion", zap.String("date", date), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update day")
		return
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"date":        date,
		"is_excluded": req.IsExcluded,
	})
}
