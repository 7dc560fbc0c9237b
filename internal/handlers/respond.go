package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError emits the uniform {"error": ...} body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeCSV emits a literal header row followed by pre-joined record rows and
// the attachment headers. Quoting is the caller's responsibility: only
// free-text fields get wrapped in double quotes.
func writeCSV(w http.ResponseWriter, filename, header string, rows []string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	w.Write([]byte(b.String()))
}

// quoteField wraps a free-text CSV field in double quotes.
func quoteField(s string) string {
	return `"` + s + `"`
}

// wantsCSV reads the format query parameter; anything but "csv" is JSON.
func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == formatCSV
}

func formatOf(r *http.Request) string {
	if wantsCSV(r) {
		return formatCSV
	}
	return formatJSON
}
