package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mindline-health/psychrec/internal/scale"
)

// scaleSummary is the list view: enough to populate a picker without
// shipping every question.
type scaleSummary struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Category  string `json:"category,omitempty"`
	Questions int    `json:"questions"`
	MinScore  int    `json:"min_score"`
	MaxScore  int    `json:"max_score"`
}

func ListScalesHandler(catalog *scale.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := []scaleSummary{}
		for _, def := range catalog.List() {
			out = append(out, scaleSummary{
				Name:      def.Name,
				Title:     def.Title,
				Category:  def.Category,
				Questions: len(def.Questions),
				MinScore:  def.MinScore(),
				MaxScore:  def.MaxScore(),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func GetScaleHandler(catalog *scale.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		def, ok := catalog.Get(name)
		if !ok {
			http.Error(w, "unknown scale: "+name, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(def)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func queryTrim(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
