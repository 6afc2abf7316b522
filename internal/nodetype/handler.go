package nodetype

import (
	"encoding/json"
	"net/http"
)

// Handler serves GET /api/node-types: every registered descriptor, optionally
// filtered by ?category=.
func Handler(r *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		category := req.URL.Query().Get("category")
		out := []Descriptor{}
		for _, d := range r.Descriptors() {
			if category == "" || d.Category == category {
				out = append(out, d)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"types": out})
	}
}
