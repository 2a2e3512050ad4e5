package handler

import (
	"encoding/json"
	"net/http"
)

// HealthHandler reports that the host is up. It never reaches the
// engine.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
