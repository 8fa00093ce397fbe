package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/BrandonDHaskell/facegate/internal/gate/types"
)

const maxListLimit = 500

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, types.ErrorResponse{OK: false, Error: code, Message: msg})
}

func serverTime() string { return time.Now().UTC().Format(time.RFC3339Nano) }

// parseLimit reads ?limit=.  Missing means 0 (the service default).
func parseLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	if n > maxListLimit {
		n = maxListLimit
	}
	return n, true
}
