package handler

import (
	"net/http"

	"televault/internal/httputil"
)

// Health reports process liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
