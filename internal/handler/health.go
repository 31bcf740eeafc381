package handler

import "net/http"

// Health handles GET /health. It is unauthenticated so load balancers
// and the bot supervisor can probe liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
