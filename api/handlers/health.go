package handlers

import (
	"net/http"
	"time"
)

var startTime = time.Now()

// Health handles GET /healthz.
func Health(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(startTime).String(),
	})
}
