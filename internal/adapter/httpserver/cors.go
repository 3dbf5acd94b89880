package httpserver

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/imposter-project/assetscheme/pkg/logger"
)

const (
	defaultMaxAge = 86400 // 24 hours
)

// handleCORS adds CORS headers for allowed origins and answers preflight requests.
// It returns true if the request has been fully handled.
func handleCORS(w http.ResponseWriter, r *http.Request, allowedOrigins []string) bool {
	if len(allowedOrigins) == 0 {
		return false
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		if r.Method == http.MethodOptions {
			logger.Warnln("preflight request received without Origin header")
			w.WriteHeader(http.StatusBadRequest)
			return true
		}
		return false
	}

	addCORSHeaders(w, origin, allowedOrigins)
	if r.Method != http.MethodOptions {
		return false
	}

	// assets are read-only
	w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	if requestedHeaders := r.Header.Get("Access-Control-Request-Headers"); requestedHeaders != "" {
		w.Header().Set("Access-Control-Allow-Headers", requestedHeaders)
	}
	w.Header().Set("Access-Control-Max-Age", strconv.Itoa(defaultMaxAge))
	w.WriteHeader(http.StatusNoContent)
	return true
}

func addCORSHeaders(w http.ResponseWriter, origin string, allowedOrigins []string) {
	switch {
	case slices.Contains(allowedOrigins, "all"):
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
	case slices.Contains(allowedOrigins, "*"):
		w.Header().Set("Access-Control-Allow-Origin", "*")
	case slices.Contains(allowedOrigins, origin):
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
	}
}
