package handler

import "net/http"

// Health answers GET /healthz with the storage backend in use, so a
// deployment can tell when it fell back to the in-memory store.
func Health(backendKind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		OK(w, map[string]string{"status": "ok", "backend": backendKind})
	}
}
