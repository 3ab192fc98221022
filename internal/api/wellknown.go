package api

import "net/http"

// wellKnownManifest is the static JSON manifest for /.well-known/tally.json.
const wellKnownManifest = `{
  "name": "Tally",
  "description": "Employee hours declaration service",
  "version": "0.1.0",
  "api_base": "/api/v1",
  "auth": {
    "type": "bearer",
    "header": "Authorization"
  },
  "endpoints": {
    "auth": "/api/v1/auth",
    "hours": "/api/v1/hours",
    "calendar": "/api/v1/calendar",
    "report": "/api/v1/report",
    "export": "/api/v1/export",
    "import": "/api/v1/import"
  },
  "health": "/health"
}`

// WellKnownHandler returns the static Tally well-known manifest.
func WellKnownHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(wellKnownManifest))
}
