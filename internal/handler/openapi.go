package handler

import (
	"net/http"

	"github.com/groompro/backend/spec"
)

// OpenAPISpec handles GET /openapi.yaml, serving the embedded API document.
func OpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}
