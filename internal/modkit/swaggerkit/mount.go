// Package swaggerkit serves the generated OpenAPI document and Swagger UI
package swaggerkit

import (
	"net/http"

	phttp "signalgate/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// DocsPath is where the UI and doc.json live
const DocsPath = "/api/docs"

// Mount serves the UI at DocsPath when enabled; the OpenAPI document's server is /api/v1
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get(DocsPath, http.RedirectHandler(DocsPath+"/", http.StatusPermanentRedirect).ServeHTTP)
	r.Get(DocsPath+"/doc.json", serveDocJSON("/api/v1"))
	r.Handle(DocsPath+"/*", httpSwagger.Handler(
		httpSwagger.InstanceName("api"),
		httpSwagger.URL(DocsPath+"/doc.json"),
	))
}
