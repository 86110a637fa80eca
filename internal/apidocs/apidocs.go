// Package apidocs serves the embedded OpenAPI document and a Swagger UI page.
package apidocs

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var specYAML []byte

// uiCSP allows the Swagger UI bundle from its CDN. It replaces the
// API-wide policy set by the security middleware.
const uiCSP = "default-src 'none'; script-src 'self' 'unsafe-inline' https://unpkg.com; " +
	"style-src 'self' 'unsafe-inline' https://unpkg.com; img-src 'self' data:; " +
	"connect-src 'self'; frame-ancestors 'none'"

var uiTemplate = template.Must(template.New("ui").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="swagger-ui" data-spec-url="{{.SpecURL}}"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
window.onload = function () {
  var el = document.getElementById("swagger-ui");
  window.ui = SwaggerUIBundle({ url: el.dataset.specUrl, dom_id: "#swagger-ui" });
};
</script>
</body>
</html>
`))

// Load parses and validates the embedded document.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

// Handler serves the document as JSON and the UI page that renders it.
type Handler struct {
	title   string
	specURL string
	spec    []byte
}

// NewHandler renders doc to JSON once. mountPath is where the handler's
// routes are mounted, e.g. "/api-docs".
func NewHandler(doc *openapi3.T, mountPath string) (*Handler, error) {
	spec, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}

	title := "API docs"
	if doc.Info != nil && doc.Info.Title != "" {
		title = doc.Info.Title
	}

	return &Handler{
		title:   title,
		specURL: mountPath + "/openapi.json",
		spec:    spec,
	}, nil
}

// Spec serves the OpenAPI document.
// GET /api-docs/openapi.json
func (h *Handler) Spec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.spec)
}

// UI serves the Swagger UI page.
// GET /api-docs
func (h *Handler) UI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", uiCSP)
	w.Header().Set("X-Frame-Options", "DENY")
	w.WriteHeader(http.StatusOK)
	_ = uiTemplate.Execute(w, struct {
		Title   string
		SpecURL string
	}{h.title, h.specURL})
}
