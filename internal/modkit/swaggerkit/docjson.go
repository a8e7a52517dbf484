package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"

	docs "signalgate/internal/services/api/docs"
)

// Mutator adjusts the parsed spec before it is served
type Mutator func(spec map[string]any)

var mutators []Mutator

// docReader renders the generated spec; swapped in tests
var docReader = func() string { return docs.SwaggerInfo.ReadDoc() }

// Register adds a Mutator; call it from init or before Mount
func Register(m Mutator) {
	if m != nil {
		mutators = append(mutators, m)
	}
}

// errorSchema mirrors the platform error envelope
var errorSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"status_code": map[string]any{"type": "integer"},
		"status":      map[string]any{"type": "string"},
		"code":        map[string]any{"type": "integer"},
		"error":       map[string]any{"type": "string"},
		"request_id":  map[string]any{"type": "string"},
	},
	"required": []any{"status_code", "status"},
}

// defaultResponses are added to every operation that does not declare them
var defaultResponses = map[string]string{
	"400": "Bad Request",
	"500": "Internal Server Error",
}

func serveDocJSON(basePath string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}
		normalize(spec, basePath)
		for _, m := range mutators {
			m(spec)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// normalize pins the document to OAS 3.0.3, which the bundled UI renders,
// and fills in servers plus the shared error responses
func normalize(spec map[string]any, basePath string) {
	delete(spec, "swagger")
	if v, _ := spec["openapi"].(string); !strings.HasPrefix(v, "3.0") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": basePath}}
	}

	schemas := child(child(spec, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; !ok {
		schemas["ErrorResponse"] = errorSchema
	}

	paths, _ := spec["paths"].(map[string]any)
	for _, p := range paths {
		ops, _ := p.(map[string]any)
		for _, o := range ops {
			op, ok := o.(map[string]any)
			if !ok {
				continue
			}
			responses := child(op, "responses")
			for code, desc := range defaultResponses {
				if _, ok := responses[code]; ok {
					continue
				}
				responses[code] = map[string]any{
					"description": desc,
					"content": map[string]any{
						"application/json": map[string]any{
							"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
						},
					},
				}
			}
		}
	}
}

// child returns m[key] as an object, creating it when absent
func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}
