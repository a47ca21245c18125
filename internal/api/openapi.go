package api

import (
	"fmt"
	"net/http"

	"github.com/drafthaus/drawbridge/internal/tools"
)

// buildOpenAPIDoc returns an OpenAPI 3.1 document covering every operation
// of the provided tools.
func buildOpenAPIDoc(infos []tools.ToolInfo) map[string]any {
	paths := map[string]any{}

	for _, info := range infos {
		for path, item := range buildToolPaths(info) {
			paths[path] = item
		}
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "Drawbridge",
			"version": "1.0",
		},
		"paths": paths,
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{
					"type":   "http",
					"scheme": "bearer",
				},
			},
		},
	}
}

// buildToolPaths builds OpenAPI path items for a single tool.
func buildToolPaths(info tools.ToolInfo) map[string]any {
	paths := map[string]any{}

	for _, op := range info.Operations {
		scope := "draw:ro"
		if op.Kind == tools.KindWrite {
			scope = "draw:rw"
		}

		operation := map[string]any{
			"operationId": fmt.Sprintf("%s__%s", info.Name, op.Name),
			"summary":     fmt.Sprintf("%s: %s", info.Name, op.Name),
			"description": fmt.Sprintf("Requires scope %s.", scope),
			"tags":        []string{info.Name},
			"responses": map[string]any{
				"200": map[string]any{"description": "Call executed; ok reflects the drawing-side outcome"},
				"401": map[string]any{"description": "Unauthorized"},
				"403": map[string]any{"description": "Insufficient scope"},
			},
			"security": []any{map[string]any{"BearerAuth": []string{}}},
			"requestBody": map[string]any{
				"required": false,
				"content": map[string]any{
					"application/json": map[string]any{
						"schema": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"data": map[string]any{
									"type":        "object",
									"description": "Operation parameters as a flat object",
								},
								"include_screenshot": map[string]any{
									"type": "boolean",
								},
							},
						},
					},
				},
			},
		}

		paths[fmt.Sprintf("/tool/%s/%s", info.Name, op.Name)] = map[string]any{
			"post": operation,
		}
	}

	return paths
}

// handleOpenAPI handles GET /openapi.json (no auth).
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildOpenAPIDoc(s.registry.Describe()))
}
