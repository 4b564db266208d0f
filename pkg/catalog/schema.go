package catalog

// catalogSchema is the JSON Schema every catalog document must satisfy
// before step-level validation runs. Prerequisite references and
// acyclicity are checked separately when the catalog is built.
var catalogSchema = map[string]any{
	"type":     "object",
	"required": []any{"steps"},
	"properties": map[string]any{
		"name": map[string]any{"type": "string"},
		"steps": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "title", "category", "complexity"},
				"properties": map[string]any{
					"id":    map[string]any{"type": "string", "minLength": 1},
					"title": map[string]any{"type": "string", "minLength": 3},
					"category": map[string]any{
						"type": "string",
						"enum": []any{"terrain", "wind_resource", "simulation", "optimization", "reporting"},
					},
					"complexity": map[string]any{
						"type": "string",
						"enum": []any{"basic", "intermediate", "advanced", "expert"},
					},
					"prerequisites": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"next_steps": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"optional":          map[string]any{"type": "boolean"},
					"estimated_minutes": map[string]any{"type": "integer", "minimum": 0},
					"description":       map[string]any{"type": "string"},
				},
			},
		},
	},
}
