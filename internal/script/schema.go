package script

// Schema строит JSON Schema для структурированного ответа
// внешней генерирующей способности.
//
// Схема закрытая: фазы и имена команд ограничены enum'ами,
// дополнительные поля запрещены. Любой ответ вне схемы генератор
// трактует как ошибку.
func Schema() map[string]any {
	phases := make([]string, len(CanonicalOrder))
	for i, p := range CanonicalOrder {
		phases[i] = string(p)
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"sections"},
		"properties": map[string]any{
			"variables": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
				"description":          "Script variables, e.g. appVendor, appName, appVersion.",
			},
			"sections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"phase", "commands"},
					"properties": map[string]any{
						"phase": map[string]any{
							"type": "string",
							"enum": phases,
						},
						"commands": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":                 "object",
								"additionalProperties": false,
								"required":             []string{"name"},
								"properties": map[string]any{
									"name": map[string]any{
										"type": "string",
										"enum": CommandNames(),
									},
									"parameters": map[string]any{
										"type": "object",
										"additionalProperties": map[string]any{
											"type": []string{"string", "number", "boolean"},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}
