package openapi

// Routes locates the endpoints described by WriteupsDocument.
type Routes struct {
	// Writeups is the collection path, e.g. "/api/writeups".
	Writeups string
	// Assets is the asset prefix, e.g. "/api/writeup-assets".
	Assets  string
	Sitemap string
	Health  string
}

// WriteupsDocument describes the read-only writeups API.
func WriteupsDocument(routes Routes, version string) *Document {
	doc := NewDocument("Writeups API", version)
	doc.Info.Description = "Read-only access to CTF writeups scanned from a content tree."

	doc.AddSchema("Writeup", map[string]any{
		"type":     "object",
		"required": []string{"id", "title", "ctfName", "date", "tags", "description", "author"},
		"properties": map[string]any{
			"id":          stringSchema(),
			"title":       stringSchema(),
			"ctfName":     stringSchema(),
			"date":        map[string]any{"type": "string", "format": "date-time"},
			"tags":        arrayOf(stringSchema()),
			"description": stringSchema(),
			"author":      stringSchema(),
			"coverImage":  stringSchema(),
		},
	})
	doc.AddSchema("Heading", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"level": map[string]any{"type": "integer"},
			"text":  stringSchema(),
			"id":    stringSchema(),
		},
	})
	doc.AddSchema("RenderedWriteup", map[string]any{
		"allOf": []any{
			ref("Writeup"),
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"renderedHtml": stringSchema(),
					"toc":          arrayOf(ref("Heading")),
					"images":       arrayOf(stringSchema()),
					"renderTier":   map[string]any{"type": "string", "enum": []string{"full", "reduced", "regex", "escape"}},
				},
			},
		},
	})
	doc.AddSchema("TagCount", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":  stringSchema(),
			"slug":  stringSchema(),
			"count": map[string]any{"type": "integer"},
		},
	})
	doc.AddSchema("Error", map[string]any{
		"type":     "object",
		"required": []string{"error"},
		"properties": map[string]any{
			"error":   stringSchema(),
			"message": stringSchema(),
		},
	})

	doc.AddOperation(routes.Writeups, "get", map[string]any{
		"operationId": "listWriteups",
		"summary":     "List writeups, newest first",
		"parameters": []any{
			queryParam("tag", "Comma separated tags; a writeup matches when it carries any of them."),
			queryParam("q", "Case-insensitive search over title, CTF name, description and author."),
		},
		"responses": map[string]any{
			"200": jsonResponse("Writeups", arrayOf(ref("Writeup"))),
			"400": errorResponse("Malformed query"),
		},
	})
	doc.AddOperation(routes.Writeups+"/tags", "get", map[string]any{
		"operationId": "listTags",
		"summary":     "Tag facet with counts",
		"responses": map[string]any{
			"200": jsonResponse("Tag counts", arrayOf(ref("TagCount"))),
		},
	})
	doc.AddOperation(routes.Writeups+"/{id}", "get", map[string]any{
		"operationId": "getWriteup",
		"summary":     "Rendered writeup by id",
		"parameters":  []any{pathParam("id", "Slash separated writeup id, e.g. ctf2024/heap-overflow.")},
		"responses": map[string]any{
			"200": jsonResponse("Writeup", ref("RenderedWriteup")),
			"400": errorResponse("Malformed id"),
			"404": errorResponse("Unknown id"),
		},
	})
	doc.AddOperation(routes.Assets+"/{path}", "get", map[string]any{
		"operationId": "getAsset",
		"summary":     "File from the content tree",
		"parameters":  []any{pathParam("path", "Asset path relative to the content root.")},
		"responses": map[string]any{
			"200": map[string]any{"description": "Asset bytes"},
			"404": errorResponse("Missing or rejected path"),
		},
	})
	if routes.Sitemap != "" {
		doc.AddOperation(routes.Sitemap, "get", map[string]any{
			"operationId": "getSitemap",
			"responses": map[string]any{
				"200": map[string]any{
					"description": "Sitemap",
					"content":     map[string]any{"application/xml": map[string]any{}},
				},
			},
		})
	}
	if routes.Health != "" {
		doc.AddOperation(routes.Health, "get", map[string]any{
			"operationId": "health",
			"responses": map[string]any{
				"200": map[string]any{"description": "Content tree readable, with maintenance run counters when enabled"},
				"503": map[string]any{"description": "Content tree unavailable"},
			},
		})
	}
	return doc
}

func stringSchema() map[string]any {
	return map[string]any{"type": "string"}
}

func arrayOf(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func ref(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

func queryParam(name, description string) map[string]any {
	return map[string]any{
		"name":        name,
		"in":          "query",
		"description": description,
		"schema":      stringSchema(),
	}
}

func pathParam(name, description string) map[string]any {
	return map[string]any{
		"name":        name,
		"in":          "path",
		"required":    true,
		"description": description,
		"schema":      stringSchema(),
	}
}

func jsonResponse(description string, schema map[string]any) map[string]any {
	return map[string]any{
		"description": description,
		"content": map[string]any{
			"application/json": map[string]any{"schema": schema},
		},
	}
}

func errorResponse(description string) map[string]any {
	return jsonResponse(description, ref("Error"))
}
