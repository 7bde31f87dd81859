package openapi

import "maps"

const openAPIVersion = "3.0.3"

// Document represents a minimal OpenAPI document.
type Document struct {
	OpenAPI    string         `json:"openapi"`
	Info       Info           `json:"info"`
	Paths      map[string]any `json:"paths,omitempty"`
	Components Components     `json:"components,omitempty"`
	Extensions map[string]any `json:"-"`
}

type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Components aggregates schema components.
type Components struct {
	Schemas map[string]any `json:"schemas,omitempty"`
}

func NewDocument(title, version string) *Document {
	return &Document{
		OpenAPI:    openAPIVersion,
		Info:       Info{Title: title, Version: version},
		Paths:      map[string]any{},
		Components: Components{Schemas: map[string]any{}},
		Extensions: map[string]any{},
	}
}

// AddSchema registers a component schema.
func (d *Document) AddSchema(name string, schema map[string]any) {
	if d == nil || name == "" || schema == nil {
		return
	}
	if d.Components.Schemas == nil {
		d.Components.Schemas = map[string]any{}
	}
	d.Components.Schemas[name] = schema
}

// AddOperation attaches op under path and the lower-case HTTP method.
func (d *Document) AddOperation(path, method string, op map[string]any) {
	if d == nil || path == "" || method == "" || op == nil {
		return
	}
	if d.Paths == nil {
		d.Paths = map[string]any{}
	}
	item, _ := d.Paths[path].(map[string]any)
	if item == nil {
		item = map[string]any{}
		d.Paths[path] = item
	}
	item[method] = op
}

// SetExtension sets a vendor extension (x-*) on the document.
func (d *Document) SetExtension(key string, value any) {
	if d == nil || key == "" {
		return
	}
	if d.Extensions == nil {
		d.Extensions = map[string]any{}
	}
	d.Extensions[key] = value
}

// AsMap flattens the document, extensions included, for JSON encoding.
func (d *Document) AsMap() map[string]any {
	if d == nil {
		return nil
	}
	info := map[string]any{
		"title":   d.Info.Title,
		"version": d.Info.Version,
	}
	if d.Info.Description != "" {
		info["description"] = d.Info.Description
	}
	out := map[string]any{
		"openapi": d.OpenAPI,
		"info":    info,
		"paths":   map[string]any{},
	}
	if len(d.Paths) > 0 {
		out["paths"] = maps.Clone(d.Paths)
	}
	if len(d.Components.Schemas) > 0 {
		out["components"] = map[string]any{
			"schemas": maps.Clone(d.Components.Schemas),
		}
	}
	maps.Copy(out, d.Extensions)
	return out
}
