package handlers

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed openapi.json
var schemaJSON []byte

// schemaPath is where the router serves schemaJSON; the docs page loads it from there.
const schemaPath = "/openapi.json"

var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} {{.Version}}</title>
<style>body { margin: 0 } redoc { display: block; height: 100vh }</style>
</head>
<body>
<redoc spec-url="{{.SchemaURL}}"></redoc>
<script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
</body>
</html>
`))

type docsPage struct {
	Title     string
	Version   string
	SchemaURL string
}

// docsHTML is rendered once from the schema's info block.
var docsHTML = mustRenderDocs(schemaJSON)

func renderDocs(schema []byte) ([]byte, error) {
	var doc struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
	}
	if err := json.Unmarshal(schema, &doc); err != nil {
		return nil, fmt.Errorf("parse api schema: %w", err)
	}
	if doc.Info.Title == "" {
		return nil, fmt.Errorf("api schema has no info.title")
	}

	var buf bytes.Buffer
	page := docsPage{Title: doc.Info.Title, Version: doc.Info.Version, SchemaURL: schemaPath}
	if err := docsTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render docs page: %w", err)
	}
	return buf.Bytes(), nil
}

func mustRenderDocs(schema []byte) []byte {
	out, err := renderDocs(schema)
	if err != nil {
		panic(err)
	}
	return out
}

// APISchema serves the embedded OpenAPI document.
func (a *App) APISchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(schemaJSON)
}

// APIDocs serves a Redoc page pointed at APISchema.
func (a *App) APIDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(docsHTML)
}
